package serverconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaultListen(t *testing.T) {
	path := writeConfig(t, `
nodes:
  - name: node1
    url: http://node1:8000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Listen) != 1 || cfg.Listen[0] != DefaultListen {
		t.Errorf("Listen = %v, want [%s]", cfg.Listen, DefaultListen)
	}
}

func TestLoad_RequiresAtLeastOneNode(t *testing.T) {
	path := writeConfig(t, "listen: \":8080\"\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty nodes list")
	}
}

func TestLoad_RejectsDuplicateNodeNames(t *testing.T) {
	path := writeConfig(t, `
nodes:
  - name: node1
    url: http://a:8000
  - name: node1
    url: http://b:8000
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for duplicate node names")
	}
}

func TestLoad_RejectsNodeMissingURL(t *testing.T) {
	path := writeConfig(t, `
nodes:
  - name: node1
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for node missing url")
	}
}

func TestIdleTimeout_ZeroMeansNeverIdle(t *testing.T) {
	cfg := &Config{}
	if got := cfg.IdleTimeout(); got != 0 {
		t.Errorf("IdleTimeout() = %v, want 0", got)
	}
}

func TestIdleTimeout_ConvertsSecondsToDuration(t *testing.T) {
	cfg := &Config{PollIdleTimeout: 30}
	if got, want := cfg.IdleTimeout(), 30*time.Second; got != want {
		t.Errorf("IdleTimeout() = %v, want %v", got, want)
	}
}

func TestListen_ScalarAndSequence(t *testing.T) {
	path := writeConfig(t, `
listen:
  - ":8080"
  - ":9090"
nodes:
  - name: node1
    url: http://node1:8000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Listen) != 2 || cfg.Listen[1] != ":9090" {
		t.Errorf("Listen = %v", cfg.Listen)
	}
}

func TestLoad_ParsesNetworkBlock(t *testing.T) {
	path := writeConfig(t, `
nodes:
  - name: node1
    url: http://node1:8000
network:
  name: Example Network
  asn: "64500"
  ipv4_prefix: 203.0.113.0/24
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network == nil || cfg.Network.ASN != "64500" {
		t.Errorf("Network = %+v", cfg.Network)
	}
}
