// Package proxyconfig loads and validates the proxy's YAML configuration
// file (§6).
package proxyconfig

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/curve25519"
	"gopkg.in/yaml.v3"

	"github.com/el-ev/bird-lg-go/internal/netutil"
	"github.com/el-ev/bird-lg-go/internal/wire"
)

// DefaultListen is used when Listen is left empty.
const DefaultListen = ":8000"

// DefaultTracerouteBin is the traceroute binary invoked when TracerouteBin
// is left empty.
const DefaultTracerouteBin = "traceroute"

// DefaultWireGuardCommand is the command invoked when WireGuardCommand is
// left empty.
const DefaultWireGuardCommand = "wg show dump"

// stringOrList unmarshals either a bare YAML string or a sequence of
// strings into a []string, mirroring the proxy's `listen: string | [string]`
// and `traceroute_args: string | [string]` config shapes (§6).
type stringOrList []string

func (s *stringOrList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		if single == "" {
			*s = nil
			return nil
		}
		*s = []string{single}
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	*s = list
	return nil
}

// Config is the proxy's top-level configuration.
type Config struct {
	BindSocket       string          `yaml:"bind_socket"`
	Listen           stringOrList    `yaml:"listen"`
	AllowedIPs       []string        `yaml:"allowed_ips"`
	SharedSecret     string          `yaml:"shared_secret"`
	TracerouteBin    string          `yaml:"traceroute_bin"`
	TracerouteArgs   stringOrList    `yaml:"traceroute_args"`
	Peering          *wire.PeeringInfo `yaml:"peering"`
	WireGuardCommand string          `yaml:"wireguard_command"`

	// Allowlist is the compiled form of AllowedIPs, populated by Validate.
	Allowlist *netutil.Allowlist `yaml:"-"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if len(c.Listen) == 0 {
		c.Listen = []string{DefaultListen}
	}
	if c.TracerouteBin == "" {
		c.TracerouteBin = DefaultTracerouteBin
	}
	if c.WireGuardCommand == "" {
		c.WireGuardCommand = DefaultWireGuardCommand
	}
}

// Validate checks required fields, compiles the allowlist, dereferences a
// filesystem-path wg_pubkey, and validates its format.
func (c *Config) Validate() error {
	if c.BindSocket == "" {
		return fmt.Errorf("proxyconfig: bind_socket is required")
	}

	allow, err := netutil.ParseAllowlist(c.AllowedIPs)
	if err != nil {
		return fmt.Errorf("proxyconfig: allowed_ips: %w", err)
	}
	c.Allowlist = allow

	if c.Peering != nil && c.Peering.WgPubkey != nil {
		resolved, err := dereferenceWgPubkey(*c.Peering.WgPubkey)
		if err != nil {
			return fmt.Errorf("proxyconfig: peering.wg_pubkey: %w", err)
		}
		if err := validateWgPubkey(resolved); err != nil {
			return fmt.Errorf("proxyconfig: peering.wg_pubkey: %w", err)
		}
		c.Peering.WgPubkey = &resolved
	}

	return nil
}

// dereferenceWgPubkey treats a value beginning with "/", "./", or "../" as
// a filesystem path and reads the key from it, trimming trailing whitespace.
// Any other value is returned unchanged (§3: PeeringInfo).
func dereferenceWgPubkey(value string) (string, error) {
	if !strings.HasPrefix(value, "/") && !strings.HasPrefix(value, "./") && !strings.HasPrefix(value, "../") {
		return value, nil
	}
	data, err := os.ReadFile(value)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", value, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// validateWgPubkey checks that value is a base64-encoded 32-byte Curve25519
// public key, the format `wg` itself uses for peer keys.
func validateWgPubkey(value string) error {
	key, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return fmt.Errorf("not valid base64: %w", err)
	}
	if len(key) != curve25519.PointSize {
		return fmt.Errorf("decoded key is %d bytes, want %d", len(key), curve25519.PointSize)
	}
	return nil
}

// Load reads a YAML configuration file, applies defaults, and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("proxyconfig: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("proxyconfig: parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
