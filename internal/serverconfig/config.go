// Package serverconfig loads and validates the server's YAML configuration
// file (§6).
package serverconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultListen is used when Listen is left empty.
const DefaultListen = ":8080"

// Node is one configured router: its name, the URL of its fronting proxy,
// and an optional shared secret to present on every request to it.
type Node struct {
	Name         string `yaml:"name"`
	URL          string `yaml:"url"`
	SharedSecret string `yaml:"shared_secret"`
}

// Network is the server's aggregate network metadata (§3: NetworkInfo).
type Network struct {
	Name       string `yaml:"name"`
	ASN        string `yaml:"asn"`
	Comment    string `yaml:"comment"`
	IPv4Prefix string `yaml:"ipv4_prefix"`
	IPv6Prefix string `yaml:"ipv6_prefix"`
	Contacts   string `yaml:"contacts"`
}

// Config is the server's top-level configuration.
type Config struct {
	Listen          stringOrList `yaml:"listen"`
	Nodes           []Node       `yaml:"nodes"`
	Network         *Network     `yaml:"network"`
	PollIdleTimeout uint64       `yaml:"poll_idle_timeout"`
}

// stringOrList unmarshals either a bare YAML string or a sequence of
// strings, mirroring the server's `listen: string | [string]` config shape.
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

// IdleTimeout returns PollIdleTimeout as a time.Duration, or 0 if unset
// (meaning the poller never idles).
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.PollIdleTimeout) * time.Second
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if len(c.Listen) == 0 {
		c.Listen = []string{DefaultListen}
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("serverconfig: at least one node must be configured")
	}
	seen := make(map[string]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.Name == "" {
			return fmt.Errorf("serverconfig: node with empty name")
		}
		if n.URL == "" {
			return fmt.Errorf("serverconfig: node %q: url is required", n.Name)
		}
		if seen[n.Name] {
			return fmt.Errorf("serverconfig: duplicate node name %q", n.Name)
		}
		seen[n.Name] = true
	}
	return nil
}

// Load reads a YAML configuration file, applies defaults, and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("serverconfig: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("serverconfig: parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
