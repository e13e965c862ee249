package consul

import (
	"fmt"
	"time"
)

// Config holds Consul agent connection settings. It is usually read from
// the consul.agent block of the service configuration.
type Config struct {
	// Address is the agent address (default: 127.0.0.1:8500).
	Address string `yaml:"address" mapstructure:"address"`

	// Scheme is the URI scheme (http/https).
	Scheme string `yaml:"scheme" mapstructure:"scheme"`

	// Datacenter pins every request to one datacenter. Leave empty to use
	// the agent's own.
	Datacenter string `yaml:"datacenter" mapstructure:"datacenter"`

	// Token is the ACL token.
	Token string `yaml:"token" mapstructure:"token"`

	// Namespace for Consul Enterprise.
	Namespace string `yaml:"namespace" mapstructure:"namespace"`

	// Partition for Consul Enterprise.
	Partition string `yaml:"partition" mapstructure:"partition"`

	// TLS configuration.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Timeout bounds a single HTTP request to the agent.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// TLSConfig holds TLS configuration for agent connections.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled"`
	CACert             string `yaml:"ca_cert" mapstructure:"ca_cert"`
	CAPath             string `yaml:"ca_path" mapstructure:"ca_path"`
	ClientCert         string `yaml:"client_cert" mapstructure:"client_cert"`
	ClientKey          string `yaml:"client_key" mapstructure:"client_key"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
	ServerName         string `yaml:"server_name" mapstructure:"server_name"`
}

// DefaultConfig returns a Config for a local agent.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Address == "" {
		c.Address = "127.0.0.1:8500"
	}
	if c.Scheme == "" {
		c.Scheme = "http"
		if c.TLS != nil && c.TLS.Enabled {
			c.Scheme = "https"
		}
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("consul address is required")
	}
	if c.Scheme != "http" && c.Scheme != "https" {
		return fmt.Errorf("consul scheme must be 'http' or 'https', got '%s'", c.Scheme)
	}
	if c.TLS != nil && c.TLS.Enabled && c.Scheme != "https" {
		return fmt.Errorf("TLS enabled but scheme is not https")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}
