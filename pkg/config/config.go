// Package config loads and validates the bridged daemon configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full daemon configuration.
type Config struct {
	// Server configures the HTTP service layer.
	Server ServerConfig `yaml:"server"`

	// Bridge configures the relay core.
	Bridge BridgeConfig `yaml:"bridge"`

	// Capabilities configures the backend-facing capability surface.
	Capabilities CapabilityConfig `yaml:"capabilities"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// ListenAddr is the address the service layer binds to.
	ListenAddr string `yaml:"listen_addr"`
}

// BridgeConfig configures the relay core.
type BridgeConfig struct {
	// StreamBuffer is the capacity of the executor's delivery channel.
	StreamBuffer int `yaml:"stream_buffer"`

	// BacklogLimit caps requests queued while no executor is connected.
	// Zero means unbounded.
	BacklogLimit int `yaml:"backlog_limit"`
}

// CapabilityConfig configures capability invocation.
type CapabilityConfig struct {
	// Timeout bounds how long a capability call waits for the executor.
	Timeout time.Duration `yaml:"timeout"`

	// AllowedMethods holds glob patterns for methods callable through the
	// generic invoke endpoint. Empty means every method is allowed.
	AllowedMethods []string `yaml:"allowed_methods"`

	// DeniedMethods holds glob patterns that are rejected even when an
	// allowed pattern matches.
	DeniedMethods []string `yaml:"denied_methods"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:50051",
		},
		Bridge: BridgeConfig{
			StreamBuffer: 32,
			BacklogLimit: 1024,
		},
		Capabilities: CapabilityConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads a YAML config file and merges it over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Bridge.StreamBuffer <= 0 {
		return fmt.Errorf("bridge.stream_buffer must be positive")
	}
	if c.Bridge.BacklogLimit < 0 {
		return fmt.Errorf("bridge.backlog_limit cannot be negative")
	}
	if c.Capabilities.Timeout <= 0 {
		return fmt.Errorf("capabilities.timeout must be positive")
	}
	if _, err := NewMethodMatcher(c.Capabilities.AllowedMethods, c.Capabilities.DeniedMethods); err != nil {
		return err
	}
	return nil
}
