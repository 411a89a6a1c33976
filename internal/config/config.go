// Package config holds the tunables named throughout spec.md §4, the way
// the teacher's internal/config package holds Mini-Dynamo's: a flat
// struct with JSON tags, a constructor with sane defaults, and a
// Validate that returns wrapped errors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config is the full set of tunables for one node.
type Config struct {
	// Identity
	NodeName string `json:"node_name"`
	Host     string `json:"host"`
	UDPPort  int    `json:"udp_port"`

	// Membership (spec.md §4.1)
	PruneInterval time.Duration `json:"prune_interval"`
	PruneTimeout  time.Duration `json:"prune_timeout"`

	// Gossip (spec.md §4.2)
	GossipInterval time.Duration `json:"gossip_interval"`
	ForwardAmount  int           `json:"forward_amount"`

	// Database (spec.md §3, §4.3)
	DBSize int `json:"db_size"`

	// Consensus (spec.md §4.4)
	ConsensusTime    time.Duration `json:"consensus_time"`
	ConsensusWaitFor float64       `json:"consensus_wait_for"`

	// Diagnostics HTTP server (SPEC_FULL.md, ambient)
	DiagnosticsAddr string `json:"diagnostics_addr"`
}

// DefaultConfig returns the tunables named in spec.md §4, with their
// spec-mandated defaults.
func DefaultConfig() *Config {
	return &Config{
		NodeName: fmt.Sprintf("peer-%d", os.Getpid()),
		Host:     "",
		UDPPort:  0,

		PruneInterval: 15 * time.Second,
		PruneTimeout:  20 * time.Second,

		GossipInterval: 10 * time.Second,
		ForwardAmount:  3,

		DBSize: 5,

		ConsensusTime:    10 * time.Second,
		ConsensusWaitFor: 0.8,

		DiagnosticsAddr: "127.0.0.1:0",
	}
}

// Validate rejects configurations that would make the node misbehave.
func (c *Config) Validate() error {
	if c.NodeName == "" {
		return fmt.Errorf("node_name is required")
	}
	if c.UDPPort < 0 || c.UDPPort > 65535 {
		return fmt.Errorf("invalid udp_port: %d", c.UDPPort)
	}
	if c.DBSize < 1 {
		return fmt.Errorf("db_size must be at least 1")
	}
	if c.ForwardAmount < 0 {
		return fmt.Errorf("forward_amount must not be negative")
	}
	if c.ConsensusWaitFor <= 0 || c.ConsensusWaitFor > 1 {
		return fmt.Errorf("consensus_wait_for must be in (0, 1]")
	}
	return nil
}

// LoadFromFile reads a JSON config file, starting from defaults for any
// field it omits.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration out as indented JSON.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
