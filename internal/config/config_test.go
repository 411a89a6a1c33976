package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
	if cfg.DBSize != 5 {
		t.Errorf("expected default db_size 5, got %d", cfg.DBSize)
	}
	if cfg.ForwardAmount != 3 {
		t.Errorf("expected default forward_amount 3, got %d", cfg.ForwardAmount)
	}
	if cfg.ConsensusTime != 10*time.Second {
		t.Errorf("expected default consensus_time 10s, got %v", cfg.ConsensusTime)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UDPPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range udp_port")
	}
}

func TestValidateRejectsMissingName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NodeName = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty node_name")
	}
}

func TestValidateRejectsBadConsensusWaitFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConsensusWaitFor = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero consensus_wait_for")
	}
	cfg.ConsensusWaitFor = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for consensus_wait_for above 1")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := DefaultConfig()
	cfg.NodeName = "peer-test"
	cfg.UDPPort = 9000

	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.NodeName != "peer-test" || loaded.UDPPort != 9000 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadFromFilePartialOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.json")
	if err := os.WriteFile(path, []byte(`{"node_name": "partial-node"}`), 0644); err != nil {
		t.Fatalf("failed to write partial config: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.NodeName != "partial-node" {
		t.Errorf("expected node_name override, got %q", loaded.NodeName)
	}
	if loaded.DBSize != 5 {
		t.Errorf("expected default db_size to survive partial load, got %d", loaded.DBSize)
	}
}
