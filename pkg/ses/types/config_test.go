package types

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadConfiguration_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"num_processes": 2,
		"messages_per_process": 5,
		"message_rate": {"min_per_minute": 60, "max_per_minute": 120},
		"network": {"base_port": 9000, "timeout": 3},
		"processes": [{"host": "127.0.0.1", "port": 9000}, {"host": "127.0.0.1", "port": 9001}]
	}`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration: %v", err)
	}
	if cfg.HandshakeRetryInterval.Seconds() != 2 {
		t.Fatalf("expected default handshake retry of 2s, got %v", cfg.HandshakeRetryInterval)
	}
	if cfg.DrainInterval.Seconds() != 5 {
		t.Fatalf("expected default drain interval of 5s, got %v", cfg.DrainInterval)
	}
	if cfg.Network.Timeout().Seconds() != 3 {
		t.Fatalf("expected network timeout of 3s, got %v", cfg.Network.Timeout())
	}
}

func TestLoadConfiguration_MissingFile(t *testing.T) {
	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
}

func TestLoadConfiguration_ProcessCountMismatch(t *testing.T) {
	path := writeConfig(t, `{
		"num_processes": 3,
		"messages_per_process": 1,
		"message_rate": {"min_per_minute": 60, "max_per_minute": 120},
		"network": {"base_port": 9000, "timeout": 1},
		"processes": [{"host": "127.0.0.1", "port": 9000}]
	}`)
	_, err := LoadConfiguration(path)
	if err == nil {
		t.Fatal("expected a validation error when processes does not match num_processes")
	}
}

func TestConfiguration_Validate_RateBounds(t *testing.T) {
	cfg := &Configuration{
		NumProcesses: 1,
		Processes:    []PeerEndpoint{{Host: "h", Port: 1}},
		MessageRate:  MessageRate{MinPerMinute: 100, MaxPerMinute: 10},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure when min_per_minute exceeds max_per_minute")
	}
}

func TestPeerEndpoint_Address(t *testing.T) {
	p := PeerEndpoint{Host: "10.0.0.1", Port: 7000}
	if p.Address() != "10.0.0.1:7000" {
		t.Fatalf("Address() = %q", p.Address())
	}
}
