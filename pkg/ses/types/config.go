package types

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// PeerEndpoint is one entry of the Configuration.Processes table (spec.md
// §6: "processes[i].{host,port}").
type PeerEndpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Address returns the host:port dial string for this endpoint.
func (p PeerEndpoint) Address() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// MessageRate holds the pacing bounds of spec.md §6.
type MessageRate struct {
	MinPerMinute float64 `json:"min_per_minute"`
	MaxPerMinute float64 `json:"max_per_minute"`
}

// NetworkConfig holds binding/RPC parameters of spec.md §6.
type NetworkConfig struct {
	BasePort int `json:"base_port"`
	// TimeoutSeconds is stored in seconds on the wire, matching the
	// original source's config.json, and converted to time.Duration by
	// Timeout.
	TimeoutSeconds int `json:"timeout"`
}

// Timeout returns the network timeout as a time.Duration.
func (n NetworkConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// Configuration is the external collaborator named in spec.md §1 and §6.
// Its JSON shape matches the original system's config.json verbatim
// (SPEC_FULL.md §4.4), so a config file from the original loads unmodified.
type Configuration struct {
	NumProcesses        int           `json:"num_processes"`
	MessagesPerProcess  int           `json:"messages_per_process"`
	MessageRate         MessageRate   `json:"message_rate"`
	Network             NetworkConfig `json:"network"`
	Processes           []PeerEndpoint `json:"processes"`

	// HandshakeRetryInterval is set to 2s (spec.md §4.4) by
	// LoadConfiguration when zero; a Configuration built directly keeps
	// whatever value it is given, including zero.
	HandshakeRetryInterval time.Duration `json:"-"`
	// DrainInterval is set to 5s (spec.md §4.4) by LoadConfiguration when
	// zero; a Configuration built directly keeps whatever value it is
	// given, including zero.
	DrainInterval time.Duration `json:"-"`
}

// LoadConfiguration reads and validates a Configuration from a JSON file at
// path. Any failure is a ConfigError: per spec.md §7, configuration
// failures are fatal at startup.
func LoadConfiguration(path string) (*Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	defer f.Close()

	var cfg Configuration
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	return &cfg, nil
}

func (c *Configuration) applyDefaults() {
	if c.HandshakeRetryInterval == 0 {
		c.HandshakeRetryInterval = 2 * time.Second
	}
	if c.DrainInterval == 0 {
		c.DrainInterval = 5 * time.Second
	}
}

// Validate checks the structural invariants a Configuration must satisfy
// before a ProcessRuntime can be built from it.
func (c *Configuration) Validate() error {
	if c.NumProcesses <= 0 {
		return fmt.Errorf("num_processes must be positive, got %d", c.NumProcesses)
	}
	if len(c.Processes) != c.NumProcesses {
		return fmt.Errorf("expected %d process endpoints, got %d", c.NumProcesses, len(c.Processes))
	}
	if c.MessageRate.MinPerMinute <= 0 || c.MessageRate.MaxPerMinute <= 0 {
		return fmt.Errorf("message_rate bounds must be positive")
	}
	if c.MessageRate.MinPerMinute > c.MessageRate.MaxPerMinute {
		return fmt.Errorf("message_rate.min_per_minute must not exceed max_per_minute")
	}
	return nil
}
