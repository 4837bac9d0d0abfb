// Package config holds the simulation parameters for the data-cache model.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config describes the cache geometry and the bus timing.
type Config struct {
	// Sets is the number of cache sets. Default: 64.
	Sets int `json:"sets"`

	// Ways is the associativity. Default: 4.
	Ways int `json:"ways"`

	// LineSize is the cache line size in bytes. Default: 64.
	LineSize int `json:"line_size"`

	// BusAckLatency is the number of cycles a line transfer occupies the
	// bus before the acknowledge pulse. Default: 4 cycles.
	BusAckLatency uint64 `json:"bus_ack_latency"`
}

// DefaultConfig returns a Config with the default cache geometry:
// 16KB, 4-way, 64B lines, 4-cycle bus transfers.
func DefaultConfig() *Config {
	return &Config{
		Sets:          64,
		Ways:          4,
		LineSize:      64,
		BusAckLatency: 4,
	}
}

// LoadConfig loads a Config from a JSON file. Fields absent from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse cache config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}

	return nil
}

// Validate checks that the geometry is usable.
func (c *Config) Validate() error {
	if c.Sets <= 0 {
		return fmt.Errorf("sets must be > 0")
	}
	if c.Ways <= 0 {
		return fmt.Errorf("ways must be > 0")
	}
	if c.LineSize < 8 {
		return fmt.Errorf("line_size must be >= 8")
	}
	if c.LineSize&(c.LineSize-1) != 0 {
		return fmt.Errorf("line_size must be a power of two")
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	return &Config{
		Sets:          c.Sets,
		Ways:          c.Ways,
		LineSize:      c.LineSize,
		BusAckLatency: c.BusAckLatency,
	}
}
