// Package bench is the external C9 collaborator: a demo/benchmark harness
// that drives the rsbd8 core over pseudo-random input and reports timing.
// None of this package is part of the core's contract (§1, §9); it exists
// to give cmd/rsbd8bench something to run.
package bench

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes one benchmark run, loaded from a YAML file the way the
// harness's config layer does (mirroring the core repo's config.go, which
// also loads its settings from a single YAML/JSON document).
type Config struct {
	Seed      uint64 `yaml:"seed"`
	N         int    `yaml:"n"`
	Direction string `yaml:"direction"` // "asc-fwd", "asc-rev", "desc-fwd", "desc-rev"
	Mode      string `yaml:"mode"`      // "auto", "force-unsigned", "force-signed", "force-float"
	Repeats   int    `yaml:"repeats"`
	PageHint  int    `yaml:"page_hint"` // 0 lets the allocator choose; otherwise must be a power of two
}

// LoadConfig reads and validates a benchmark config file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return &cfg, nil
}

// Validate rejects a config that can't be run.
func (c *Config) Validate() error {
	if c.N < 0 {
		return fmt.Errorf("n must be >= 0")
	}
	if c.Repeats <= 0 {
		return fmt.Errorf("repeats must be >= 1")
	}
	switch c.Direction {
	case "", "asc-fwd", "asc-rev", "desc-fwd", "desc-rev":
	default:
		return fmt.Errorf("unrecognized direction %q", c.Direction)
	}
	switch c.Mode {
	case "", "auto", "force-unsigned", "force-signed", "force-float":
	default:
		return fmt.Errorf("unrecognized mode %q", c.Mode)
	}
	if c.PageHint != 0 && c.PageHint&(c.PageHint-1) != 0 {
		return fmt.Errorf("page_hint must be 0 or a power of two, got %d", c.PageHint)
	}
	return nil
}
