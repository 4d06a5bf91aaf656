// Package config loads and validates a worker's configuration: the logical
// grid shape, this worker's rank, and the collective transport.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// validate is a singleton validator instance
var validate = validator.New()

// Transport kinds
const (
	TransportSolo  = "solo"  // single worker, no-op collectives
	TransportLocal = "local" // in-process channel group
	TransportNNG   = "nng"   // NNG bus sockets across processes
)

// Config is a worker's full configuration.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Transport TransportConfig `yaml:"transport"`
	Workers   int             `yaml:"workers" validate:"min=0"` // goroutines per bulk pass; 0 = NumCPU
	LogLevel  string          `yaml:"log_level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

// GridConfig describes the fixed 2D worker grid and this worker's place in it.
type GridConfig struct {
	Rows int `yaml:"rows" validate:"min=1"`
	Cols int `yaml:"cols" validate:"min=1"`
	Rank int `yaml:"rank" validate:"min=0"`
}

// TransportConfig selects and parameterizes the collective transport.
type TransportConfig struct {
	Kind       string   `yaml:"kind" validate:"oneof=solo local nng"`
	ListenAddr string   `yaml:"listen_addr" validate:"omitempty"`
	PeerAddrs  []string `yaml:"peer_addrs" validate:"omitempty,dive,min=1"`
}

// DefaultConfig returns a single-worker configuration.
func DefaultConfig() *Config {
	return &Config{
		Grid:      GridConfig{Rows: 1, Cols: 1, Rank: 0},
		Transport: TransportConfig{Kind: TransportSolo},
		LogLevel:  "info",
	}
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks struct tags plus the cross-field constraints the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("field %s fails %q", f.Namespace(), f.Tag())
		}
		return err
	}

	if c.Grid.Rank >= c.Grid.Rows*c.Grid.Cols {
		return fmt.Errorf("rank %d outside %dx%d grid", c.Grid.Rank, c.Grid.Rows, c.Grid.Cols)
	}
	if c.Transport.Kind == TransportNNG {
		if c.Transport.ListenAddr == "" {
			return errors.New("nng transport requires listen_addr")
		}
	}
	if c.Transport.Kind == TransportSolo && c.Grid.Rows*c.Grid.Cols != 1 {
		return fmt.Errorf("solo transport with %dx%d grid", c.Grid.Rows, c.Grid.Cols)
	}
	return nil
}
