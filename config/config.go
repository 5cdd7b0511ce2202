package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/gridplan/core/metrics"
)

// Config is the application configuration. Scenario files are loaded
// separately with LoadScenario.
type Config struct {
	Metrics metrics.Config `json:"metrics"`
	Solver  SolverConfig   `json:"solver"`
}

// SolverConfig tunes the LP backend.
type SolverConfig struct {
	// Tolerance is the simplex pivot tolerance.
	Tolerance float64 `json:"tolerance"`
	// TimeLimitSeconds bounds a single solve; zero disables the limit.
	TimeLimitSeconds int `json:"time_limit_seconds"`
}

// SetDefaults applies sane defaults.
func (c *SolverConfig) SetDefaults() {
	if c.Tolerance == 0 {
		c.Tolerance = 1e-7
	}
}

// Validate checks mandatory fields.
func (c SolverConfig) Validate() error {
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %v", c.Tolerance)
	}
	if c.TimeLimitSeconds < 0 {
		return fmt.Errorf("time limit must be >= 0, got %d", c.TimeLimitSeconds)
	}
	return nil
}

// Default returns the built-in configuration used when no config file is
// supplied.
func Default() *Config {
	var cfg Config
	cfg.Solver.SetDefaults()
	cfg.Metrics.SetDefaults()
	return &cfg
}

// Load reads a yaml or json configuration file with optional GP_ environment
// overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("GP_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "gp_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Solver.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Solver.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
}
