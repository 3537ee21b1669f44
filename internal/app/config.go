package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/vk/optree/internal/solver"
)

// Defaults applied when neither the command line nor the network file sets
// a value.
const (
	DefaultPlugin = "fifo"
	DefaultOutput = "text"
)

// Config holds all the necessary configuration for an App instance to run.
// Analysis fields left at their zero value fall back to the network file's
// analysis block and then to the defaults.
type Config struct {
	NetworkPath string // hcl file or directory

	Plugin         string
	FlowOfInterest string // empty: every flow with a nesting tree
	Algorithm      string
	MaxEvals       *int
	XTolRel        *float64
	Initial        map[string]float64
	Convexity      bool
	Timeout        time.Duration

	Output      string
	LogFormat   string
	LogLevel    string
	MetricsPort int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.NetworkPath == "" {
		return nil, errors.New("NetworkPath is a required configuration field and cannot be empty")
	}
	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	if cfg.Output != "text" && cfg.Output != "json" {
		return nil, fmt.Errorf("invalid output %q: must be 'text' or 'json'", cfg.Output)
	}
	if cfg.Algorithm != "" {
		if _, err := solver.ParseAlgorithm(cfg.Algorithm); err != nil {
			return nil, err
		}
	}
	if cfg.XTolRel != nil && *cfg.XTolRel < 0 {
		return nil, fmt.Errorf("invalid xtol-rel %g: must not be negative", *cfg.XTolRel)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("invalid timeout %s: must not be negative", cfg.Timeout)
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return nil, fmt.Errorf("invalid metrics port %d", cfg.MetricsPort)
	}
	return &cfg, nil
}
