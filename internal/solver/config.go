package solver

import (
	"fmt"
	"math"
)

// Config is the solver configuration of an analysis. It is a value and is
// never modified after construction.
type Config struct {
	Algorithm Algorithm
	// MaxEvals caps objective evaluations per run. Zero or less means
	// unlimited.
	MaxEvals int
	// XTolRel stops a run once the relative change of the decision vector
	// stays below it. Zero disables the criterion.
	XTolRel float64
}

// DefaultConfig returns Meta without an evaluation cap and a relative x
// tolerance of 1e-4.
func DefaultConfig() Config {
	return Config{Algorithm: Meta, MaxEvals: -1, XTolRel: 1e-4}
}

// Validate checks the algorithm and the tolerance.
func (c Config) Validate() error {
	if !c.Algorithm.Valid() {
		return fmt.Errorf("algorithm %d: %w", int(c.Algorithm), ErrUnknownAlgorithm)
	}
	if c.XTolRel < 0 || math.IsNaN(c.XTolRel) || math.IsInf(c.XTolRel, 0) {
		return fmt.Errorf("relative x tolerance must be a finite non-negative number, got %g", c.XTolRel)
	}
	return nil
}

// New returns a solver of dimension dim set up with c.
func (c Config) New(dim int) *Optimizer {
	o := New(c.Algorithm, dim)
	o.SetXTolRel(c.XTolRel)
	o.SetMaxEval(c.MaxEvals)
	return o
}
