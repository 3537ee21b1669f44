package solver

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// stallIterations is the number of consecutive major iterations whose step
// must stay within the relative x tolerance before a run stops. Nelder-Mead
// keeps its best vertex for many iterations while the simplex shrinks.
const stallIterations = 20

// xConverge extends gonum's function convergence with a relative tolerance
// on the decision vector. A done context ends the run with RuntimeLimit, a
// trapped panic with Failure.
type xConverge struct {
	optimize.FunctionConverge

	ctx      context.Context
	trap     *trap
	relative float64
	prev     []float64
	still    int
}

func newXConverge(ctx context.Context, t *trap, relative float64) *xConverge {
	return &xConverge{
		FunctionConverge: optimize.FunctionConverge{Absolute: 1e-10, Iterations: 100},
		ctx:              ctx,
		trap:             t,
		relative:         relative,
	}
}

func (c *xConverge) Init(dim int) {
	c.FunctionConverge.Init(dim)
	c.prev = c.prev[:0]
	c.still = 0
}

func (c *xConverge) Converged(loc *optimize.Location) optimize.Status {
	if c.trap != nil {
		if _, ok := c.trap.caught(); ok {
			return optimize.Failure
		}
	}
	if c.ctx.Err() != nil {
		return optimize.RuntimeLimit
	}
	if s := c.FunctionConverge.Converged(loc); s != optimize.NotTerminated {
		return s
	}
	if c.relative <= 0 {
		return optimize.NotTerminated
	}
	if len(c.prev) == len(loc.X) {
		step := floats.Distance(loc.X, c.prev, math.Inf(1))
		if step <= c.relative*floats.Norm(loc.X, math.Inf(1)) {
			c.still++
		} else {
			c.still = 0
		}
	}
	c.prev = append(c.prev[:0], loc.X...)
	if c.still >= stallIterations {
		return optimize.StepConvergence
	}
	return optimize.NotTerminated
}
