package analysis

import (
	"math"
	"strings"

	"github.com/vk/optree/internal/param"
	"github.com/vk/optree/internal/plugin"
	"github.com/vk/optree/internal/solver"
)

// Result is the outcome of DelayBound.
type Result struct {
	Flow   string
	Plugin string
	// Bound is the delay at the optimal parameters.
	Bound float64
	// Objective is the minimum reported by the solver. Without free
	// parameters it equals Bound.
	Objective float64
	// Names lists the free parameters in decision-vector order.
	Names []string
	// Params maps parameter names to their optimal values.
	Params    map[string]float64
	Status    solver.Status
	Algorithm solver.Algorithm
	// Evaluations counts objective evaluations by the solver.
	Evaluations int
	// Formula is the symbolic delay.
	Formula string
	// IgnoredConstraints were derived but not enforced by the solver.
	IgnoredConstraints []param.Constraint
}

// Failed reports whether the result is the failure sentinel.
func (r *Result) Failed() bool { return r.Status == solver.StatusFailure }

// ParamsByAlias returns the parameter values keyed by cross-flow alias for
// FIFO parameters and by parameter name otherwise.
func (r *Result) ParamsByAlias() map[string]float64 {
	out := make(map[string]float64, len(r.Params))
	for name, v := range r.Params {
		out[strings.TrimPrefix(name, plugin.ThetaPrefix)] = v
	}
	return out
}

func failed(flow, pluginName string, alg solver.Algorithm, evals int) *Result {
	return &Result{
		Flow:        flow,
		Plugin:      pluginName,
		Bound:       -1,
		Objective:   math.Inf(-1),
		Params:      map[string]float64{},
		Status:      solver.StatusFailure,
		Algorithm:   alg,
		Evaluations: evals,
	}
}
