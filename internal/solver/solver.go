package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/vk/optree/internal/ctxlog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

var (
	// ErrNoObjective is returned by Optimize before SetObjective was called.
	ErrNoObjective = errors.New("no objective set")
	// ErrNoGradient is returned when a gradient-based algorithm has no
	// gradient to work with.
	ErrNoGradient = errors.New("gradient-based algorithm without gradient")
	// ErrFailed is returned when a run panicked or produced no finite
	// minimum.
	ErrFailed = errors.New("solver failed")
)

// Objective is the function to minimize.
type Objective func(x []float64) float64

// Gradient writes the gradient of the objective at x into grad.
type Gradient func(grad, x []float64)

// Status is the outcome class of a run.
type Status int

const (
	// StatusSuccess means the method converged.
	StatusSuccess Status = iota
	// StatusStopped means the run ended early, on the evaluation cap or a
	// method error, with a usable best point.
	StatusStopped
	// StatusFailure means no usable point was found.
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusStopped:
		return "stopped"
	case StatusFailure:
		return "failure"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Outcome is the result of Optimize.
type Outcome struct {
	Status Status
	// Min is the objective at X.
	Min float64
	X   []float64
	// Algorithm is the method that produced X. For Meta it is the winning
	// stage.
	Algorithm Algorithm
	// Evaluations counts objective evaluations over all stages.
	Evaluations int
	// Reason is gonum's termination status.
	Reason string
}

// Solver is a box-bounded minimizer.
type Solver interface {
	SetXTolRel(tol float64)
	SetMaxEval(n int)
	SetBounds(lower, upper []float64)
	SetObjective(f Objective, grad Gradient)
	Optimize(ctx context.Context, x0 []float64) (Outcome, error)
}

// Optimizer implements Solver on top of gonum/optimize.
type Optimizer struct {
	alg     Algorithm
	dim     int
	xtol    float64
	maxEval int
	lower   []float64
	upper   []float64
	f       Objective
	grad    Gradient
}

var _ Solver = (*Optimizer)(nil)

// New returns an optimizer for dim parameters. Bounds default to the whole
// space.
func New(alg Algorithm, dim int) *Optimizer {
	if !alg.Valid() {
		panic(fmt.Sprintf("solver: invalid algorithm %s", alg))
	}
	if dim < 1 {
		panic(fmt.Sprintf("solver: dimension must be positive, got %d", dim))
	}
	return &Optimizer{alg: alg, dim: dim}
}

// Algorithm returns the configured algorithm.
func (o *Optimizer) Algorithm() Algorithm { return o.alg }

// SetXTolRel sets the relative tolerance on x. Zero disables it.
func (o *Optimizer) SetXTolRel(tol float64) { o.xtol = tol }

// SetMaxEval caps objective evaluations per run. n <= 0 means unlimited.
func (o *Optimizer) SetMaxEval(n int) { o.maxEval = n }

// SetBounds sets the box. Use ±Inf for open sides.
func (o *Optimizer) SetBounds(lower, upper []float64) {
	if len(lower) != o.dim || len(upper) != o.dim {
		panic(fmt.Sprintf("solver: bounds of length %d and %d for dimension %d", len(lower), len(upper), o.dim))
	}
	newBox(lower, upper, o.dim)
	o.lower = append([]float64(nil), lower...)
	o.upper = append([]float64(nil), upper...)
}

// SetObjective sets the function to minimize and its gradient. grad may be
// nil for derivative-free algorithms.
func (o *Optimizer) SetObjective(f Objective, grad Gradient) {
	o.f, o.grad = f, grad
}

// Optimize minimizes the objective starting from x0, which is projected
// into the box first.
func (o *Optimizer) Optimize(ctx context.Context, x0 []float64) (Outcome, error) {
	if len(x0) != o.dim {
		panic(fmt.Sprintf("solver: initial guess of length %d for dimension %d", len(x0), o.dim))
	}
	if o.f == nil {
		return Outcome{Status: StatusFailure}, ErrNoObjective
	}
	if o.alg != Meta {
		return o.run(ctx, o.alg, x0)
	}
	return o.meta(ctx, x0)
}

// meta runs BFGS, then Nelder-Mead, and keeps the smaller minimum. Ties go
// to BFGS.
func (o *Optimizer) meta(ctx context.Context, x0 []float64) (Outcome, error) {
	logger := ctxlog.FromContext(ctx)
	first, errFirst := o.run(ctx, BFGS, x0)
	second, errSecond := o.run(ctx, NelderMead, x0)
	logger.Debug("Meta algorithm stages finished.",
		"bfgs_min", first.Min, "bfgs_error", errFirst,
		"nelder_mead_min", second.Min, "nelder_mead_error", errSecond)

	evals := first.Evaluations + second.Evaluations
	switch {
	case errFirst != nil && errSecond != nil:
		return Outcome{Status: StatusFailure, Evaluations: evals, Algorithm: Meta}, errors.Join(errFirst, errSecond)
	case errFirst != nil:
		second.Evaluations = evals
		return second, nil
	case errSecond != nil || first.Min <= second.Min:
		first.Evaluations = evals
		return first, nil
	}
	second.Evaluations = evals
	return second, nil
}

func (o *Optimizer) run(ctx context.Context, alg Algorithm, x0 []float64) (out Outcome, err error) {
	logger := ctxlog.FromContext(ctx)
	out = Outcome{Status: StatusFailure, Algorithm: alg, Min: math.Inf(-1)}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Solver panicked.", "algorithm", alg, "panic", r)
			out = Outcome{Status: StatusFailure, Algorithm: alg, Min: math.Inf(-1), Evaluations: out.Evaluations}
			err = fmt.Errorf("%s: %v: %w", alg, r, ErrFailed)
		}
	}()

	// gonum evaluates on goroutines of its own, so panics in the objective
	// or gradient are trapped there and end the run through the converger.
	var t trap
	b := newBox(o.lower, o.upper, o.dim)
	x := make([]float64, o.dim)
	slope := make([]float64, o.dim)
	problem := optimize.Problem{
		Func: func(y []float64) (f float64) {
			defer func() {
				if r := recover(); r != nil {
					t.record(r)
					f = math.NaN()
				}
			}()
			out.Evaluations++
			b.toX(x, nil, y)
			return o.f(x)
		},
	}
	if alg.GradientBased() {
		if o.grad == nil {
			return out, fmt.Errorf("%s: %w", alg, ErrNoGradient)
		}
		problem.Grad = func(grad, y []float64) {
			defer func() {
				if r := recover(); r != nil {
					t.record(r)
					for i := range grad {
						grad[i] = math.NaN()
					}
				}
			}()
			b.toX(x, slope, y)
			o.grad(grad, x)
			floats.Mul(grad, slope)
		}
	}

	logger.Debug("Solver run starting.", "algorithm", alg, "dimension", o.dim, "max_evals", o.maxEval, "xtol_rel", o.xtol)
	res, merr := optimize.Minimize(problem, b.clamp(x0), o.settings(ctx, &t), alg.method())
	if r, ok := t.caught(); ok {
		logger.Error("Solver objective panicked.", "algorithm", alg, "panic", r)
		return out, fmt.Errorf("%s: %v: %w", alg, r, ErrFailed)
	}
	if res == nil {
		return out, fmt.Errorf("%s: %v: %w", alg, merr, ErrFailed)
	}
	if math.IsNaN(res.F) || math.IsInf(res.F, 0) {
		return out, fmt.Errorf("%s: minimum %g (%s): %w", alg, res.F, res.Status, ErrFailed)
	}

	out.X = make([]float64, o.dim)
	b.toX(out.X, nil, res.X)
	out.Min = res.F
	out.Reason = res.Status.String()
	out.Status = StatusSuccess
	if merr != nil || res.Status.Early() {
		out.Status = StatusStopped
		logger.Warn("Solver stopped early.", "algorithm", alg, "reason", res.Status, "error", merr, "evaluations", out.Evaluations)
	}
	logger.Debug("Solver run finished.", "algorithm", alg, "status", out.Status, "min", out.Min, "evaluations", out.Evaluations)
	return out, nil
}

func (o *Optimizer) settings(ctx context.Context, t *trap) *optimize.Settings {
	s := &optimize.Settings{Converger: newXConverge(ctx, t, o.xtol)}
	if t != nil {
		s.Recorder = t
	}
	if o.maxEval > 0 {
		s.FuncEvaluations = o.maxEval
	}
	return s
}
