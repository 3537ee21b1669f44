package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/vk/optree/internal/ctxlog"
	"github.com/vk/optree/internal/expr"
	"github.com/vk/optree/internal/network"
	"github.com/vk/optree/internal/optree"
	"github.com/vk/optree/internal/param"
	"github.com/vk/optree/internal/plugin"
	"github.com/vk/optree/internal/solver"
)

// ErrUnknownParameter is returned by InitialGuessFromAliases for values
// that name no free parameter.
var ErrUnknownParameter = errors.New("unknown parameter")

// Observer receives analysis and solver measurements.
type Observer interface {
	ObserveAnalysis(flow, plugin, status string, bound float64, params int)
	ObserveSolve(algorithm, status string, evaluations int, elapsed time.Duration)
}

// SolverFactory creates the solver of one analysis run.
type SolverFactory func(cfg solver.Config, dim int) solver.Solver

// Option configures an Analysis.
type Option func(*Analysis)

// WithObserver reports measurements to o.
func WithObserver(o Observer) Option {
	return func(a *Analysis) { a.observer = o }
}

// WithSolverFactory replaces the gonum-backed solver.
func WithSolverFactory(f SolverFactory) Option {
	return func(a *Analysis) { a.newSolver = f }
}

// WithSeed fixes the random source of the convexity diagnostic.
func WithSeed(seed uint64) Option {
	return func(a *Analysis) { a.seed = seed }
}

// Analysis computes delay bounds for one flow of interest. It keeps the
// operator tree between calls, so deriving with the same plugin again
// reuses the previous derivation. An Analysis is not safe for concurrent use.
type Analysis struct {
	foi       *network.NestingNode
	cfg       solver.Config
	observer  Observer
	newSolver SolverFactory
	seed      uint64
	tree      *optree.Tree
}

// New returns an analysis of the flow held by the root of foi.
func New(foi *network.NestingNode, cfg solver.Config, opts ...Option) *Analysis {
	if foi == nil || !foi.IsFlow() {
		panic("analysis: the nesting root must hold the flow of interest")
	}
	a := &Analysis{
		foi:       foi,
		cfg:       cfg,
		observer:  nopObserver{},
		newSolver: func(cfg solver.Config, dim int) solver.Solver { return cfg.New(dim) },
		seed:      uint64(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Flow returns the flow of interest.
func (a *Analysis) Flow() *network.Flow { return a.foi.Flow }

// Config returns the solver configuration.
func (a *Analysis) Config() solver.Config { return a.cfg }

// Tree returns the operator tree, building it on first use.
func (a *Analysis) Tree() *optree.Tree {
	if a.tree == nil {
		a.tree = optree.Build(a.foi)
	}
	return a.tree
}

// Symbolics derives the tree with p.
func (a *Analysis) Symbolics(p optree.Plugin) optree.Symbolics {
	return a.Tree().DeriveSymbolics(p)
}

// Evaluate returns the delay derived with p at the given parameter values,
// in decision-vector order.
func (a *Analysis) Evaluate(p optree.Plugin, values []float64) float64 {
	sym := a.Symbolics(p)
	return sym.Objective.Eval(envOf(sym.Params.Names(), values))
}

// DelayBound derives the delay of the flow of interest with p and minimizes
// it over the free parameters, starting from initialGuess. A nil guess
// starts from the parameters' initial values. A guess of the wrong length is
// a contract violation.
//
// Solver failures do not return an error: they are logged and yield the
// failure sentinel (Status failure, Bound -1, Objective -Inf). The error is
// reserved for a context that is done before the run starts.
func (a *Analysis) DelayBound(ctx context.Context, p optree.Plugin, initialGuess []float64) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = ctxlog.With(ctx, "flow", a.foi.Flow.Alias, "plugin", p.Name())
	logger := ctxlog.FromContext(ctx)

	tree := a.Tree()
	logger.Debug("Operator tree ready.", "nodes", tree.MaxID()+1)
	sym := tree.DeriveSymbolics(p)
	names := sym.Params.Names()
	logger.Debug("Symbolic delay derived.", "parameters", names, "constraints", len(sym.Params.Constraints))

	res := a.solve(ctx, logger, sym, initialGuess)
	res.Flow, res.Plugin = a.foi.Flow.Alias, p.Name()
	a.observer.ObserveAnalysis(res.Flow, res.Plugin, res.Status.String(), res.Bound, len(names))
	return res, nil
}

func (a *Analysis) solve(ctx context.Context, logger *slog.Logger, sym optree.Symbolics, guess []float64) *Result {
	names := sym.Params.Names()
	if guess == nil {
		guess = sym.Params.Initial()
	}
	if len(guess) != len(names) {
		panic(fmt.Sprintf("analysis: initial guess of length %d for %d parameters", len(guess), len(names)))
	}

	if len(names) == 0 {
		bound := sym.Objective.Eval(expr.Env{})
		logger.Debug("No free parameters, delay evaluated directly.", "bound", bound)
		return &Result{
			Bound:     bound,
			Objective: bound,
			Params:    map[string]float64{},
			Status:    solver.StatusSuccess,
			Formula:   sym.Objective.String(),
		}
	}

	if n := len(sym.Params.Constraints); n > 0 {
		logger.Warn("Derived constraints are not enforced by the solver.", "count", n)
	}

	objective := sym.Objective.Value
	env := make(expr.Env, len(names))
	load := func(x []float64) {
		for i, name := range names {
			env[name] = x[i]
		}
	}
	f := func(x []float64) float64 {
		load(x)
		return objective.Eval(env)
	}
	var grad solver.Gradient
	if a.cfg.Algorithm.GradientBased() {
		jacobian := make([]expr.Expr, len(names))
		for i, name := range names {
			jacobian[i] = objective.Diff(name)
		}
		grad = func(g, x []float64) {
			load(x)
			for i, d := range jacobian {
				g[i] = d.Eval(env)
			}
		}
	}

	s := a.newSolver(a.cfg, len(names))
	lower, upper := sym.Params.Box()
	s.SetBounds(lower, upper)
	s.SetObjective(f, grad)

	start := time.Now()
	out, err := s.Optimize(ctx, guess)
	a.observer.ObserveSolve(out.Algorithm.String(), out.Status.String(), out.Evaluations, time.Since(start))
	if err != nil || out.Status == solver.StatusFailure {
		logger.Error("Solver failed, reporting the failure sentinel.", "algorithm", a.cfg.Algorithm, "error", err)
		res := failed("", "", out.Algorithm, out.Evaluations)
		res.Names, res.Formula = names, sym.Objective.String()
		return res
	}

	bound := sym.Objective.Eval(envOf(names, out.X))
	params := make(map[string]float64, len(names))
	for i, name := range names {
		params[name] = out.X[i]
	}
	logger.Debug("Solver finished.", "algorithm", out.Algorithm, "status", out.Status, "bound", bound, "evaluations", out.Evaluations)
	return &Result{
		Bound:              bound,
		Objective:          out.Min,
		Names:              names,
		Params:             params,
		Status:             out.Status,
		Algorithm:          out.Algorithm,
		Evaluations:        out.Evaluations,
		Formula:            sym.Objective.String(),
		IgnoredConstraints: append([]param.Constraint(nil), sym.Params.Constraints...),
	}
}

// InitialGuessFromAliases builds an initial guess for params. Values are
// keyed by parameter name or, for FIFO parameters, by cross-flow alias;
// parameters without a value keep their initial value.
func InitialGuessFromAliases(params param.Set, values map[string]float64) ([]float64, error) {
	guess := params.Initial()
	index := make(map[string]int, 2*params.Len())
	for i, name := range params.Names() {
		index[name] = i
		if alias, ok := strings.CutPrefix(name, plugin.ThetaPrefix); ok {
			index[alias] = i
		}
	}

	var unknown []string
	for key, v := range values {
		i, ok := index[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		guess[i] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%s (free parameters: %s): %w",
			strings.Join(unknown, ", "), strings.Join(params.Names(), ", "), ErrUnknownParameter)
	}
	return guess, nil
}

func envOf(names []string, values []float64) expr.Env {
	if len(values) != len(names) {
		panic(fmt.Sprintf("analysis: %d values for %d parameters", len(values), len(names)))
	}
	env := make(expr.Env, len(names))
	for i, name := range names {
		env[name] = values[i]
	}
	return env
}

type nopObserver struct{}

func (nopObserver) ObserveAnalysis(string, string, string, float64, int) {}
func (nopObserver) ObserveSolve(string, string, int, time.Duration)      {}
