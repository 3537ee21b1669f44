package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/optree/internal/analysis"
	"github.com/vk/optree/internal/config"
	"github.com/vk/optree/internal/ctxlog"
	"github.com/vk/optree/internal/optree"
	"github.com/vk/optree/internal/param"
	"github.com/vk/optree/internal/plugin"
	"github.com/vk/optree/internal/solver"
)

var (
	// ErrTimeout is returned by Run when an analysis exceeds the configured
	// timeout.
	ErrTimeout = errors.New("analysis timed out")
	// ErrDerivation is returned by Run when a plugin cannot derive the delay
	// of a flow.
	ErrDerivation = errors.New("derivation failed")
)

// settings is the effective analysis configuration after merging the
// command line, the network file and the defaults.
type settings struct {
	plugin  optree.Plugin
	solver  solver.Config
	flows   []string
	initial map[string]float64
}

// Run analyzes every selected flow of interest and writes the report.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.startServer(); err != nil {
		return err
	}
	defer a.closeServer()

	s, err := a.resolve()
	if err != nil {
		return err
	}
	a.logger.Info("Analysis configured.",
		"plugin", s.plugin.Name(), "algorithm", s.solver.Algorithm,
		"max_evals", s.solver.MaxEvals, "xtol_rel", s.solver.XTolRel, "flows", s.flows)

	a.logger.Info("🚀 Starting delay analysis...")
	reports := make([]flowReport, 0, len(s.flows))
	for _, alias := range s.flows {
		r, err := a.analyze(ctx, s, alias)
		if err != nil {
			return err
		}
		reports = append(reports, r)
	}
	a.logger.Info("🏁 Delay analysis finished.", "flows", len(reports))

	if err := writeReport(a.outW, a.config.Output, reports); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// resolve merges the command line with the network file's analysis block.
// The command line wins.
func (a *App) resolve() (*settings, error) {
	defaults := a.model.Analysis
	if defaults == nil {
		defaults = &config.Analysis{}
	}

	name := firstNonEmpty(a.config.Plugin, defaults.Plugin, DefaultPlugin)
	p, err := a.registry.Plugin(name)
	if err != nil {
		return nil, err
	}

	cfg := solver.DefaultConfig()
	if alg := firstNonEmpty(a.config.Algorithm, defaults.Algorithm); alg != "" {
		if cfg.Algorithm, err = solver.ParseAlgorithm(alg); err != nil {
			return nil, err
		}
	}
	switch {
	case a.config.MaxEvals != nil:
		cfg.MaxEvals = *a.config.MaxEvals
	case defaults.MaxEvals != nil:
		cfg.MaxEvals = *defaults.MaxEvals
	}
	switch {
	case a.config.XTolRel != nil:
		cfg.XTolRel = *a.config.XTolRel
	case defaults.XTolRel != nil:
		cfg.XTolRel = *defaults.XTolRel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	flows := a.model.FlowsOfInterest()
	if foi := firstNonEmpty(a.config.FlowOfInterest, defaults.FlowOfInterest); foi != "" {
		if _, ok := a.model.Nestings[foi]; !ok {
			return nil, fmt.Errorf("flow of interest %q has no nesting tree (available: %s)", foi, strings.Join(flows, ", "))
		}
		flows = []string{foi}
	}
	if len(flows) == 0 {
		return nil, errors.New("no flow of interest: the network defines no nesting tree")
	}

	initial := make(map[string]float64, len(defaults.Initial)+len(a.config.Initial))
	for k, v := range defaults.Initial {
		initial[k] = v
	}
	for k, v := range a.config.Initial {
		initial[k] = v
	}
	return &settings{plugin: p, solver: cfg, flows: flows, initial: initial}, nil
}

// analyze runs the delay analysis of one flow under the configured timeout.
func (a *App) analyze(ctx context.Context, s *settings, alias string) (flowReport, error) {
	logger := a.logger.With("flow", alias)
	root, err := a.network.Nesting(a.model.Nestings[alias])
	if err != nil {
		return flowReport{}, fmt.Errorf("flow %q: %w", alias, err)
	}
	an := analysis.New(root, s.solver, analysis.WithObserver(a.metrics))
	sym, err := derive(an, s.plugin)
	if err != nil {
		return flowReport{}, fmt.Errorf("flow %q: %w", alias, err)
	}
	logger.Debug("Operator tree derived.", "tree", an.Tree().String())

	// With a single flow every initial value must name one of its
	// parameters. Several flows share the values, so each takes its own.
	values := s.initial
	if len(s.flows) > 1 {
		values = relevant(sym.Params, s.initial)
	}
	guess, err := analysis.InitialGuessFromAliases(sym.Params, values)
	if err != nil {
		return flowReport{}, fmt.Errorf("flow %q: initial values: %w", alias, err)
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if a.config.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, a.config.Timeout)
	}
	defer cancel()

	type outcome struct {
		res *analysis.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("flow %q: analysis panicked: %v", alias, r)}
			}
		}()
		res, err := an.DelayBound(runCtx, s.plugin, guess)
		done <- outcome{res: res, err: err}
	}()

	var res *analysis.Result
	select {
	case o := <-done:
		if o.err != nil {
			return flowReport{}, o.err
		}
		res = o.res
	case <-runCtx.Done():
		if ctx.Err() != nil {
			return flowReport{}, ctx.Err()
		}
		return flowReport{}, fmt.Errorf("flow %q after %s: %w", alias, a.config.Timeout, ErrTimeout)
	}
	if res.Failed() {
		logger.Error("Delay analysis failed.", "algorithm", res.Algorithm)
	} else {
		logger.Info("Delay bound computed.", "bound", res.Bound, "status", res.Status, "algorithm", res.Algorithm)
	}

	report := newFlowReport(res)
	if a.config.Convexity {
		convex := an.Convex(ctx, s.plugin)
		logger.Info("Convexity diagnostic finished.", "convex", convex)
		report.Convex = &convex
	}
	return report, nil
}

// derive builds and derives the operator tree, turning contract panics of
// the plugin or the tree into ErrDerivation.
func derive(an *analysis.Analysis, p optree.Plugin) (sym optree.Symbolics, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin %q: %v: %w", p.Name(), r, ErrDerivation)
		}
	}()
	return an.Symbolics(p), nil
}

// relevant keeps the values addressed to a parameter of params.
func relevant(params param.Set, values map[string]float64) map[string]float64 {
	known := make(map[string]bool, 2*params.Len())
	for _, name := range params.Names() {
		known[name] = true
		known[strings.TrimPrefix(name, plugin.ThetaPrefix)] = true
	}
	out := make(map[string]float64, len(values))
	for k, v := range values {
		if known[k] {
			out[k] = v
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
