package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/optree/internal/expr"
	"github.com/vk/optree/internal/network"
	"github.com/vk/optree/internal/optree"
	"github.com/vk/optree/internal/param"
	"github.com/vk/optree/internal/plugin"
	"github.com/vk/optree/internal/solver"
	"github.com/vk/optree/internal/symbolic"
)

// twoHop is a flow of interest over s1 and s2 with one single-hop cross
// flow per server.
func twoHop(t *testing.T) *network.NestingNode {
	t.Helper()
	n := network.New()
	s1, err := n.AddServer("s1", 10, 0.1)
	require.NoError(t, err)
	s2, err := n.AddServer("s2", 20, 0.2)
	require.NoError(t, err)
	foi, err := n.AddFlow("foi", 1, 2, "s1", "s2")
	require.NoError(t, err)
	x1, err := n.AddFlow("x1", 2, 1, "s1")
	require.NoError(t, err)
	x2, err := n.AddFlow("x2", 3, 1, "s2")
	require.NoError(t, err)
	return network.FlowNode(foi,
		network.FlowNode(x1, network.ServersNode(s1)),
		network.FlowNode(x2, network.ServersNode(s2)),
	)
}

// twoHopFIFOOptimum is the minimum of
// 0.45 + s1 + s2 + max((2 - 10 s1)/8, (2 - 20 s2)/17, 0), reached at
// s1 = (1/4 - 2/17) * 4/5, s2 = 0.
const twoHopFIFOOptimum = 0.65 + 0.4/17

func fifo() *plugin.Plugin { return plugin.New(plugin.NameFIFO, plugin.FIFO, plugin.NetworkCurves) }

func arbitrary() *plugin.Plugin {
	return plugin.New(plugin.NameArbitrary, plugin.Arbitrary, plugin.NetworkCurves)
}

// concavePlugin gives every server the latency 1 - q^2 with q in [0, 5].
type concavePlugin struct {
	*plugin.Plugin
}

func (c concavePlugin) Name() string { return "concave" }

func (c concavePlugin) ServerTerm(s *network.Server) optree.Derivation {
	q := param.New("q_"+s.Alias, 0)
	return optree.Derivation{
		Term:   symbolic.RateLatency{Rate: expr.Num(s.Rate), Latency: expr.Sub(expr.One, expr.Mul(q.Var(), q.Var()))},
		Params: []param.Parameter{q},
		Bounds: []param.Bound{param.Between(q, 0, 5)},
	}
}

// fakeSolver records what the analysis hands to the solver.
type fakeSolver struct {
	lower, upper []float64
	f            solver.Objective
	grad         solver.Gradient
	calls        int
	outcome      solver.Outcome
	err          error
}

func (s *fakeSolver) SetXTolRel(float64) {}
func (s *fakeSolver) SetMaxEval(int)     {}
func (s *fakeSolver) SetBounds(lower, upper []float64) {
	s.lower, s.upper = lower, upper
}
func (s *fakeSolver) SetObjective(f solver.Objective, grad solver.Gradient) {
	s.f, s.grad = f, grad
}
func (s *fakeSolver) Optimize(_ context.Context, x0 []float64) (solver.Outcome, error) {
	s.calls++
	if s.outcome.X == nil && s.err == nil {
		return solver.Outcome{Status: solver.StatusSuccess, X: x0, Min: s.f(x0), Algorithm: solver.BFGS, Evaluations: 1}, nil
	}
	return s.outcome, s.err
}

func (s *fakeSolver) factory() SolverFactory {
	return func(solver.Config, int) solver.Solver { return s }
}

type recordingObserver struct {
	analyses []string
	solves   []string
	params   []int
}

func (r *recordingObserver) ObserveAnalysis(flow, plugin, status string, _ float64, params int) {
	r.analyses = append(r.analyses, flow+"/"+plugin+"/"+status)
	r.params = append(r.params, params)
}

func (r *recordingObserver) ObserveSolve(algorithm, status string, _ int, _ time.Duration) {
	r.solves = append(r.solves, algorithm+"/"+status)
}
