package plugin

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/optree/internal/expr"
	"github.com/vk/optree/internal/network"
	"github.com/vk/optree/internal/optree"
	"github.com/vk/optree/internal/param"
	"github.com/vk/optree/internal/registry"
	"github.com/vk/optree/internal/symbolic"
)

// twoHop returns the nesting of a flow over s1 and s2 with one single-hop
// cross flow on each server.
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
	require.NoError(t, n.Validate())
	return network.FlowNode(foi,
		network.FlowNode(x1, network.ServersNode(s1)),
		network.FlowNode(x2, network.ServersNode(s2)),
	)
}

func TestLeftoverParameters(t *testing.T) {
	service := symbolic.NewRateLatency(10, 0.1)
	arrival := symbolic.NewTokenBucket(2, 1)
	cross := &network.Flow{ID: 3, Alias: "x1"}

	t.Run("arbitrary adds none", func(t *testing.T) {
		d := New("a", Arbitrary, NetworkCurves).OperatorTerm(optree.OpLeftover, service, arrival, cross)
		assert.Empty(t, d.Params)
		assert.Empty(t, d.Bounds)
		rl, ok := d.Term.(symbolic.RateLatency)
		require.True(t, ok)
		assert.InDelta(t, 8, rl.Rate.Eval(nil), 1e-12)
		assert.InDelta(t, 0.25, rl.Latency.Eval(nil), 1e-12)
	})

	t.Run("fifo adds theta named after the cross flow", func(t *testing.T) {
		d := New("f", FIFO, NetworkCurves).OperatorTerm(optree.OpLeftover, service, arrival, cross)
		require.Len(t, d.Params, 1)
		assert.Equal(t, param.New("s_x1", 0), d.Params[0])
		require.Len(t, d.Bounds, 1)
		lo, hi := d.Bounds[0].Box()
		assert.Equal(t, 0.0, lo)
		assert.True(t, math.IsInf(hi, 1))
		assert.Equal(t, []string{"s_x1"}, d.Term.Vars())
	})

	t.Run("fifo without cross flow", func(t *testing.T) {
		p := New("f", FIFO, NetworkCurves)
		assert.Panics(t, func() { p.OperatorTerm(optree.OpLeftover, service, arrival, nil) })
	})
}

func TestConvolutionIsCommutative(t *testing.T) {
	p := New("a", Arbitrary, NetworkCurves)
	a := symbolic.NewRateLatency(10, 0.1)
	b := symbolic.NewRateLatency(7, 0.4)

	ab := p.OperatorTerm(optree.OpConvolution, a, b, nil).Term.(symbolic.RateLatency)
	ba := p.OperatorTerm(optree.OpConvolution, b, a, nil).Term.(symbolic.RateLatency)
	assert.InDelta(t, ab.Rate.Eval(nil), ba.Rate.Eval(nil), 1e-12)
	assert.InDelta(t, ab.Latency.Eval(nil), ba.Latency.Eval(nil), 1e-12)
}

func TestDerivationPerPlugin(t *testing.T) {
	tests := []struct {
		name        string
		plugin      *Plugin
		params      []string
		env         expr.Env
		want        float64
		constraints int
	}{
		{
			name:   "arbitrary over network curves",
			plugin: New(NameArbitrary, Arbitrary, NetworkCurves),
			// RL(8, 0.25) * RL(17, 5/17), then 2/8.
			want: 0.25 + 0.25 + 5.0/17,
		},
		{
			name:   "fifo over network curves",
			plugin: New(NameFIFO, FIFO, NetworkCurves),
			params: []string{"s_x1", "s_x2"},
			env:    expr.Env{"s_x1": 0, "s_x2": 0},
			want:   0.7,
		},
		{
			name:   "synthetic fifo",
			plugin: New(NameSyntheticFIFO, FIFO, SyntheticFIFO),
			params: []string{"s_x1", "s_x2"},
			env:    expr.Env{"s_x1": 0, "s_x2": 0},
			// Latencies 1 + 1/5 and 2 + 2/6, foi burst 0.
			want: 1.2 + 2 + 1.0/3,
		},
		{
			name:        "synthetic arbitrary",
			plugin:      New(NameSyntheticArbitrary, Arbitrary, SyntheticArbitrary),
			params:      []string{"L_0", "L_1"},
			env:         expr.Env{"L_0": 1, "L_1": 1},
			want:        13,
			constraints: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := optree.Build(twoHop(t))
			sym := tree.DeriveSymbolics(tt.plugin)

			if len(tt.params) == 0 {
				assert.Empty(t, sym.Params.Names())
			} else {
				assert.Equal(t, tt.params, sym.Params.Names())
			}
			assert.InDelta(t, tt.want, sym.Objective.Eval(tt.env), 1e-12)
			assert.Len(t, sym.Params.Constraints, tt.constraints)
		})
	}
}

func TestSyntheticArbitraryConstraintOnRootOnly(t *testing.T) {
	tree := optree.Build(twoHop(t))
	sym := tree.DeriveSymbolics(New(NameSyntheticArbitrary, Arbitrary, SyntheticArbitrary))

	require.Len(t, sym.Params.Constraints, 1)
	c := sym.Params.Constraints[0]
	assert.Equal(t, param.INEQ, c.Type)
	// 8 + 3 L_0 + 2 L_1 - 5/3
	assert.InDelta(t, 13-5.0/3, c.Term.Eval(expr.Env{"L_0": 1, "L_1": 1}), 1e-12)
	assert.True(t, c.Satisfied(expr.Env{"L_0": 0, "L_1": 0}, 0))

	tree.Walk(func(n *optree.Node, _ int) bool {
		if n.Kind() != optree.KindDelay {
			assert.Empty(t, n.LocalParameters().Constraints, "node %s", n)
		}
		return true
	})

	for _, name := range []string{"L_0", "L_1"} {
		b := sym.Params.BoundOf(name)
		require.NotNil(t, b, name)
		assert.Equal(t, 1.0, b.Param.Initial)
		assert.Equal(t, 0.0, b.LowerOr(math.NaN()))
	}
}

func TestPluginIdentityTriggersRederivation(t *testing.T) {
	tree := optree.Build(twoHop(t))
	tree.DeriveSymbolics(New(NameFIFO, FIFO, NetworkCurves))

	sym := tree.DeriveSymbolics(New(NameArbitrary, Arbitrary, NetworkCurves))
	assert.Empty(t, sym.Params.Names())
	assert.InDelta(t, 0.5+5.0/17, sym.Objective.Eval(nil), 1e-12)
}

func TestModuleRegistersAllPlugins(t *testing.T) {
	reg := registry.New()
	(&Module{}).Register(reg)

	assert.Equal(t, []string{NameArbitrary, NameFIFO, NameSyntheticArbitrary, NameSyntheticFIFO}, reg.Names())
	require.NoError(t, reg.ValidateRegistry(context.Background()))

	p, err := reg.Plugin(NameFIFO)
	require.NoError(t, err)
	fifo, ok := p.(*Plugin)
	require.True(t, ok)
	assert.Equal(t, FIFO, fifo.Discipline())
	assert.Equal(t, NetworkCurves, fifo.Curves())
	assert.Equal(t, "fifo (fifo, network)", fifo.String())
}
