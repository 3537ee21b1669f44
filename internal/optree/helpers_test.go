package optree

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/optree/internal/network"
	"github.com/vk/optree/internal/param"
	"github.com/vk/optree/internal/symbolic"
)

// fifoPlugin is a minimal FIFO plugin over network curves that counts calls.
type fifoPlugin struct {
	calls       int
	serverParam func(s *network.Server) (param.Parameter, []param.Bound)
}

func (f *fifoPlugin) Name() string { return "test-fifo" }

func (f *fifoPlugin) FlowTerm(fl *network.Flow) Derivation {
	f.calls++
	return Derivation{Term: symbolic.NewTokenBucket(fl.Rate, fl.Burst)}
}

func (f *fifoPlugin) ServerTerm(s *network.Server) Derivation {
	f.calls++
	d := Derivation{Term: symbolic.NewRateLatency(s.Rate, s.Latency)}
	if f.serverParam != nil {
		p, bounds := f.serverParam(s)
		d.Params = []param.Parameter{p}
		d.Bounds = bounds
	}
	return d
}

func (f *fifoPlugin) OperatorTerm(op Op, left, right symbolic.Term, cross *network.Flow) Derivation {
	f.calls++
	switch op {
	case OpH:
		return Derivation{Term: symbolic.H(right, left)}
	case OpConvolution:
		return Derivation{Term: symbolic.Convolution(left, right)}
	case OpLeftover:
		theta := param.New("s_"+cross.Alias, 0)
		return Derivation{
			Term:   symbolic.FIFOLeftover(left, right, theta.Var()),
			Params: []param.Parameter{theta},
			Bounds: []param.Bound{param.LowerBounded(theta, 0)},
		}
	}
	panic("unreachable")
}

func (f *fifoPlugin) DeriveConstraints(*Node) []param.Constraint { return nil }

type fixture struct {
	net        *network.Network
	s1, s2, s3 *network.Server
	foi        *network.Flow
	x1, x2     *network.Flow
}

// newFixture returns three servers, a flow of interest over s1 and s2 and
// one single-hop cross flow on each of them.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	n := network.New()
	fx := &fixture{net: n}
	var err error
	fx.s1, err = n.AddServer("s1", 10, 0.1)
	require.NoError(t, err)
	fx.s2, err = n.AddServer("s2", 20, 0.2)
	require.NoError(t, err)
	fx.s3, err = n.AddServer("s3", 30, 0.3)
	require.NoError(t, err)
	fx.foi, err = n.AddFlow("foi", 1, 2, "s1", "s2")
	require.NoError(t, err)
	fx.x1, err = n.AddFlow("x1", 2, 1, "s1")
	require.NoError(t, err)
	fx.x2, err = n.AddFlow("x2", 3, 1, "s2")
	require.NoError(t, err)
	return fx
}

// twoHop nests one single-hop cross flow per server under the foi.
func (fx *fixture) twoHop() *network.NestingNode {
	return network.FlowNode(fx.foi,
		network.FlowNode(fx.x1, network.ServersNode(fx.s1)),
		network.FlowNode(fx.x2, network.ServersNode(fx.s2)),
	)
}

func kinds(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.String()
	}
	return out
}
