package plugin

import (
	"fmt"

	"github.com/vk/optree/internal/expr"
	"github.com/vk/optree/internal/network"
	"github.com/vk/optree/internal/optree"
	"github.com/vk/optree/internal/param"
	"github.com/vk/optree/internal/symbolic"
)

// ThetaPrefix prefixes the alias of a cross flow to name its FIFO parameter.
const ThetaPrefix = "s_"

// Discipline is the multiplexing discipline at every server.
type Discipline int

const (
	Arbitrary Discipline = iota
	FIFO
)

func (d Discipline) String() string {
	switch d {
	case Arbitrary:
		return "arbitrary"
	case FIFO:
		return "fifo"
	}
	return fmt.Sprintf("Discipline(%d)", int(d))
}

// Plugin derives terms for one discipline and curve source. Every value
// returned by New is a distinct plugin for the purpose of tree caching.
type Plugin struct {
	name       string
	discipline Discipline
	curves     CurveSource
}

var _ optree.Plugin = (*Plugin)(nil)

// New returns a plugin with the given name.
func New(name string, d Discipline, c CurveSource) *Plugin {
	return &Plugin{name: name, discipline: d, curves: c}
}

func (p *Plugin) Name() string { return p.name }

// Discipline returns the multiplexing discipline of the plugin.
func (p *Plugin) Discipline() Discipline { return p.discipline }

// Curves returns the curve source of the plugin.
func (p *Plugin) Curves() CurveSource { return p.curves }

func (p *Plugin) FlowTerm(f *network.Flow) optree.Derivation {
	return p.curves.flow(f)
}

func (p *Plugin) ServerTerm(s *network.Server) optree.Derivation {
	return p.curves.server(s)
}

func (p *Plugin) OperatorTerm(op optree.Op, left, right symbolic.Term, cross *network.Flow) optree.Derivation {
	switch op {
	case optree.OpH:
		return optree.Derivation{Term: symbolic.H(right, left)}
	case optree.OpConvolution:
		return optree.Derivation{Term: symbolic.Convolution(left, right)}
	case optree.OpLeftover:
		return p.leftover(left, right, cross)
	}
	panic(fmt.Sprintf("plugin: unsupported operator %s", op))
}

func (p *Plugin) leftover(service, arrival symbolic.Term, cross *network.Flow) optree.Derivation {
	switch p.discipline {
	case Arbitrary:
		return optree.Derivation{Term: symbolic.ArbitraryLeftover(service, arrival)}
	case FIFO:
		if cross == nil {
			panic("plugin: FIFO leftover needs a cross flow")
		}
		theta := param.New(ThetaPrefix+cross.Alias, 0)
		return optree.Derivation{
			Term:   symbolic.FIFOLeftover(service, arrival, theta.Var()),
			Params: []param.Parameter{theta},
			Bounds: []param.Bound{param.LowerBounded(theta, 0)},
		}
	}
	panic(fmt.Sprintf("plugin: unsupported discipline %s", p.discipline))
}

// DeriveConstraints adds the root constraint of the synthetic arbitrary
// source. Other combinations add none.
func (p *Plugin) DeriveConstraints(n *optree.Node) []param.Constraint {
	if p.curves != SyntheticArbitrary || n.Kind() != optree.KindDelay {
		return nil
	}
	d, ok := n.Term().(symbolic.Delay)
	if !ok {
		return nil
	}
	return []param.Constraint{{
		Type: param.INEQ,
		Term: expr.Sub(d.Value, expr.Num(syntheticDelayFloor)),
	}}
}

func (p *Plugin) String() string {
	return fmt.Sprintf("%s (%s, %s)", p.name, p.discipline, p.curves)
}
