package plugin

import (
	"fmt"
	"strconv"

	"github.com/vk/optree/internal/expr"
	"github.com/vk/optree/internal/network"
	"github.com/vk/optree/internal/optree"
	"github.com/vk/optree/internal/param"
	"github.com/vk/optree/internal/symbolic"
)

// CurveSource decides the curves of flow and server leaves.
type CurveSource int

const (
	// NetworkCurves reads rate, burst and latency from the network.
	NetworkCurves CurveSource = iota
	// SyntheticArbitrary uses flow TB(id+1, 2(id+1)) and server
	// RL(3(id+1), L_id) with a free latency L_id >= 0.
	SyntheticArbitrary
	// SyntheticFIFO uses flow TB(id+1, id) and server RL(id+5, id+1).
	SyntheticFIFO
)

// syntheticDelayFloor is the lower limit the synthetic arbitrary source
// puts on the delay through its root constraint.
const syntheticDelayFloor = 5.0 / 3

// latencyPrefix names the free latency of a synthetic arbitrary server.
const latencyPrefix = "L_"

func (c CurveSource) String() string {
	switch c {
	case NetworkCurves:
		return "network"
	case SyntheticArbitrary:
		return "synthetic-arbitrary"
	case SyntheticFIFO:
		return "synthetic-fifo"
	}
	return fmt.Sprintf("CurveSource(%d)", int(c))
}

func (c CurveSource) flow(f *network.Flow) optree.Derivation {
	id := float64(f.ID)
	switch c {
	case NetworkCurves:
		return optree.Derivation{Term: symbolic.NewTokenBucket(f.Rate, f.Burst)}
	case SyntheticArbitrary:
		return optree.Derivation{Term: symbolic.NewTokenBucket(id+1, 2*(id+1))}
	case SyntheticFIFO:
		return optree.Derivation{Term: symbolic.NewTokenBucket(id+1, id)}
	}
	panic(fmt.Sprintf("plugin: unsupported curve source %s", c))
}

func (c CurveSource) server(s *network.Server) optree.Derivation {
	id := float64(s.ID)
	switch c {
	case NetworkCurves:
		return optree.Derivation{Term: symbolic.NewRateLatency(s.Rate, s.Latency)}
	case SyntheticArbitrary:
		l := param.New(latencyPrefix+strconv.Itoa(s.ID), 1)
		return optree.Derivation{
			Term:   symbolic.RateLatency{Rate: expr.Num(3 * (id + 1)), Latency: l.Var()},
			Params: []param.Parameter{l},
			Bounds: []param.Bound{param.LowerBounded(l, 0)},
		}
	case SyntheticFIFO:
		return optree.Derivation{Term: symbolic.NewRateLatency(id+5, id+1)}
	}
	panic(fmt.Sprintf("plugin: unsupported curve source %s", c))
}
