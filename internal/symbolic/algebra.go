package symbolic

import (
	"fmt"

	"github.com/vk/optree/internal/expr"
)

// H returns the horizontal deviation between a token-bucket arrival curve and
// a service curve, i.e. the delay bound of the flow.
func H(arrival, service Term) Delay {
	a := asArrival("H", arrival)
	switch s := service.(type) {
	case RateLatency:
		return Delay{Value: expr.Add(expr.Div(a.Burst, s.Rate), s.Latency)}
	case PseudoAffine, TokenBucket:
		pa, _ := AsPseudoAffine(s)
		return Delay{Value: expr.Add(pa.Latency, maxStages(a.Burst, pa.Stages))}
	case Delay:
		panic(unsupported("H", arrival, service))
	}
	panic(unsupported("H", arrival, service))
}

// Convolution returns the min-plus convolution of two service curves.
func Convolution(a, b Term) Term {
	switch x := a.(type) {
	case RateLatency:
		if y, ok := b.(RateLatency); ok {
			return RateLatency{Rate: expr.Min(x.Rate, y.Rate), Latency: expr.Add(x.Latency, y.Latency)}
		}
	case PseudoAffine, TokenBucket:
	case Delay:
		panic(unsupported("Convolution", a, b))
	default:
		panic(unsupported("Convolution", a, b))
	}
	left, lok := AsPseudoAffine(a)
	right, rok := AsPseudoAffine(b)
	if !lok || !rok {
		panic(unsupported("Convolution", a, b))
	}
	stages := make([]TokenBucket, 0, len(left.Stages)+len(right.Stages))
	stages = append(stages, left.Stages...)
	stages = append(stages, right.Stages...)
	return PseudoAffine{Latency: expr.Add(left.Latency, right.Latency), Stages: stages}
}

// ArbitraryLeftover returns the service left to a flow by a server that
// serves the cross traffic in arbitrary order.
func ArbitraryLeftover(service, arrival Term) Term {
	a := asArrival("ArbitraryLeftover", arrival)
	switch s := service.(type) {
	case RateLatency:
		rate := expr.Sub(s.Rate, a.Rate)
		return RateLatency{
			Rate:    rate,
			Latency: expr.Div(expr.Add(a.Burst, expr.Mul(s.Rate, s.Latency)), rate),
		}
	case PseudoAffine, TokenBucket:
		pa, _ := AsPseudoAffine(s)
		return leftoverStages(pa, a, maxStages(a.Burst, pa.Stages))
	case Delay:
		panic(unsupported("ArbitraryLeftover", service, arrival))
	}
	panic(unsupported("ArbitraryLeftover", service, arrival))
}

// FIFOLeftover returns the service left to a flow by a FIFO server, shifted
// by the free non-negative delay theta.
func FIFOLeftover(service, arrival Term, theta expr.Expr) Term {
	a := asArrival("FIFOLeftover", arrival)
	switch s := service.(type) {
	case RateLatency:
		return PseudoAffine{
			Latency: expr.Add(theta, s.Latency, expr.Div(a.Burst, s.Rate)),
			Stages:  []TokenBucket{{Rate: expr.Sub(s.Rate, a.Rate), Burst: expr.Mul(s.Rate, theta)}},
		}
	case PseudoAffine, TokenBucket:
		pa, _ := AsPseudoAffine(s)
		return leftoverStages(pa, a, expr.Add(maxStages(a.Burst, pa.Stages), theta))
	case Delay:
		panic(unsupported("FIFOLeftover", service, arrival))
	}
	panic(unsupported("FIFOLeftover", service, arrival))
}

// leftoverStages shifts pi by m and removes the cross traffic from each stage.
func leftoverStages(pi PseudoAffine, a TokenBucket, m expr.Expr) PseudoAffine {
	stages := make([]TokenBucket, len(pi.Stages))
	for i, s := range pi.Stages {
		stages[i] = TokenBucket{
			Rate:  expr.Sub(s.Rate, a.Rate),
			Burst: expr.Sub(expr.Mul(s.Rate, m), expr.Sub(a.Burst, s.Burst)),
		}
	}
	return PseudoAffine{Latency: expr.Add(pi.Latency, m), Stages: stages}
}

// maxStages returns [max_i (sigma - b_i)/r_i]^+.
func maxStages(sigma expr.Expr, stages []TokenBucket) expr.Expr {
	if len(stages) == 0 {
		panic("symbolic: pseudoaffine curve without stages")
	}
	terms := make([]expr.Expr, len(stages))
	for i, s := range stages {
		terms[i] = expr.Div(expr.Sub(sigma, s.Burst), s.Rate)
	}
	return expr.Pos(expr.Max(terms...))
}

func asArrival(op string, t Term) TokenBucket {
	if tb, ok := t.(TokenBucket); ok {
		return tb
	}
	panic(fmt.Sprintf("symbolic: %s expects a token-bucket arrival, got %s", op, kindOf(t)))
}

func unsupported(op string, a, b Term) string {
	return fmt.Sprintf("symbolic: %s is undefined for %s and %s", op, kindOf(a), kindOf(b))
}

func kindOf(t Term) string {
	if t == nil {
		return "<nil>"
	}
	return t.Kind().String()
}
