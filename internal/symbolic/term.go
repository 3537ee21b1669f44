package symbolic

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/vk/optree/internal/expr"
)

// Kind identifies the shape of a Term.
type Kind int

const (
	KindTokenBucket Kind = iota
	KindRateLatency
	KindPseudoAffine
	KindDelay
)

func (k Kind) String() string {
	switch k {
	case KindTokenBucket:
		return "TokenBucket"
	case KindRateLatency:
		return "RateLatency"
	case KindPseudoAffine:
		return "PseudoAffine"
	case KindDelay:
		return "Delay"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Term is an immutable symbolic curve or scalar.
type Term interface {
	Kind() Kind
	// Diff differentiates every component of the term.
	Diff(name string) Term
	// Vars lists the free parameters the term depends on, sorted.
	Vars() []string
	String() string

	sealed()
}

// TokenBucket is the arrival curve Burst + Rate*t (for t > 0).
type TokenBucket struct {
	Rate  expr.Expr
	Burst expr.Expr
}

// RateLatency is the service curve Rate*[t - Latency]^+.
type RateLatency struct {
	Rate    expr.Expr
	Latency expr.Expr
}

// PseudoAffine is the service curve that is zero up to Latency and then
// follows the minimum of its token-bucket stages shifted by Latency.
type PseudoAffine struct {
	Latency expr.Expr
	Stages  []TokenBucket
}

// Delay is the scalar produced by H.
type Delay struct {
	Value expr.Expr
}

func (TokenBucket) Kind() Kind  { return KindTokenBucket }
func (RateLatency) Kind() Kind  { return KindRateLatency }
func (PseudoAffine) Kind() Kind { return KindPseudoAffine }
func (Delay) Kind() Kind        { return KindDelay }

func (TokenBucket) sealed()  {}
func (RateLatency) sealed()  {}
func (PseudoAffine) sealed() {}
func (Delay) sealed()        {}

// NewTokenBucket is a convenience constructor over numbers.
func NewTokenBucket(rate, burst float64) TokenBucket {
	return TokenBucket{Rate: expr.Num(rate), Burst: expr.Num(burst)}
}

// NewRateLatency is a convenience constructor over numbers.
func NewRateLatency(rate, latency float64) RateLatency {
	return RateLatency{Rate: expr.Num(rate), Latency: expr.Num(latency)}
}

func (tb TokenBucket) Diff(name string) Term {
	return TokenBucket{Rate: tb.Rate.Diff(name), Burst: tb.Burst.Diff(name)}
}

func (rl RateLatency) Diff(name string) Term {
	return RateLatency{Rate: rl.Rate.Diff(name), Latency: rl.Latency.Diff(name)}
}

func (pa PseudoAffine) Diff(name string) Term {
	stages := make([]TokenBucket, len(pa.Stages))
	for i, s := range pa.Stages {
		stages[i] = s.Diff(name).(TokenBucket)
	}
	return PseudoAffine{Latency: pa.Latency.Diff(name), Stages: stages}
}

func (d Delay) Diff(name string) Term { return Delay{Value: d.Value.Diff(name)} }

func (tb TokenBucket) Vars() []string { return union(tb.Rate, tb.Burst) }
func (rl RateLatency) Vars() []string { return union(rl.Rate, rl.Latency) }
func (d Delay) Vars() []string        { return expr.Vars(d.Value) }

func (pa PseudoAffine) Vars() []string {
	es := []expr.Expr{pa.Latency}
	for _, s := range pa.Stages {
		es = append(es, s.Rate, s.Burst)
	}
	return union(es...)
}

func (tb TokenBucket) String() string {
	return fmt.Sprintf("TB(rate=%s, burst=%s)", tb.Rate, tb.Burst)
}

func (rl RateLatency) String() string {
	return fmt.Sprintf("RL(rate=%s, latency=%s)", rl.Rate, rl.Latency)
}

func (pa PseudoAffine) String() string {
	stages := make([]string, len(pa.Stages))
	for i, s := range pa.Stages {
		stages[i] = s.String()
	}
	return fmt.Sprintf("PA(latency=%s, stages=[%s])", pa.Latency, strings.Join(stages, ", "))
}

func (d Delay) String() string { return fmt.Sprintf("D(%s)", d.Value) }

// At evaluates the arrival curve at time t.
func (tb TokenBucket) At(env expr.Env, t float64) float64 {
	if t <= 0 {
		return 0
	}
	return tb.Burst.Eval(env) + tb.Rate.Eval(env)*t
}

// At evaluates the service curve at time t.
func (rl RateLatency) At(env expr.Env, t float64) float64 {
	return rl.Rate.Eval(env) * math.Max(t-rl.Latency.Eval(env), 0)
}

// At evaluates the service curve at time t.
func (pa PseudoAffine) At(env expr.Env, t float64) float64 {
	shifted := t - pa.Latency.Eval(env)
	if shifted <= 0 {
		return 0
	}
	v := math.Inf(1)
	for _, s := range pa.Stages {
		v = math.Min(v, s.Burst.Eval(env)+s.Rate.Eval(env)*shifted)
	}
	return v
}

// Eval evaluates the delay.
func (d Delay) Eval(env expr.Env) float64 { return d.Value.Eval(env) }

// AsPseudoAffine views a curve as a pseudoaffine curve. RateLatency becomes
// one stage of rate R and burst 0 after latency L; TokenBucket becomes its
// own single stage with zero latency. It reports false for Delay.
func AsPseudoAffine(t Term) (PseudoAffine, bool) {
	switch c := t.(type) {
	case PseudoAffine:
		return c, true
	case RateLatency:
		return PseudoAffine{Latency: c.Latency, Stages: []TokenBucket{{Rate: c.Rate, Burst: expr.Zero}}}, true
	case TokenBucket:
		return PseudoAffine{Latency: expr.Zero, Stages: []TokenBucket{c}}, true
	case Delay:
		return PseudoAffine{}, false
	}
	panic(fmt.Sprintf("symbolic: unknown term %T", t))
}

func union(es ...expr.Expr) []string {
	set := make(map[string]struct{})
	for _, e := range es {
		for _, name := range expr.Vars(e) {
			set[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
