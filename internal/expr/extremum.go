package expr

import "math"

type extremum struct {
	args []Expr
	max  bool
}

// Min returns the pointwise minimum of its arguments.
func Min(args ...Expr) Expr { return newExtremum(args, false) }

// Max returns the pointwise maximum of its arguments.
func Max(args ...Expr) Expr { return newExtremum(args, true) }

// Pos returns [e]^+ = max(e, 0).
func Pos(e Expr) Expr { return Max(e, Zero) }

func newExtremum(args []Expr, max bool) Expr {
	if len(args) == 0 {
		panic("expr: min/max needs at least one argument")
	}
	var flat []Expr
	for _, a := range args {
		if x, ok := a.(extremum); ok && x.max == max {
			flat = append(flat, x.args...)
			continue
		}
		flat = append(flat, a)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	folded, allConst := 0.0, true
	for i, a := range flat {
		c, ok := Constant(a)
		if !ok {
			allConst = false
			break
		}
		if i == 0 || (max && c > folded) || (!max && c < folded) {
			folded = c
		}
	}
	if allConst {
		return Num(folded)
	}
	return extremum{args: flat, max: max}
}

func (x extremum) Eval(env Env) float64 {
	v := x.args[0].Eval(env)
	for _, a := range x.args[1:] {
		if x.max {
			v = math.Max(v, a.Eval(env))
		} else {
			v = math.Min(v, a.Eval(env))
		}
	}
	return v
}

func (x extremum) Diff(name string) Expr {
	picks := make([]Expr, len(x.args))
	for i, a := range x.args {
		picks[i] = a.Diff(name)
	}
	return newSelector(x.args, picks, x.max)
}

func (x extremum) String() string {
	if x.max {
		return "max(" + join(x.args, ", ") + ")"
	}
	return "min(" + join(x.args, ", ") + ")"
}

func (x extremum) collect(names map[string]struct{}) {
	for _, a := range x.args {
		a.collect(names)
	}
}

// selector evaluates picks[i] where i is the active argument of the
// extremum over args. It is the derivative of an extremum.
type selector struct {
	args  []Expr
	picks []Expr
	max   bool
}

func newSelector(args, picks []Expr, max bool) Expr {
	first, ok := Constant(picks[0])
	for _, p := range picks[1:] {
		if !ok {
			break
		}
		c, isConst := Constant(p)
		ok = isConst && c == first
	}
	if ok {
		return Num(first)
	}
	return selector{args: args, picks: picks, max: max}
}

func (s selector) Eval(env Env) float64 {
	return s.picks[active(s.args, env, s.max)].Eval(env)
}

func (s selector) Diff(name string) Expr {
	picks := make([]Expr, len(s.picks))
	for i, p := range s.picks {
		picks[i] = p.Diff(name)
	}
	return newSelector(s.args, picks, s.max)
}

func (s selector) String() string {
	op := "argmin"
	if s.max {
		op = "argmax"
	}
	return op + "[" + join(s.args, ", ") + "](" + join(s.picks, ", ") + ")"
}

func (s selector) collect(names map[string]struct{}) {
	for _, a := range s.args {
		a.collect(names)
	}
	for _, p := range s.picks {
		p.collect(names)
	}
}
