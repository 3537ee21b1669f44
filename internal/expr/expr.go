package expr

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Env binds variable names to values for evaluation.
type Env map[string]float64

// Expr is a differentiable expression.
type Expr interface {
	// Eval computes the value of the expression. Evaluating a variable that
	// is not bound in env panics.
	Eval(env Env) float64
	// Diff returns the partial derivative with respect to the named variable.
	Diff(name string) Expr
	String() string

	collect(names map[string]struct{})
}

// Num is a constant.
type Num float64

// Var is a named free variable.
type Var struct {
	Name string
}

// Zero and One are the constants used by the simplifying constructors.
var (
	Zero Expr = Num(0)
	One  Expr = Num(1)
)

// V returns the variable with the given name.
func V(name string) Var {
	if name == "" {
		panic("expr: variable name must not be empty")
	}
	return Var{Name: name}
}

func (n Num) Eval(Env) float64 { return float64(n) }
func (n Num) Diff(string) Expr { return Zero }
func (n Num) String() string   { return strconv.FormatFloat(float64(n), 'g', -1, 64) }

func (Num) collect(map[string]struct{}) {}

func (v Var) Eval(env Env) float64 {
	val, ok := env[v.Name]
	if !ok {
		panic(fmt.Sprintf("expr: variable %q is not bound", v.Name))
	}
	return val
}

func (v Var) Diff(name string) Expr {
	if v.Name == name {
		return One
	}
	return Zero
}

func (v Var) String() string                    { return v.Name }
func (v Var) collect(names map[string]struct{}) { names[v.Name] = struct{}{} }

// Constant reports whether e is a number and returns its value.
func Constant(e Expr) (float64, bool) {
	n, ok := e.(Num)
	return float64(n), ok
}

// Vars returns the sorted names of all variables occurring in e.
func Vars(e Expr) []string {
	set := make(map[string]struct{})
	e.collect(set)
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type sum struct{ terms []Expr }

// Add returns the sum of the terms. Zero terms are dropped and constants are
// folded.
func Add(terms ...Expr) Expr {
	var folded float64
	var kept []Expr
	for _, t := range terms {
		if s, ok := t.(sum); ok {
			kept = append(kept, s.terms...)
			continue
		}
		if c, ok := Constant(t); ok {
			folded += c
			continue
		}
		kept = append(kept, t)
	}
	if folded != 0 {
		kept = append(kept, Num(folded))
	}
	switch len(kept) {
	case 0:
		return Zero
	case 1:
		return kept[0]
	}
	return sum{terms: kept}
}

func (s sum) Eval(env Env) float64 {
	var total float64
	for _, t := range s.terms {
		total += t.Eval(env)
	}
	return total
}

func (s sum) Diff(name string) Expr {
	parts := make([]Expr, len(s.terms))
	for i, t := range s.terms {
		parts[i] = t.Diff(name)
	}
	return Add(parts...)
}

func (s sum) String() string { return "(" + join(s.terms, " + ") + ")" }

func (s sum) collect(names map[string]struct{}) {
	for _, t := range s.terms {
		t.collect(names)
	}
}

type difference struct{ a, b Expr }

// Sub returns a - b.
func Sub(a, b Expr) Expr {
	ca, aok := Constant(a)
	cb, bok := Constant(b)
	switch {
	case aok && bok:
		return Num(ca - cb)
	case bok && cb == 0:
		return a
	}
	return difference{a: a, b: b}
}

func (d difference) Eval(env Env) float64  { return d.a.Eval(env) - d.b.Eval(env) }
func (d difference) Diff(name string) Expr { return Sub(d.a.Diff(name), d.b.Diff(name)) }
func (d difference) String() string        { return "(" + d.a.String() + " - " + d.b.String() + ")" }

func (d difference) collect(names map[string]struct{}) {
	d.a.collect(names)
	d.b.collect(names)
}

type product struct{ a, b Expr }

// Mul returns a * b.
func Mul(a, b Expr) Expr {
	ca, aok := Constant(a)
	cb, bok := Constant(b)
	switch {
	case aok && bok:
		return Num(ca * cb)
	case (aok && ca == 0) || (bok && cb == 0):
		return Zero
	case aok && ca == 1:
		return b
	case bok && cb == 1:
		return a
	}
	return product{a: a, b: b}
}

func (p product) Eval(env Env) float64 { return p.a.Eval(env) * p.b.Eval(env) }

func (p product) Diff(name string) Expr {
	return Add(Mul(p.a.Diff(name), p.b), Mul(p.a, p.b.Diff(name)))
}

func (p product) String() string { return "(" + p.a.String() + " * " + p.b.String() + ")" }

func (p product) collect(names map[string]struct{}) {
	p.a.collect(names)
	p.b.collect(names)
}

type quotient struct{ num, den Expr }

// Div returns num / den. A constant zero denominator panics.
func Div(num, den Expr) Expr {
	cn, nok := Constant(num)
	cd, dok := Constant(den)
	switch {
	case dok && cd == 0:
		panic("expr: division by constant zero")
	case nok && dok:
		return Num(cn / cd)
	case nok && cn == 0:
		return Zero
	case dok && cd == 1:
		return num
	}
	return quotient{num: num, den: den}
}

func (q quotient) Eval(env Env) float64 { return q.num.Eval(env) / q.den.Eval(env) }

func (q quotient) Diff(name string) Expr {
	dn := q.num.Diff(name)
	dd := q.den.Diff(name)
	if c, ok := Constant(dd); ok && c == 0 {
		return Div(dn, q.den)
	}
	return Div(Sub(Mul(dn, q.den), Mul(q.num, dd)), Mul(q.den, q.den))
}

func (q quotient) String() string { return "(" + q.num.String() + " / " + q.den.String() + ")" }

func (q quotient) collect(names map[string]struct{}) {
	q.num.collect(names)
	q.den.collect(names)
}

// Neg returns -e.
func Neg(e Expr) Expr { return Sub(Zero, e) }

func join(es []Expr, sep string) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}

// active returns the index of the smallest (or largest) value, first on ties.
func active(args []Expr, env Env, max bool) int {
	best := 0
	bestVal := args[0].Eval(env)
	for i := 1; i < len(args); i++ {
		v := args[i].Eval(env)
		if (max && v > bestVal) || (!max && v < bestVal) || math.IsNaN(bestVal) {
			best, bestVal = i, v
		}
	}
	return best
}
