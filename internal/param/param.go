package param

import (
	"fmt"
	"math"

	"github.com/vk/optree/internal/expr"
)

// Parameter is a named free variable of the objective.
type Parameter struct {
	Name    string
	Initial float64
}

// New returns a parameter with the given initial value.
func New(name string, initial float64) Parameter {
	if name == "" {
		panic("param: parameter name must not be empty")
	}
	return Parameter{Name: name, Initial: initial}
}

// Var returns the expression variable standing for p.
func (p Parameter) Var() expr.Var { return expr.V(p.Name) }

// Bound limits a parameter to a box. A nil side is unbounded.
type Bound struct {
	Param Parameter
	Lower *float64
	Upper *float64
}

// LowerBounded bounds p from below only.
func LowerBounded(p Parameter, lower float64) Bound {
	return Bound{Param: p, Lower: &lower}
}

// Between bounds p on both sides.
func Between(p Parameter, lower, upper float64) Bound {
	if lower > upper {
		panic(fmt.Sprintf("param: empty bound [%g, %g] for %s", lower, upper, p.Name))
	}
	return Bound{Param: p, Lower: &lower, Upper: &upper}
}

// Unbounded leaves p free on both sides.
func Unbounded(p Parameter) Bound { return Bound{Param: p} }

// LowerOr returns the lower bound, or fallback when unbounded below.
func (b Bound) LowerOr(fallback float64) float64 {
	if b.Lower == nil {
		return fallback
	}
	return *b.Lower
}

// UpperOr returns the upper bound, or fallback when unbounded above.
func (b Bound) UpperOr(fallback float64) float64 {
	if b.Upper == nil {
		return fallback
	}
	return *b.Upper
}

// Box returns the bound as a closed interval with infinities for open sides.
func (b Bound) Box() (lower, upper float64) {
	return b.LowerOr(math.Inf(-1)), b.UpperOr(math.Inf(1))
}

func (b Bound) String() string {
	lo, hi := b.Box()
	return fmt.Sprintf("%s in [%g, %g]", b.Param.Name, lo, hi)
}

// ConstraintType tags how a constraint term relates to zero.
type ConstraintType int

const (
	// EQ requires the term to equal zero.
	EQ ConstraintType = iota
	// INEQ requires the term to be strictly positive.
	INEQ
)

func (c ConstraintType) String() string {
	if c == EQ {
		return "== 0"
	}
	return "> 0"
}

// Constraint is a general constraint on the free parameters.
type Constraint struct {
	Type ConstraintType
	Term expr.Expr
}

// Satisfied reports whether the constraint holds at env within tol.
func (c Constraint) Satisfied(env expr.Env, tol float64) bool {
	v := c.Term.Eval(env)
	if c.Type == EQ {
		return math.Abs(v) <= tol
	}
	return v > -tol
}

func (c Constraint) String() string { return fmt.Sprintf("%s %s", c.Term, c.Type) }
