// Package expr is a small differentiable-expression kernel over float64.
//
// Expressions are immutable trees built from numbers, named variables and the
// operators the delay-bound algebra needs: sums, differences, products,
// quotients and pointwise minimum/maximum. Every expression can be evaluated
// against an Env and differentiated symbolically by variable name, so an
// objective and its Jacobian can be built once and evaluated many times.
//
// Minimum and maximum are piecewise. Their derivative picks the derivative of
// the argument that is active at evaluation time (the first one on ties),
// which is the one-sided derivative a gradient-based solver expects.
package expr
