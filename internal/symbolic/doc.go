// Package symbolic implements the curve algebra of the operator tree.
//
// A Term is one of a closed set of shapes: TokenBucket arrival curves,
// RateLatency service curves, general PseudoAffine service curves and the
// scalar Delay produced by the horizontal deviation. The operators H,
// Convolution and the two leftover variants dispatch over these shapes with
// exhaustive type switches. RateLatency and TokenBucket are single-stage
// pseudoaffine curves and are accepted wherever a PseudoAffine is.
//
// Every component of a term is an expr.Expr, so the terms are differentiable
// with respect to any free parameter that appears in them.
package symbolic
