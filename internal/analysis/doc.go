// Package analysis computes the delay bound of a flow of interest.
//
// An Analysis owns the operator tree of one flow. DelayBound derives the
// tree's symbolic delay with a plugin and, when the delay still depends on
// free parameters, minimizes it over them with a solver from package solver.
// Box bounds are passed to the solver; other constraints a plugin derives
// are not, and are reported on the Result instead.
//
// Convex is a diagnostic: it samples the Hessian of the symbolic delay at
// random points of the parameter box and reports whether every sampled
// quadratic form was non-negative.
package analysis
