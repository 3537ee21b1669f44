// Package solver minimizes box-bounded objective functions with gonum's
// optimize package.
//
// gonum's methods are unconstrained. Box bounds are enforced by mapping the
// unconstrained search space onto the box by reflection at the bounds: the
// map is the identity inside the box, so a starting point inside the box is
// used as is and the objective is only ever evaluated at feasible points.
//
// Besides the plain gonum methods the package offers Meta, which runs BFGS
// and Nelder-Mead from the same starting point and keeps the better result.
package solver
