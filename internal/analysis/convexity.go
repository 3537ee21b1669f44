package analysis

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/vk/optree/internal/ctxlog"
	"github.com/vk/optree/internal/expr"
	"github.com/vk/optree/internal/optree"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	convexityPoints     = 100
	convexityDirections = 100
	// samplingCap limits sampling on sides of the box that are unbounded
	// or far away.
	samplingCap  = 10.0
	directionAbs = 10.0
)

// Convex samples the Hessian of the delay derived with p and reports
// whether z·H·z >= 0 held for every sampled point and direction. Points are
// drawn per parameter from samplingInterval; directions from [-10, 10]^n.
// The first violation returns false. A delay without free parameters is
// convex.
func (a *Analysis) Convex(ctx context.Context, p optree.Plugin) bool {
	logger := ctxlog.FromContext(ctx).With("flow", a.foi.Flow.Alias, "plugin", p.Name())
	sym := a.Symbolics(p)
	names := sym.Params.Names()
	n := len(names)
	if n == 0 {
		logger.Debug("No free parameters, delay is constant.")
		return true
	}

	hessian := make([][]expr.Expr, n)
	for i, ni := range names {
		d := sym.Objective.Value.Diff(ni)
		hessian[i] = make([]expr.Expr, n)
		for j := i; j < n; j++ {
			hessian[i][j] = d.Diff(names[j])
		}
	}

	src := rand.NewPCG(a.seed, a.seed^0x9e3779b97f4a7c15)
	lower, upper := sym.Params.Box()
	coords := make([]distuv.Uniform, n)
	for i := range coords {
		lo, hi := samplingInterval(lower[i], upper[i])
		coords[i] = distuv.Uniform{Min: lo, Max: hi, Src: src}
	}
	direction := distuv.Uniform{Min: -directionAbs, Max: directionAbs, Src: src}

	env := make(expr.Env, n)
	h := mat.NewSymDense(n, nil)
	z := mat.NewVecDense(n, nil)
	for point := 0; point < convexityPoints; point++ {
		for i, name := range names {
			env[name] = coords[i].Rand()
		}
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				h.SetSym(i, j, hessian[i][j].Eval(env))
			}
		}
		for k := 0; k < convexityDirections; k++ {
			for i := 0; i < n; i++ {
				z.SetVec(i, direction.Rand())
			}
			if q := mat.Inner(z, h, z); q < 0 {
				logger.Debug("Convexity violated.", "point", env, "quadratic_form", q)
				return false
			}
		}
	}
	logger.Debug("No convexity violation sampled.", "points", convexityPoints, "directions", convexityDirections)
	return true
}

// samplingInterval returns [lower, max(lower, min(10, upper))]. An unbounded
// lower side reads as 0, or as upper-10 when upper is negative, so the
// interval stays inside the box.
func samplingInterval(lower, upper float64) (lo, hi float64) {
	lo = lower
	if math.IsInf(lo, -1) {
		lo = 0
		if upper < 0 {
			lo = upper - samplingCap
		}
	}
	return lo, math.Max(lo, math.Min(samplingCap, upper))
}
