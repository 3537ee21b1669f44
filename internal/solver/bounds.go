package solver

import (
	"fmt"
	"math"
)

// box maps the unconstrained search space onto [lower, upper] by
// reflection. Infinite entries leave that side open.
type box struct {
	lower, upper []float64
}

func newBox(lower, upper []float64, dim int) box {
	b := box{lower: make([]float64, dim), upper: make([]float64, dim)}
	for i := 0; i < dim; i++ {
		b.lower[i], b.upper[i] = math.Inf(-1), math.Inf(1)
	}
	copy(b.lower, lower)
	copy(b.upper, upper)
	for i := range b.lower {
		if math.IsNaN(b.lower[i]) || math.IsNaN(b.upper[i]) || b.lower[i] > b.upper[i] {
			panic(fmt.Sprintf("solver: invalid bounds [%g, %g] for coordinate %d", b.lower[i], b.upper[i], i))
		}
	}
	return b
}

// clamp projects x into the box.
func (b box) clamp(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Min(math.Max(v, b.lower[i]), b.upper[i])
	}
	return out
}

// toX writes the point of the box that y maps to into x and the derivative
// of each coordinate map into slope, if slope is not nil.
func (b box) toX(x, slope, y []float64) {
	for i, v := range y {
		xi, si := fold(v, b.lower[i], b.upper[i])
		x[i] = xi
		if slope != nil {
			slope[i] = si
		}
	}
}

func fold(y, lo, hi float64) (x, slope float64) {
	loOpen, hiOpen := math.IsInf(lo, -1), math.IsInf(hi, 1)
	switch {
	case loOpen && hiOpen:
		return y, 1
	case hiOpen:
		if y >= lo {
			return y, 1
		}
		return 2*lo - y, -1
	case loOpen:
		if y <= hi {
			return y, 1
		}
		return 2*hi - y, -1
	}
	w := hi - lo
	if w == 0 {
		return lo, 0
	}
	t := math.Mod(y-lo, 2*w)
	if t < 0 {
		t += 2 * w
	}
	if t <= w {
		return lo + t, 1
	}
	return lo + 2*w - t, -1
}
