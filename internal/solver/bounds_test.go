package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		name      string
		y, lo, hi float64
		x, slope  float64
	}{
		{"open", -3, -inf, inf, -3, 1},
		{"inside lower", 2, 0, inf, 2, 1},
		{"below lower", -2, 0, inf, 2, -1},
		{"inside upper", -1, -inf, 1, -1, 1},
		{"above upper", 3, -inf, 1, -1, -1},
		{"inside box", 0.5, 0, 1, 0.5, 1},
		{"on lower", 0, 0, 1, 0, 1},
		{"above box", 1.25, 0, 1, 0.75, -1},
		{"below box", -0.25, 0, 1, 0.25, -1},
		{"two periods up", 4.5, 0, 1, 0.5, 1},
		{"degenerate", 7, 2, 2, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, slope := fold(tt.y, tt.lo, tt.hi)
			assert.InDelta(t, tt.x, x, 1e-12)
			assert.Equal(t, tt.slope, slope)
		})
	}
}

func TestBox(t *testing.T) {
	b := newBox([]float64{0, math.Inf(-1)}, []float64{1, 5}, 2)
	assert.Equal(t, []float64{1, -3}, b.clamp([]float64{2, -3}))

	x := make([]float64, 2)
	slope := make([]float64, 2)
	b.toX(x, slope, []float64{-0.5, 6})
	assert.Equal(t, []float64{0.5, 4}, x)
	assert.Equal(t, []float64{-1, -1}, slope)

	open := newBox(nil, nil, 2)
	assert.Equal(t, []float64{-7, 9}, open.clamp([]float64{-7, 9}))

	assert.Panics(t, func() { newBox([]float64{1}, []float64{0}, 1) })
	assert.Panics(t, func() { newBox([]float64{math.NaN()}, []float64{0}, 1) })
}
