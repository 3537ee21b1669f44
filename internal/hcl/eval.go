package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// units are the variables available in network files. Rates are in bits
// per second and times in seconds.
var units = map[string]float64{
	"s":    1,
	"ms":   1e-3,
	"us":   1e-6,
	"bit":  1,
	"kbit": 1e3,
	"mbit": 1e6,
	"gbit": 1e9,
}

// EvalContext returns the evaluation context of network files: the unit
// variables s, ms, us, bit, kbit, mbit and gbit, and the functions min, max,
// abs, ceil, floor and pow.
func EvalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(units))
	for name, v := range units {
		vars[name] = cty.NumberFloatVal(v)
	}
	return &hcl.EvalContext{
		Variables: vars,
		Functions: map[string]function.Function{
			"min":   stdlib.MinFunc,
			"max":   stdlib.MaxFunc,
			"abs":   stdlib.AbsoluteFunc,
			"ceil":  stdlib.CeilFunc,
			"floor": stdlib.FloorFunc,
			"pow":   stdlib.PowFunc,
		},
	}
}
