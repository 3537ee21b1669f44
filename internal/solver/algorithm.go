package solver

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/optimize"
)

// ErrUnknownAlgorithm is returned by ParseAlgorithm.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Algorithm selects the minimization method.
type Algorithm int

const (
	BFGS Algorithm = iota + 1
	LBFGS
	CG
	GradientDescent
	NelderMead
	// Meta runs BFGS and NelderMead and keeps the smaller minimum.
	Meta
)

var algorithmNames = map[Algorithm]string{
	BFGS:            "bfgs",
	LBFGS:           "lbfgs",
	CG:              "cg",
	GradientDescent: "gradient-descent",
	NelderMead:      "nelder-mead",
	Meta:            "meta",
}

// legacyCodes maps the numeric algorithm codes of older configurations onto
// the closest available method: SLSQP (40) onto BFGS and SBPLX (29) onto
// Nelder-Mead.
var legacyCodes = map[int]Algorithm{
	40:  BFGS,
	29:  NelderMead,
	100: Meta,
}

// ParseAlgorithm accepts an algorithm name or a legacy numeric code.
func ParseAlgorithm(s string) (Algorithm, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for a, n := range algorithmNames {
		if n == name {
			return a, nil
		}
	}
	if code, err := strconv.Atoi(name); err == nil {
		if a, ok := legacyCodes[code]; ok {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%q (want one of %s): %w", s, strings.Join(AlgorithmNames(), ", "), ErrUnknownAlgorithm)
}

// AlgorithmNames returns the accepted algorithm names, sorted.
func AlgorithmNames() []string {
	names := make([]string, 0, len(algorithmNames))
	for _, n := range algorithmNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (a Algorithm) String() string {
	if n, ok := algorithmNames[a]; ok {
		return n
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	_, ok := algorithmNames[a]
	return ok
}

// GradientBased reports whether the algorithm evaluates the gradient. Meta
// does, in its BFGS stage.
func (a Algorithm) GradientBased() bool {
	switch a {
	case BFGS, LBFGS, CG, GradientDescent, Meta:
		return true
	}
	return false
}

func (a Algorithm) method() optimize.Method {
	switch a {
	case BFGS:
		return &optimize.BFGS{}
	case LBFGS:
		return &optimize.LBFGS{}
	case CG:
		return &optimize.CG{}
	case GradientDescent:
		return &optimize.GradientDescent{}
	case NelderMead:
		return &optimize.NelderMead{}
	}
	panic(fmt.Sprintf("solver: no gonum method for %s", a))
}
