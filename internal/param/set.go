package param

import "fmt"

// Set is an ordered collection of parameters, their bounds and constraints.
// The order of Params is the order of the solver's decision vector.
type Set struct {
	Params      []Parameter
	Bounds      []Bound
	Constraints []Constraint
}

// Len returns the number of parameters.
func (s Set) Len() int { return len(s.Params) }

// Merge appends other to s. A parameter name already present in s, a bound
// for an unknown parameter or a second bound for the same parameter is a
// contract violation and panics.
func (s *Set) Merge(other Set) {
	for _, p := range other.Params {
		if s.index(p.Name) >= 0 {
			panic(fmt.Sprintf("param: duplicate parameter %q", p.Name))
		}
		s.Params = append(s.Params, p)
	}
	for _, b := range other.Bounds {
		if s.index(b.Param.Name) < 0 {
			panic(fmt.Sprintf("param: bound for unknown parameter %q", b.Param.Name))
		}
		if s.BoundOf(b.Param.Name) != nil {
			panic(fmt.Sprintf("param: parameter %q bounded twice", b.Param.Name))
		}
		s.Bounds = append(s.Bounds, b)
	}
	s.Constraints = append(s.Constraints, other.Constraints...)
}

// Verify panics unless every parameter has exactly one bound.
func (s Set) Verify() {
	if len(s.Bounds) != len(s.Params) {
		panic(fmt.Sprintf("param: %d parameters but %d bounds", len(s.Params), len(s.Bounds)))
	}
	for _, p := range s.Params {
		if s.BoundOf(p.Name) == nil {
			panic(fmt.Sprintf("param: parameter %q is not bounded", p.Name))
		}
	}
}

// BoundOf returns the bound of the named parameter, or nil.
func (s Set) BoundOf(name string) *Bound {
	for i := range s.Bounds {
		if s.Bounds[i].Param.Name == name {
			return &s.Bounds[i]
		}
	}
	return nil
}

// Names returns the parameter names in decision-vector order.
func (s Set) Names() []string {
	names := make([]string, len(s.Params))
	for i, p := range s.Params {
		names[i] = p.Name
	}
	return names
}

// Box returns lower and upper bound vectors in decision-vector order.
func (s Set) Box() (lower, upper []float64) {
	lower = make([]float64, len(s.Params))
	upper = make([]float64, len(s.Params))
	for i, p := range s.Params {
		lower[i], upper[i] = s.BoundOf(p.Name).Box()
	}
	return lower, upper
}

// Initial returns the initial values in decision-vector order.
func (s Set) Initial() []float64 {
	x := make([]float64, len(s.Params))
	for i, p := range s.Params {
		x[i] = p.Initial
	}
	return x
}

// Clone returns a copy that shares no slices with s.
func (s Set) Clone() Set {
	return Set{
		Params:      append([]Parameter(nil), s.Params...),
		Bounds:      append([]Bound(nil), s.Bounds...),
		Constraints: append([]Constraint(nil), s.Constraints...),
	}
}

func (s Set) index(name string) int {
	for i, p := range s.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}
