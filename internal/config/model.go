package config

import (
	"fmt"
	"sort"
)

// Model is the unified, format-agnostic representation of an analysis input.
type Model struct {
	Servers []*Server
	Flows   []*Flow
	// Nestings maps a flow-of-interest alias to its nesting tree.
	Nestings map[string]*Nesting
	Analysis *Analysis
}

// NewModel returns an empty model ready to be filled by a loader.
func NewModel() *Model {
	return &Model{Nestings: make(map[string]*Nesting)}
}

// Server is the format-agnostic representation of a `server` block.
type Server struct {
	Alias   string
	Rate    float64
	Latency float64
}

// Flow is the format-agnostic representation of a `flow` block.
type Flow struct {
	Alias string
	Rate  float64
	Burst float64
	Path  []string
}

// Nesting is one node of a nesting tree. Exactly one of Flow and Servers is
// set.
type Nesting struct {
	Flow     string
	Servers  []string
	Children []*Nesting
}

// Analysis holds analysis defaults. Nil fields are left to the CLI defaults.
type Analysis struct {
	Plugin         string
	FlowOfInterest string
	Algorithm      string
	MaxEvals       *int
	XTolRel        *float64
	Initial        map[string]float64
}

// FlowsOfInterest returns the aliases that have a nesting tree, sorted.
func (m *Model) FlowsOfInterest() []string {
	aliases := make([]string, 0, len(m.Nestings))
	for alias := range m.Nestings {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// AddNesting registers the nesting tree of a flow of interest.
func (m *Model) AddNesting(n *Nesting) error {
	if n.Flow == "" {
		return fmt.Errorf("nesting root must name a flow")
	}
	if _, exists := m.Nestings[n.Flow]; exists {
		return fmt.Errorf("nesting for flow %q defined more than once", n.Flow)
	}
	m.Nestings[n.Flow] = n
	return nil
}
