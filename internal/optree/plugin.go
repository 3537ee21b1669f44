package optree

import (
	"github.com/vk/optree/internal/network"
	"github.com/vk/optree/internal/param"
	"github.com/vk/optree/internal/symbolic"
)

// Derivation is the outcome of a single plugin call: the term of one node and
// exactly the parameters, bounds and constraints that call created.
type Derivation struct {
	Term        symbolic.Term
	Params      []param.Parameter
	Bounds      []param.Bound
	Constraints []param.Constraint
}

func (d Derivation) set() param.Set {
	return param.Set{
		Params:      append([]param.Parameter(nil), d.Params...),
		Bounds:      append([]param.Bound(nil), d.Bounds...),
		Constraints: append([]param.Constraint(nil), d.Constraints...),
	}
}

// Plugin derives the symbolic terms of a tree for one multiplexing
// discipline. Implementations must be comparable (pointer types): a tree
// re-derives everything when it is handed a different plugin value.
type Plugin interface {
	// Name identifies the plugin in logs and reports.
	Name() string
	// FlowTerm returns the arrival curve of a flow leaf.
	FlowTerm(f *network.Flow) Derivation
	// ServerTerm returns the service curve of a single-server leaf.
	ServerTerm(s *network.Server) Derivation
	// OperatorTerm combines the terms of an operator's operands. crossFlow
	// is the flow of the right operand when it is a Flow leaf.
	OperatorTerm(op Op, left, right symbolic.Term, crossFlow *network.Flow) Derivation
	// DeriveConstraints returns extra constraints for a derived content
	// node, typically only for the root.
	DeriveConstraints(n *Node) []param.Constraint
}
