package optree

import (
	"fmt"

	"github.com/vk/optree/internal/network"
	"github.com/vk/optree/internal/param"
	"github.com/vk/optree/internal/symbolic"
)

// Symbolics is the outcome of deriving a whole tree.
type Symbolics struct {
	// Objective is the delay bound as a function of the free parameters.
	Objective symbolic.Delay
	// Params lists the free parameters in the order the solver sees them,
	// with one bound each and every collected constraint.
	Params param.Set
}

// DeriveSymbolics derives the terms of every node with p and returns the
// root's objective and parameters. Subtrees that are already derived with
// the same plugin and were not edited since are reused.
func (t *Tree) DeriveSymbolics(p Plugin) Symbolics {
	if p == nil {
		panic("optree: nil plugin")
	}
	derive(t.root, p)
	t.plugin = p
	return t.symbolics()
}

// PartialRecompute derives the dirty parts of the tree again with the plugin
// of the last derivation. It is a no-op when nothing changed and panics when
// the tree was never derived.
func (t *Tree) PartialRecompute() Symbolics {
	if t.plugin == nil {
		panic("optree: partial recompute before any derivation")
	}
	if t.Dirty() {
		derive(t.root, t.plugin)
	}
	return t.symbolics()
}

func (t *Tree) symbolics() Symbolics {
	delay, ok := t.root.term.(symbolic.Delay)
	if !ok {
		panic(fmt.Sprintf("optree: root term is %T, want a delay", t.root.term))
	}
	return Symbolics{Objective: delay, Params: t.root.subtree.Clone()}
}

func derive(n *Node, p Plugin) {
	if n.state == StateDerived && n.plugin == p {
		return
	}
	for _, c := range n.Children() {
		derive(c, p)
	}
	if n.kind == KindOperator {
		n.subtree = param.Set{}
		n.subtree.Merge(n.left.subtree)
		n.subtree.Merge(n.right.subtree)
		n.state, n.plugin = StateDerived, p
		return
	}

	var d Derivation
	switch {
	case n.kind == KindFlow:
		d = p.FlowTerm(n.flow)
	case n.child == nil:
		if n.kind != KindServers || len(n.servers) != 1 {
			panic(fmt.Sprintf("optree: cannot derive leaf %s", n))
		}
		d = p.ServerTerm(n.servers[0])
	default:
		op := n.child
		var cross *network.Flow
		if op.right.kind == KindFlow {
			cross = op.right.flow
		}
		d = p.OperatorTerm(op.op, op.left.term, op.right.term, cross)
	}
	if d.Term == nil {
		panic(fmt.Sprintf("optree: plugin returned no term for %s", n))
	}

	n.term = d.Term
	n.local = d.set()
	n.subtree = n.local.Clone()
	if n.child != nil {
		n.subtree.Merge(n.child.subtree)
	}
	n.state, n.plugin = StateDerived, p
	if cs := p.DeriveConstraints(n); len(cs) > 0 {
		n.local.Constraints = append(n.local.Constraints, cs...)
		n.subtree.Constraints = append(n.subtree.Constraints, cs...)
	}
	n.subtree.Verify()
}
