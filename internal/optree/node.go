package optree

import (
	"fmt"
	"strings"

	"github.com/vk/optree/internal/network"
	"github.com/vk/optree/internal/param"
	"github.com/vk/optree/internal/symbolic"
)

// Kind is the variant of a node.
type Kind int

const (
	KindDelay Kind = iota
	KindServers
	KindFlow
	KindOperator
)

func (k Kind) String() string {
	switch k {
	case KindDelay:
		return "Delay"
	case KindServers:
		return "Servers"
	case KindFlow:
		return "Flow"
	case KindOperator:
		return "Operator"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Op is the operator of an operator node.
type Op int

const (
	OpH Op = iota + 1
	OpConvolution
	OpLeftover
)

func (o Op) String() string {
	switch o {
	case OpH:
		return "H"
	case OpConvolution:
		return "Convolution"
	case OpLeftover:
		return "Leftover"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// State tracks whether a node's symbolics are current.
type State int

const (
	StateUnbuilt State = iota
	StateDerived
	StateDirty
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateDerived:
		return "derived"
	case StateDirty:
		return "dirty"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Node is a node of an operator tree. Content nodes (Delay, Servers, Flow)
// have at most one child, which is an operator. Operator nodes have exactly
// two content children.
type Node struct {
	id      int
	kind    Kind
	op      Op
	flow    *network.Flow
	servers []*network.Server

	child       *Node
	left, right *Node

	state  State
	plugin Plugin
	term   symbolic.Term
	// local holds what the plugin created for this node, subtree everything
	// collected from the node and its descendants.
	local   param.Set
	subtree param.Set
}

// NewDelay returns a root node over an H operator.
func NewDelay(h *Node) *Node {
	n := &Node{id: -1, kind: KindDelay}
	n.setChild(h)
	return n
}

// NewServers returns a Servers node. A nil child makes it a leaf, which must
// hold exactly one server.
func NewServers(servers []*network.Server, child *Node) *Node {
	n := &Node{id: -1, kind: KindServers, servers: append([]*network.Server(nil), servers...)}
	if child == nil {
		if len(servers) != 1 {
			panic(fmt.Sprintf("optree: a servers leaf holds exactly one server, got %d", len(servers)))
		}
		return n
	}
	n.setChild(child)
	return n
}

// NewFlow returns a Flow leaf.
func NewFlow(f *network.Flow) *Node {
	if f == nil {
		panic("optree: flow leaf without a flow")
	}
	return &Node{id: -1, kind: KindFlow, flow: f}
}

// NewOperator returns an operator node over two content nodes.
func NewOperator(op Op, left, right *Node) *Node {
	n := &Node{id: -1, kind: KindOperator, op: op}
	n.setOperands(left, right)
	return n
}

func (n *Node) setChild(child *Node) {
	checkChild(n, child)
	n.child = child
}

func (n *Node) setOperands(left, right *Node) {
	checkOperands(n.op, left, right)
	n.left, n.right = left, right
}

// checkChild enforces which operator a content node may hold.
func checkChild(n, child *Node) {
	if child == nil || child.kind != KindOperator {
		panic(fmt.Sprintf("optree: the child of a %s node must be an operator", n.kind))
	}
	switch n.kind {
	case KindDelay:
		if child.op != OpH {
			panic(fmt.Sprintf("optree: the child of a Delay node must be H, got %s", child.op))
		}
	case KindServers:
		if child.op != OpConvolution && child.op != OpLeftover {
			panic(fmt.Sprintf("optree: the child of a Servers node must be Convolution or Leftover, got %s", child.op))
		}
	case KindFlow, KindOperator:
		panic(fmt.Sprintf("optree: a %s node cannot hold a child", n.kind))
	}
}

// checkOperands enforces the operand kinds of each operator.
func checkOperands(op Op, left, right *Node) {
	if left == nil || right == nil {
		panic(fmt.Sprintf("optree: %s needs two operands", op))
	}
	switch op {
	case OpH, OpLeftover:
		if left.kind != KindServers || right.kind != KindFlow {
			panic(fmt.Sprintf("optree: %s expects (Servers, Flow), got (%s, %s)", op, left.kind, right.kind))
		}
	case OpConvolution:
		if left.kind != KindServers || right.kind != KindServers {
			panic(fmt.Sprintf("optree: Convolution expects (Servers, Servers), got (%s, %s)", left.kind, right.kind))
		}
	default:
		panic(fmt.Sprintf("optree: unknown operator %s", op))
	}
}

// ID returns the node's id, or -1 before the tree assigned one.
func (n *Node) ID() int { return n.id }

// Kind returns the node's variant.
func (n *Node) Kind() Kind { return n.kind }

// Op returns the operator of an operator node.
func (n *Node) Op() Op { return n.op }

// Flow returns the flow of a Flow leaf.
func (n *Node) Flow() *network.Flow { return n.flow }

// Servers returns the servers a Servers node stands for.
func (n *Node) Servers() []*network.Server { return n.servers }

// Child returns the operator child of a content node.
func (n *Node) Child() *Node { return n.child }

// Left returns the left operand of an operator node.
func (n *Node) Left() *Node { return n.left }

// Right returns the right operand of an operator node.
func (n *Node) Right() *Node { return n.right }

// Children returns the node's children in left-to-right order.
func (n *Node) Children() []*Node {
	switch {
	case n.kind == KindOperator:
		return []*Node{n.left, n.right}
	case n.child != nil:
		return []*Node{n.child}
	}
	return nil
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return n.kind != KindOperator && n.child == nil }

// State returns the derivation state.
func (n *Node) State() State { return n.state }

// Term returns the symbolic term of a content node, or nil before
// derivation and for operator nodes.
func (n *Node) Term() symbolic.Term { return n.term }

// Parameters returns the parameters, bounds and constraints of the subtree
// rooted at n as of its last derivation.
func (n *Node) Parameters() param.Set { return n.subtree.Clone() }

// LocalParameters returns what the plugin created for this node alone.
func (n *Node) LocalParameters() param.Set { return n.local.Clone() }

func (n *Node) String() string {
	switch n.kind {
	case KindDelay:
		return fmt.Sprintf("%d: Delay", n.id)
	case KindOperator:
		return fmt.Sprintf("%d: Operator %s", n.id, n.op)
	case KindFlow:
		return fmt.Sprintf("%d: %s", n.id, n.flow)
	}
	ids := make([]string, len(n.servers))
	for i, s := range n.servers {
		ids[i] = fmt.Sprintf("Server %d", s.ID)
	}
	return fmt.Sprintf("%d: Servers [%s]", n.id, strings.Join(ids, ", "))
}
