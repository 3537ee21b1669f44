package optree

import (
	"fmt"

	"github.com/vk/optree/internal/network"
)

// Build converts the nesting tree of a flow of interest into an operator
// tree: Delay → H(service left for the flow, flow).
//
// Every flow child of a nesting node becomes a Servers node over a Leftover
// operator whose left operand convolves the flow's own children and whose
// right operand is the flow. Server groups become single-server leaves, or a
// convolution of such leaves. Servers on a flow's path that its children do
// not cover are convolved in as an extra group.
//
// The nesting tree must be valid (see network.ValidateNesting); Build panics
// otherwise.
func Build(foi *network.NestingNode) *Tree {
	if foi == nil || !foi.IsFlow() {
		panic("optree: the nesting root must hold the flow of interest")
	}
	return NewTree(NewDelay(operatorFromNesting(OpH, foi.Children, foi.Flow)))
}

// operatorFromNesting builds op(service over children, f).
func operatorFromNesting(op Op, children []*network.NestingNode, f *network.Flow) *Node {
	if f == nil {
		panic(fmt.Sprintf("optree: %s without a right operand", op))
	}
	if len(children) == 0 {
		panic(fmt.Sprintf("optree: %s for %s without left operands", op, f))
	}
	left := convolve(contentNodes(children))

	var missing []*network.Server
	for _, s := range f.Path {
		if !contains(left.servers, s) {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		left = convolve([]*Node{left, serverGroup(missing)})
	}
	return NewOperator(op, left, NewFlow(f))
}

func contentNodes(children []*network.NestingNode) []*Node {
	nodes := make([]*Node, 0, len(children))
	for _, c := range children {
		if c.IsFlow() {
			lo := operatorFromNesting(OpLeftover, c.Children, c.Flow)
			nodes = append(nodes, NewServers(lo.left.servers, lo))
			continue
		}
		if len(c.Servers) == 0 {
			panic("optree: empty server group in nesting tree")
		}
		nodes = append(nodes, serverGroup(c.Servers))
	}
	return nodes
}

// serverGroup returns a single-server leaf, or a convolution of leaves.
func serverGroup(servers []*network.Server) *Node {
	leaves := make([]*Node, len(servers))
	for i, s := range servers {
		leaves[i] = NewServers([]*network.Server{s}, nil)
	}
	return convolve(leaves)
}

// convolve folds nodes into a right-leaning convolution subtree.
func convolve(nodes []*Node) *Node {
	switch len(nodes) {
	case 0:
		panic("optree: nothing to convolve")
	case 1:
		return nodes[0]
	}
	right := convolve(nodes[1:])
	servers := append(append([]*network.Server(nil), nodes[0].servers...), right.servers...)
	return NewServers(servers, NewOperator(OpConvolution, nodes[0], right))
}

func contains(servers []*network.Server, s *network.Server) bool {
	for _, x := range servers {
		if x == s {
			return true
		}
	}
	return false
}
