package optree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/optree/internal/network"
)

// Tree owns an operator tree rooted at a Delay node. Structural edits go
// through the Tree so that change tracking stays consistent.
type Tree struct {
	root   *Node
	plugin Plugin
	maxID  int
}

// NewTree takes ownership of root and assigns ids.
func NewTree(root *Node) *Tree {
	if root == nil || root.kind != KindDelay {
		panic("optree: the root of a tree must be a Delay node")
	}
	t := &Tree{root: root}
	t.AssignIDs()
	return t
}

// Root returns the Delay root.
func (t *Tree) Root() *Node { return t.root }

// Plugin returns the plugin of the last derivation, or nil.
func (t *Tree) Plugin() Plugin { return t.plugin }

// MaxID returns the largest id assigned by the last AssignIDs.
func (t *Tree) MaxID() int { return t.maxID }

// AssignIDs numbers the nodes in depth-first order, the root being 0 and a
// left subtree being numbered before the right one. It returns the largest
// id. Ids are for display and lookup only; parameter names never depend on
// them.
func (t *Tree) AssignIDs() int {
	t.maxID = assignIDs(t.root, 0)
	return t.maxID
}

func assignIDs(n *Node, id int) int {
	n.id = id
	maxID := id
	for _, c := range n.Children() {
		maxID = assignIDs(c, maxID+1)
	}
	return maxID
}

// Walk visits the nodes in depth-first pre-order. Returning false from fn
// skips the node's children.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	walk(t.root, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children() {
		walk(c, depth+1, fn)
	}
}

// Find returns the node with the given id, or nil.
func (t *Tree) Find(id int) *Node {
	var found *Node
	t.Walk(func(n *Node, _ int) bool {
		if n.id == id {
			found = n
		}
		return found == nil
	})
	return found
}

// Leaves returns the leaves from left to right.
func (t *Tree) Leaves() []*Node {
	var leaves []*Node
	t.Walk(func(n *Node, _ int) bool {
		if n.IsLeaf() {
			leaves = append(leaves, n)
		}
		return true
	})
	return leaves
}

// Validate checks the structural invariants of the whole tree: a Delay root,
// strict alternation between content and operator nodes, operand kinds per
// operator, single-server leaves and unique ids.
func (t *Tree) Validate() error {
	var errs []error
	seen := make(map[int]bool)
	t.Walk(func(n *Node, _ int) bool {
		if seen[n.id] {
			errs = append(errs, fmt.Errorf("node %s: duplicate id", n))
		}
		seen[n.id] = true
		if n != t.root && n.kind == KindDelay {
			errs = append(errs, fmt.Errorf("node %s: Delay below the root", n))
		}
		if err := checkNode(n); err != nil {
			errs = append(errs, fmt.Errorf("node %s: %w", n, err))
		}
		return true
	})
	return errors.Join(errs...)
}

func checkNode(n *Node) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	switch {
	case n.kind == KindOperator:
		checkOperands(n.op, n.left, n.right)
	case n.child != nil:
		checkChild(n, n.child)
	case n.kind == KindDelay:
		return errors.New("root without an H child")
	case n.kind == KindServers && len(n.servers) != 1:
		return fmt.Errorf("leaf with %d servers", len(n.servers))
	}
	return nil
}

// String prints one node per line, indented by depth.
func (t *Tree) String() string {
	var b strings.Builder
	t.Walk(func(n *Node, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(n.String())
		if n.term != nil {
			fmt.Fprintf(&b, " = %s", n.term)
		}
		b.WriteByte('\n')
		return true
	})
	return b.String()
}

// path returns the nodes from the root down to target, or nil.
func (t *Tree) path(target *Node) []*Node {
	var path []*Node
	var find func(n *Node) bool
	find = func(n *Node) bool {
		path = append(path, n)
		if n == target {
			return true
		}
		for _, c := range n.Children() {
			if find(c) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}
	if find(t.root) {
		return path
	}
	return nil
}

func (t *Tree) mustPath(n *Node) []*Node {
	p := t.path(n)
	if p == nil {
		panic(fmt.Sprintf("optree: node %s does not belong to this tree", n))
	}
	return p
}

// markDirty flags the last node of path and its ancestors, stopping at the
// first node that is already dirty.
func markDirty(path []*Node) {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].state == StateDirty {
			return
		}
		path[i].state = StateDirty
	}
}

// SetChild replaces the operator child of a content node.
func (t *Tree) SetChild(n, op *Node) {
	p := t.mustPath(n)
	n.setChild(op)
	t.AssignIDs()
	markDirty(p)
}

// SetOperands replaces both operands of an operator node.
func (t *Tree) SetOperands(op, left, right *Node) {
	p := t.mustPath(op)
	if op.kind != KindOperator {
		panic(fmt.Sprintf("optree: %s is not an operator", op))
	}
	op.setOperands(left, right)
	t.AssignIDs()
	markDirty(p)
}

// SetServers replaces the servers of a Servers node.
func (t *Tree) SetServers(n *Node, servers []*network.Server) {
	p := t.mustPath(n)
	if n.kind != KindServers {
		panic(fmt.Sprintf("optree: %s is not a Servers node", n))
	}
	if n.child == nil && len(servers) != 1 {
		panic(fmt.Sprintf("optree: a servers leaf holds exactly one server, got %d", len(servers)))
	}
	n.servers = append([]*network.Server(nil), servers...)
	markDirty(p)
}

// SetFlow replaces the flow of a Flow leaf.
func (t *Tree) SetFlow(n *Node, f *network.Flow) {
	p := t.mustPath(n)
	if n.kind != KindFlow || f == nil {
		panic(fmt.Sprintf("optree: cannot set flow %v on %s", f, n))
	}
	n.flow = f
	markDirty(p)
}

// Dirty reports whether any part of the tree needs to be derived again.
func (t *Tree) Dirty() bool { return t.root.state != StateDerived }
