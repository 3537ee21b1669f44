package network

import (
	"fmt"
	"strings"
)

// NestingNode is a node of a nesting decomposition. Its content is either a
// flow or an ordered group of servers. A flow node's children decompose the
// part of the tandem the flow crosses.
type NestingNode struct {
	Flow     *Flow
	Servers  []*Server
	Children []*NestingNode
}

// FlowNode returns a nesting node for f with the given children.
func FlowNode(f *Flow, children ...*NestingNode) *NestingNode {
	return &NestingNode{Flow: f, Children: children}
}

// ServersNode returns a leaf nesting node for a server group.
func ServersNode(servers ...*Server) *NestingNode {
	return &NestingNode{Servers: servers}
}

// IsFlow reports whether the node's content is a flow.
func (n *NestingNode) IsFlow() bool { return n.Flow != nil }

// Covered returns the servers of a server group, or the path of a flow.
func (n *NestingNode) Covered() []*Server {
	if n.IsFlow() {
		return n.Flow.Path
	}
	return n.Servers
}

func (n *NestingNode) String() string {
	var b strings.Builder
	n.write(&b, 0)
	return b.String()
}

func (n *NestingNode) write(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if n.IsFlow() {
		b.WriteString(n.Flow.String())
	} else {
		aliases := make([]string, len(n.Servers))
		for i, s := range n.Servers {
			aliases[i] = s.Alias
		}
		fmt.Fprintf(b, "Servers [%s]", strings.Join(aliases, ", "))
	}
	b.WriteByte('\n')
	for _, c := range n.Children {
		c.write(b, depth+1)
	}
}

// ValidateNesting checks that root is a well-formed decomposition for its
// flow: flow nodes have children, server groups are non-empty leaves, every
// child only covers servers on its parent flow's path, siblings cover
// disjoint servers and no flow appears twice.
func ValidateNesting(root *NestingNode) error {
	if root == nil || !root.IsFlow() {
		return fmt.Errorf("root must be a flow node: %w", ErrBadNesting)
	}
	return validateNesting(root, make(map[*Flow]bool))
}

func validateNesting(n *NestingNode, flows map[*Flow]bool) error {
	if !n.IsFlow() {
		if len(n.Servers) == 0 {
			return fmt.Errorf("empty server group: %w", ErrBadNesting)
		}
		if len(n.Children) > 0 {
			return fmt.Errorf("server group %v has children: %w", n.Servers, ErrBadNesting)
		}
		return nil
	}
	if flows[n.Flow] {
		return fmt.Errorf("%s appears more than once: %w", n.Flow, ErrBadNesting)
	}
	flows[n.Flow] = true
	if len(n.Servers) > 0 {
		return fmt.Errorf("%s: node holds both a flow and servers: %w", n.Flow, ErrBadNesting)
	}
	if len(n.Children) == 0 {
		return fmt.Errorf("%s: flow node without children: %w", n.Flow, ErrBadNesting)
	}

	covered := make(map[*Server]bool)
	for _, c := range n.Children {
		for _, s := range c.Covered() {
			if !n.Flow.Crosses(s) {
				return fmt.Errorf("%s: child covers %s which is not on the flow's path: %w", n.Flow, s, ErrBadNesting)
			}
			if covered[s] {
				return fmt.Errorf("%s: %s is covered by more than one child: %w", n.Flow, s, ErrBadNesting)
			}
			covered[s] = true
		}
		if err := validateNesting(c, flows); err != nil {
			return err
		}
	}
	return nil
}
