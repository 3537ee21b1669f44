package network

import (
	"errors"
	"fmt"

	"github.com/vk/optree/internal/config"
)

// FromModel builds a network from the format-agnostic configuration model.
// Servers and flows get IDs in declaration order.
func FromModel(m *config.Model) (*Network, error) {
	n := New()
	var errs []error
	for _, s := range m.Servers {
		if _, err := n.AddServer(s.Alias, s.Rate, s.Latency); err != nil {
			errs = append(errs, err)
		}
	}
	for _, f := range m.Flows {
		if _, err := n.AddFlow(f.Alias, f.Rate, f.Burst, f.Path...); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Nesting resolves a configured nesting tree against the network and
// validates it.
func (n *Network) Nesting(desc *config.Nesting) (*NestingNode, error) {
	root, err := n.resolve(desc)
	if err != nil {
		return nil, err
	}
	if err := ValidateNesting(root); err != nil {
		return nil, err
	}
	return root, nil
}

func (n *Network) resolve(desc *config.Nesting) (*NestingNode, error) {
	if desc.Flow != "" && len(desc.Servers) > 0 {
		return nil, fmt.Errorf("nesting node names flow %q and servers %v: %w", desc.Flow, desc.Servers, ErrBadNesting)
	}
	node := &NestingNode{}
	if desc.Flow != "" {
		f, ok := n.flows[desc.Flow]
		if !ok {
			return nil, fmt.Errorf("nesting: %q: %w", desc.Flow, ErrUnknownFlow)
		}
		node.Flow = f
	} else {
		servers, err := n.lookupServers(desc.Servers)
		if err != nil {
			return nil, fmt.Errorf("nesting: %w", err)
		}
		node.Servers = servers
	}
	for _, c := range desc.Children {
		child, err := n.resolve(c)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}
