package network

import (
	"errors"
	"fmt"
	"strings"
)

// Server is a rate-latency server. ID is its position in the network.
type Server struct {
	ID      int
	Alias   string
	Rate    float64
	Latency float64
}

func (s *Server) String() string { return fmt.Sprintf("Server %d (%s)", s.ID, s.Alias) }

// Flow is a token-bucket constrained flow routed over Path.
type Flow struct {
	ID    int
	Alias string
	Rate  float64
	Burst float64
	Path  []*Server
}

func (f *Flow) String() string { return fmt.Sprintf("Flow %d (%s)", f.ID, f.Alias) }

// Crosses reports whether s is on the flow's path.
func (f *Flow) Crosses(s *Server) bool {
	for _, p := range f.Path {
		if p == s {
			return true
		}
	}
	return false
}

// Network holds servers and flows addressable by alias.
type Network struct {
	Servers []*Server
	Flows   []*Flow

	servers map[string]*Server
	flows   map[string]*Flow
}

// New creates an empty network.
func New() *Network {
	return &Network{
		servers: make(map[string]*Server),
		flows:   make(map[string]*Flow),
	}
}

// AddServer appends a server. Its ID is its insertion index.
func (n *Network) AddServer(alias string, rate, latency float64) (*Server, error) {
	if _, exists := n.servers[alias]; exists {
		return nil, fmt.Errorf("server %q: %w", alias, ErrDuplicateAlias)
	}
	if rate <= 0 || latency < 0 {
		return nil, fmt.Errorf("server %q: rate %g, latency %g: %w", alias, rate, latency, ErrInvalidCurve)
	}
	s := &Server{ID: len(n.Servers), Alias: alias, Rate: rate, Latency: latency}
	n.Servers = append(n.Servers, s)
	n.servers[alias] = s
	return s, nil
}

// AddFlow appends a flow routed over the named servers, in order.
func (n *Network) AddFlow(alias string, rate, burst float64, path ...string) (*Flow, error) {
	if _, exists := n.flows[alias]; exists {
		return nil, fmt.Errorf("flow %q: %w", alias, ErrDuplicateAlias)
	}
	if rate <= 0 || burst < 0 {
		return nil, fmt.Errorf("flow %q: rate %g, burst %g: %w", alias, rate, burst, ErrInvalidCurve)
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("flow %q has an empty path: %w", alias, ErrInvalidCurve)
	}
	servers, err := n.lookupServers(path)
	if err != nil {
		return nil, fmt.Errorf("flow %q: %w", alias, err)
	}
	f := &Flow{ID: len(n.Flows), Alias: alias, Rate: rate, Burst: burst, Path: servers}
	n.Flows = append(n.Flows, f)
	n.flows[alias] = f
	return f, nil
}

// Server returns the server with the given alias.
func (n *Network) Server(alias string) (*Server, bool) {
	s, ok := n.servers[alias]
	return s, ok
}

// Flow returns the flow with the given alias.
func (n *Network) Flow(alias string) (*Flow, bool) {
	f, ok := n.flows[alias]
	return f, ok
}

// Validate checks that no server is overloaded by the flows crossing it.
func (n *Network) Validate() error {
	var errs []error
	for _, s := range n.Servers {
		var load float64
		var crossing []string
		for _, f := range n.Flows {
			if f.Crosses(s) {
				load += f.Rate
				crossing = append(crossing, f.Alias)
			}
		}
		if load >= s.Rate {
			errs = append(errs, fmt.Errorf("server %q: rate %g, load %g from [%s]: %w",
				s.Alias, s.Rate, load, strings.Join(crossing, ", "), ErrOverloaded))
		}
	}
	return errors.Join(errs...)
}

func (n *Network) lookupServers(aliases []string) ([]*Server, error) {
	servers := make([]*Server, 0, len(aliases))
	for _, alias := range aliases {
		s, ok := n.servers[alias]
		if !ok {
			return nil, fmt.Errorf("%q: %w", alias, ErrUnknownServer)
		}
		servers = append(servers, s)
	}
	return servers, nil
}
