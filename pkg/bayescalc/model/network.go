package model

import (
	"fmt"
	"sort"

	"github.com/cognicore/bayescalc/pkg/bayescalc/internalerr"
)

// Network holds the variables of a Bayesian network, one CPT factor per
// variable, and the parent->child adjacency. It is populated once by the
// definition loader and read-only afterwards, so concurrent queries need no
// locking.
type Network struct {
	vars    map[string]*Variable
	order   []string
	factors map[string]*Factor
	adj     map[string]map[string]struct{}
}

// NewNetwork creates an empty network.
func NewNetwork() *Network {
	return &Network{
		vars:    make(map[string]*Variable),
		factors: make(map[string]*Factor),
		adj:     make(map[string]map[string]struct{}),
	}
}

// AddVariable registers a variable. Declaration order is preserved and used
// as the deterministic elimination order later on.
func (n *Network) AddVariable(v *Variable) error {
	if len(v.Domain) < 2 {
		return fmt.Errorf("%w: variable %q needs at least two states", internalerr.ErrInvalidNetwork, v.Name)
	}
	seen := make(map[string]struct{}, len(v.Domain))
	for _, val := range v.Domain {
		if _, dup := seen[val]; dup {
			return fmt.Errorf("%w: variable %q repeats state %q", internalerr.ErrInvalidNetwork, v.Name, val)
		}
		seen[val] = struct{}{}
	}
	if _, dup := n.vars[v.Name]; dup {
		return fmt.Errorf("%w: variable %q declared twice", internalerr.ErrInvalidNetwork, v.Name)
	}
	n.vars[v.Name] = v
	n.order = append(n.order, v.Name)
	n.adj[v.Name] = make(map[string]struct{})
	return nil
}

// SetCPT attaches the conditional probability table for child. The factor's
// first variable must be the child itself, followed by its parents; the
// parent->child edges are recorded in the adjacency at the same time so the
// two structures cannot disagree.
func (n *Network) SetCPT(child string, f *Factor) error {
	v, err := n.Variable(child)
	if err != nil {
		return err
	}
	if len(f.Variables) == 0 || f.Variables[0].Name != v.Name {
		return fmt.Errorf("%w: CPT for %q must list %q first", internalerr.ErrInvalidNetwork, child, child)
	}
	for _, parent := range f.Variables[1:] {
		if _, err := n.Variable(parent.Name); err != nil {
			return err
		}
	}
	if _, dup := n.factors[child]; dup {
		return fmt.Errorf("%w: duplicate distribution for %q", internalerr.ErrInvalidNetwork, child)
	}
	n.factors[child] = f
	for _, parent := range f.Variables[1:] {
		n.adj[parent.Name][child] = struct{}{}
	}
	return nil
}

// Variable looks up a variable by name.
func (n *Network) Variable(name string) (*Variable, error) {
	v, ok := n.vars[name]
	if !ok {
		return nil, &internalerr.UnknownVariableError{Name: name}
	}
	return v, nil
}

// HasVariable reports whether name is declared in the network.
func (n *Network) HasVariable(name string) bool {
	_, ok := n.vars[name]
	return ok
}

// VariableOrder returns variable names in declaration order.
func (n *Network) VariableOrder() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Variables returns the variables in declaration order.
func (n *Network) Variables() []*Variable {
	out := make([]*Variable, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.vars[name])
	}
	return out
}

// CPT returns the conditional probability table attached to a variable.
func (n *Network) CPT(name string) (*Factor, bool) {
	f, ok := n.factors[name]
	return f, ok
}

// Factors returns every CPT in declaration order of its child variable.
func (n *Network) Factors() []*Factor {
	out := make([]*Factor, 0, len(n.order))
	for _, name := range n.order {
		if f, ok := n.factors[name]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Parents returns the sorted parent set of a variable. Pure graph lookup, no
// inference involved.
func (n *Network) Parents(name string) ([]string, error) {
	if _, err := n.Variable(name); err != nil {
		return nil, err
	}
	var out []string
	f, ok := n.factors[name]
	if !ok {
		return out, nil
	}
	for _, p := range f.Variables[1:] {
		out = append(out, p.Name)
	}
	sort.Strings(out)
	return out, nil
}

// Children returns the sorted child set of a variable.
func (n *Network) Children(name string) ([]string, error) {
	if _, err := n.Variable(name); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(n.adj[name]))
	for child := range n.adj[name] {
		out = append(out, child)
	}
	sort.Strings(out)
	return out, nil
}

// Adjacency exposes a copy of the parent->child edges for display.
func (n *Network) Adjacency() map[string][]string {
	out := make(map[string][]string, len(n.adj))
	for parent, children := range n.adj {
		list := make([]string, 0, len(children))
		for child := range children {
			list = append(list, child)
		}
		sort.Strings(list)
		out[parent] = list
	}
	return out
}

// Validate checks that every variable carries a CPT and that the parent
// graph is acyclic.
func (n *Network) Validate() error {
	for _, name := range n.order {
		if _, ok := n.factors[name]; !ok {
			return fmt.Errorf("%w: variable %q has no distribution", internalerr.ErrInvalidNetwork, name)
		}
	}
	return n.checkAcyclic()
}

func (n *Network) checkAcyclic() error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(n.order))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("%w: dependency cycle through %q", internalerr.ErrInvalidNetwork, name)
		case done:
			return nil
		}
		state[name] = visiting
		for child := range n.adj[name] {
			if err := visit(child); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for _, name := range n.order {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}
