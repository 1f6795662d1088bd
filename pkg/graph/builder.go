package graph

import (
	"errors"
	"fmt"
	"slices"
)

type conditional struct {
	router  Router
	targets []string
}

// Builder manages the graph construction.
type Builder struct {
	name  string
	nodes map[string]Node
	order []string
	edges map[string]string
	conds map[string]conditional
	entry string
	errs  []error
}

// New creates a new graph builder.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		nodes: make(map[string]Node),
		edges: make(map[string]string),
		conds: make(map[string]conditional),
	}
}

// AddNode registers a node under its Name.
func (b *Builder) AddNode(n Node) *Builder {
	id := n.Name()
	switch {
	case id == "" || id == Start || id == End:
		b.errs = append(b.errs, fmt.Errorf("graph %s: invalid node name %q", b.name, id))
		return b
	case b.nodes[id] != nil:
		b.errs = append(b.errs, fmt.Errorf("graph %s: duplicate node %q", b.name, id))
		return b
	}
	b.nodes[id] = n
	b.order = append(b.order, id)
	return b
}

// AddEdge connects two nodes. Use Start as from to set the entry node and End as to
// to finish the run.
func (b *Builder) AddEdge(from, to string) *Builder {
	if from == End || to == Start {
		b.errs = append(b.errs, fmt.Errorf("graph %s: edge %s -> %s goes the wrong way", b.name, from, to))
		return b
	}
	if from == Start {
		if b.entry != "" {
			b.errs = append(b.errs, fmt.Errorf("graph %s: entry already set to %q", b.name, b.entry))
			return b
		}
		b.entry = to
		return b
	}
	if _, dup := b.edges[from]; dup {
		b.errs = append(b.errs, fmt.Errorf("graph %s: node %q already has an outgoing edge", b.name, from))
		return b
	}
	b.edges[from] = to
	return b
}

// AddConditionalEdge makes router decide where to go after from.
// targets declares every node (or End) the router may return.
func (b *Builder) AddConditionalEdge(from string, router Router, targets ...string) *Builder {
	if from == Start || from == End {
		b.errs = append(b.errs, fmt.Errorf("graph %s: conditional edge cannot leave %s", b.name, from))
		return b
	}
	if router == nil || len(targets) == 0 {
		b.errs = append(b.errs, fmt.Errorf("graph %s: conditional edge from %q needs a router and targets", b.name, from))
		return b
	}
	if _, dup := b.conds[from]; dup {
		b.errs = append(b.errs, fmt.Errorf("graph %s: node %q already has a conditional edge", b.name, from))
		return b
	}
	b.conds[from] = conditional{router: router, targets: slices.Clone(targets)}
	return b
}

// Compile validates the wiring and returns an immutable Graph.
func (b *Builder) Compile(opts ...Option) (*Graph, error) {
	errs := slices.Clone(b.errs)

	if b.entry == "" {
		errs = append(errs, fmt.Errorf("graph %s: no edge from Start", b.name))
	} else if b.nodes[b.entry] == nil {
		errs = append(errs, fmt.Errorf("graph %s: entry references unknown node %q", b.name, b.entry))
	}

	for from, to := range b.edges {
		if b.nodes[from] == nil {
			errs = append(errs, fmt.Errorf("graph %s: edge references unknown node %q", b.name, from))
		}
		if to != End && b.nodes[to] == nil {
			errs = append(errs, fmt.Errorf("graph %s: edge %q -> %q references unknown node", b.name, from, to))
		}
	}
	for from, c := range b.conds {
		if b.nodes[from] == nil {
			errs = append(errs, fmt.Errorf("graph %s: conditional edge references unknown node %q", b.name, from))
		}
		if _, both := b.edges[from]; both {
			errs = append(errs, fmt.Errorf("graph %s: node %q has both a static and a conditional edge", b.name, from))
		}
		for _, to := range c.targets {
			if to != End && b.nodes[to] == nil {
				errs = append(errs, fmt.Errorf("graph %s: conditional target %q of %q is unknown", b.name, to, from))
			}
		}
	}
	for _, id := range b.order {
		_, static := b.edges[id]
		_, cond := b.conds[id]
		if !static && !cond {
			errs = append(errs, fmt.Errorf("graph %s: node %q has no outgoing edge", b.name, id))
		}
	}
	if cyc := b.staticCycle(); cyc != "" {
		errs = append(errs, fmt.Errorf("graph %s: static edges form a cycle through %q; loops need a conditional edge", b.name, cyc))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	g := &Graph{
		name:          b.name,
		entry:         b.entry,
		nodes:         make(map[string]Node, len(b.nodes)),
		order:         slices.Clone(b.order),
		edges:         make(map[string]string, len(b.edges)),
		conds:         make(map[string]conditional, len(b.conds)),
		maxIterations: DefaultMaxIterations,
	}
	for k, v := range b.nodes {
		g.nodes[k] = v
	}
	for k, v := range b.edges {
		g.edges[k] = v
	}
	for k, v := range b.conds {
		g.conds[k] = conditional{router: v.router, targets: slices.Clone(v.targets)}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// staticCycle returns a node on a cycle made only of static edges, or "".
// Every node has at most one static successor, so walking len(nodes) hops
// without reaching End means we are looping.
func (b *Builder) staticCycle() string {
	for _, start := range b.order {
		cur := start
		for range len(b.order) + 1 {
			next, ok := b.edges[cur]
			if !ok || next == End {
				cur = ""
				break
			}
			cur = next
		}
		if cur != "" {
			return cur
		}
	}
	return ""
}
