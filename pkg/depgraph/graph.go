// Package depgraph models a resolved dependency closure as a directed
// graph: one node per component, edges pointing from a dependent to its
// dependency. It validates acyclicity and groups components into build
// waves that may proceed in parallel.
package depgraph

import (
	"errors"

	"github.com/fkoehler/buildorder/pkg/depdata"
)

var (
	// ErrInvalidComponent is returned by [Graph.Add] when the component
	// path is empty. All nodes must have non-empty identifiers.
	ErrInvalidComponent = errors.New("component path must not be empty")

	// ErrDuplicateComponent is returned by [Graph.Add] when the component
	// is already present in the graph.
	ErrDuplicateComponent = errors.New("duplicate component")

	// ErrUnknownComponent is returned by [Graph.Connect] when either
	// endpoint has not been added to the graph.
	ErrUnknownComponent = errors.New("unknown component")

	// ErrDuplicateEdge is returned by [Graph.Connect] when the same
	// dependent/dependency pair is connected twice.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrGraphHasCycle is returned by [Graph.Validate] and [Graph.Waves]
	// when a directed cycle is detected. Closures produced by the
	// resolution engine are acyclic by construction; graphs assembled
	// from external data may not be.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Edge is a directed connection from a dependent component to one of its
// dependencies.
type Edge struct {
	From string // dependent
	To   string // dependency
}

// Graph is a dependency closure. Insertion order of components is
// preserved and used as the tie-break order everywhere, so a graph built
// in build order stays in build order.
//
// The zero value is not usable, use [New]. Graph is not safe for
// concurrent mutation.
type Graph struct {
	branches   map[string]depdata.Branch
	order      []string            // components in insertion order
	edges      []Edge
	deps       map[string][]string // dependent to dependencies, insertion order
	dependents map[string][]string // dependency to dependents, insertion order
	edgeSet    map[Edge]bool
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		branches:   make(map[string]depdata.Branch),
		deps:       make(map[string][]string),
		dependents: make(map[string][]string),
		edgeSet:    make(map[Edge]bool),
	}
}

// Add inserts a component at its resolved branch.
func (g *Graph) Add(component string, branch depdata.Branch) error {
	if component == "" {
		return ErrInvalidComponent
	}
	if _, exists := g.branches[component]; exists {
		return ErrDuplicateComponent
	}
	g.branches[component] = branch
	g.order = append(g.order, component)
	return nil
}

// Connect records that from depends on to. Both components must already
// be present.
func (g *Graph) Connect(from, to string) error {
	if _, ok := g.branches[from]; !ok {
		return ErrUnknownComponent
	}
	if _, ok := g.branches[to]; !ok {
		return ErrUnknownComponent
	}
	e := Edge{From: from, To: to}
	if g.edgeSet[e] {
		return ErrDuplicateEdge
	}
	g.edgeSet[e] = true
	g.edges = append(g.edges, e)
	g.deps[from] = append(g.deps[from], to)
	g.dependents[to] = append(g.dependents[to], from)
	return nil
}

// Contains reports whether the component is in the graph.
func (g *Graph) Contains(component string) bool {
	_, ok := g.branches[component]
	return ok
}

// Branch returns the resolved branch of a component.
func (g *Graph) Branch(component string) (depdata.Branch, bool) {
	b, ok := g.branches[component]
	return b, ok
}

// Ref returns the component at its resolved branch.
func (g *Graph) Ref(component string) (depdata.Ref, bool) {
	b, ok := g.branches[component]
	return depdata.Ref{Component: component, Branch: b}, ok
}

// Components returns all components in insertion order. The returned
// slice is a copy.
func (g *Graph) Components() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Edges returns all edges in insertion order. The returned slice is a
// copy.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Dependencies returns the components that component depends on directly.
// The returned slice should not be modified.
func (g *Graph) Dependencies(component string) []string { return g.deps[component] }

// Dependents returns the components that depend on component directly.
// The returned slice should not be modified.
func (g *Graph) Dependents(component string) []string { return g.dependents[component] }

// Len returns the number of components.
func (g *Graph) Len() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Leaves returns the components with no dependencies inside the closure,
// in insertion order.
func (g *Graph) Leaves() []string {
	var leaves []string
	for _, c := range g.order {
		if len(g.deps[c]) == 0 {
			leaves = append(leaves, c)
		}
	}
	return leaves
}

// Validate returns nil if the graph is acyclic, ErrGraphHasCycle
// otherwise. Detection is depth-first search with white/gray/black
// coloring, O(N+E).
func (g *Graph) Validate() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.order))
	var hasCycle bool

	var dfs func(component string)
	dfs = func(component string) {
		color[component] = gray
		for _, dep := range g.deps[component] {
			switch color[dep] {
			case white:
				dfs(dep)
			case gray:
				hasCycle = true
				return
			}
		}
		color[component] = black
	}

	for _, c := range g.order {
		if color[c] == white {
			dfs(c)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}
