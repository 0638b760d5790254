// Package resolve turns a dependency database into build orders. It
// layers wildcard, implicit, exact and negative declarations into one
// effective edge set per component, then walks the closure depth-first to
// emit every component after everything it depends on.
package resolve

import (
	"github.com/fkoehler/buildorder/pkg/depdata"
)

// Engine resolves build orders against one immutable database. It holds
// no per-call state, so a single Engine may serve concurrent resolutions.
type Engine struct {
	db *depdata.Database
}

// New returns an Engine over db.
func New(db *depdata.Database) *Engine {
	return &Engine{db: db}
}

// Closure resolves the full transitive dependency closure of the given
// components (database paths, already validated) at the given branch, and
// returns it in build order. Cycles and contradictory branch requests
// surface as *CycleError and *BranchConflictError.
func (e *Engine) Closure(components []string, branch depdata.Branch) (*Result, error) {
	res := newResolution(e.db, components, branch)
	root, err := res.node(depdata.CatchAll, branch)
	if err != nil {
		return nil, err
	}
	return &Result{
		Requested: res.roots,
		Branch:    branch,
		Order:     buildOrder(root),
		root:      root,
	}, nil
}

// Direct computes the immediate effective edge set of one component at the
// given branch: the layered declarations flattened, negations applied, no
// recursion. Listing several components this way promises nothing about a
// globally valid order; only Closure does.
func (e *Engine) Direct(component string, branch depdata.Branch) []depdata.Ref {
	res := newResolution(e.db, nil, branch)
	return res.effectiveEdges(component, branch)
}

// visitState tracks a component through the memoized build. The in
// progress marker is what turns unbounded recursion into a reported
// cycle.
type visitState int

const (
	unvisited visitState = iota
	inProgress
	done
)

// resolution is the per-call state: memo cache, visit markers, the
// recursion stack for cycle reporting, and the synthetic-root overlay.
// The database itself is only ever read.
type resolution struct {
	db    *depdata.Database
	roots []depdata.Ref // overlay: direct edges of the synthetic root
	nodes map[string]*Node
	state map[string]visitState
	stack []string
}

func newResolution(db *depdata.Database, components []string, branch depdata.Branch) *resolution {
	roots := make([]depdata.Ref, 0, len(components))
	for _, c := range components {
		roots = append(roots, depdata.Ref{Component: c, Branch: branch})
	}
	return &resolution{
		db:    db,
		roots: roots,
		nodes: make(map[string]*Node),
		state: make(map[string]visitState),
	}
}

// Node is one resolved component in the closure tree. Children are the
// component's effective dependencies in resolution order; a component
// reached on several paths is represented by one shared node.
type Node struct {
	Component string
	Branch    depdata.Branch
	Children  []*Node
}

// Ref returns the node's component at its resolved branch.
func (n *Node) Ref() depdata.Ref {
	return depdata.Ref{Component: n.Component, Branch: n.Branch}
}

// node returns the memoized node for component, building it on first
// request. The memo is keyed by component alone: the first requested
// branch sticks, and a later request for a different concrete branch is a
// *BranchConflictError. Re-entering a component that is still being
// populated is a *CycleError.
func (r *resolution) node(component string, branch depdata.Branch) (*Node, error) {
	switch r.state[component] {
	case inProgress:
		return nil, &CycleError{Path: cyclePath(r.stack, component)}
	case done:
		n := r.nodes[component]
		if !n.Branch.IsAny() && !branch.IsAny() && n.Branch != branch {
			return nil, &BranchConflictError{
				Component: component,
				Existing:  n.Branch,
				Requested: branch,
			}
		}
		return n, nil
	}

	n := &Node{Component: component, Branch: branch}
	r.nodes[component] = n
	r.state[component] = inProgress
	r.stack = append(r.stack, component)

	// Members of the implicit edge set stay leaves: the catch-all layer
	// applies to everything else, so recursing into its own members would
	// chase the catch-all in circles.
	if !r.db.InImplicitSet(component) {
		edges := r.effectiveEdges(component, branch)
		n.Children = make([]*Node, 0, len(edges))
		for _, edge := range edges {
			child, err := r.node(edge.Component, edge.Branch)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
	}

	r.stack = r.stack[:len(r.stack)-1]
	r.state[component] = done
	return n, nil
}

// directOf reads the direct edges of key, merging in the synthetic-root
// overlay when key is the catch-all source. The database tables are never
// written.
func (r *resolution) directOf(key depdata.Ref) []depdata.Ref {
	edges := r.db.Direct(key)
	if key.Component != depdata.CatchAll || !key.Branch.IsAny() || len(r.roots) == 0 {
		return edges
	}
	merged := make([]depdata.Ref, 0, len(edges)+len(r.roots))
	merged = append(merged, edges...)
	merged = append(merged, r.roots...)
	return merged
}

// cyclePath slices the recursion stack from the first occurrence of the
// repeated component and closes the loop.
func cyclePath(stack []string, repeated string) []string {
	start := 0
	for i, c := range stack {
		if c == repeated {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	path = append(path, stack[start:]...)
	path = append(path, repeated)
	return path
}
