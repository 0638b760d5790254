package resolve

import (
	"github.com/fkoehler/buildorder/pkg/depdata"
	"github.com/fkoehler/buildorder/pkg/depgraph"
)

// Result is one resolved closure: every component reachable from the
// requested roots, in build order.
type Result struct {
	Requested []depdata.Ref // the roots, at the requested branch
	Branch    depdata.Branch
	Order     []depdata.Ref // dependency-first, each component exactly once

	root *Node
}

// buildOrder emits the closure tree depth-first post-order: children in
// stored order, then the node itself, with a global emitted set collapsing
// repeats. The walk still descends into already-emitted nodes; the
// synthetic root is traversed but never emitted.
func buildOrder(root *Node) []depdata.Ref {
	emitted := make(map[string]bool)
	var order []depdata.Ref

	var walk func(n *Node)
	walk = func(n *Node) {
		for _, child := range n.Children {
			walk(child)
		}
		if n.Component == depdata.CatchAll || emitted[n.Component] {
			return
		}
		emitted[n.Component] = true
		order = append(order, n.Ref())
	}
	walk(root)
	return order
}

// Graph flattens the closure into a dependency graph: one node per
// emitted component, one edge per dependent/dependency pair, both in
// build-order-first traversal order. Useful for wave computation and
// rendering.
func (res *Result) Graph() *depgraph.Graph {
	g := depgraph.New()
	for _, ref := range res.Order {
		_ = g.Add(ref.Component, ref.Branch)
	}

	type pair struct{ from, to string }
	connected := make(map[pair]bool)
	visited := make(map[*Node]bool)

	var walk func(n *Node)
	walk = func(n *Node) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, child := range n.Children {
			walk(child)
			if n.Component == depdata.CatchAll {
				continue
			}
			p := pair{from: n.Component, to: child.Component}
			if connected[p] {
				continue
			}
			connected[p] = true
			_ = g.Connect(p.from, p.to)
		}
	}
	walk(res.root)
	return g
}
