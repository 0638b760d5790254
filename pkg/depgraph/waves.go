package depgraph

// Waves groups the closure into build waves: wave 0 holds components with
// no dependencies inside the closure, and every later wave holds
// components whose dependencies all sit in earlier waves. Components of
// one wave can build in parallel once the previous wave is done.
//
// # Algorithm
//
// Waves computes longest-path levels via topological sort (Kahn's
// algorithm) over the dependency direction:
//  1. Seed the queue with components of zero out-degree (no dependencies)
//  2. Process the queue: a component's level is one plus the maximum
//     level of its dependencies
//  3. Decrement each dependent's pending-dependency counter; enqueue
//     those that reach zero
//
// Components keep their insertion-order position inside each wave, so a
// graph built in build order yields waves in build order.
//
// # Cycles
//
// A cyclic graph cannot be leveled; Waves returns ErrGraphHasCycle.
//
// # Performance
//
// Time and space are O(V + E).
func (g *Graph) Waves() ([][]string, error) {
	level := make(map[string]int, len(g.order))
	pending := make(map[string]int, len(g.order))
	queue := make([]string, 0, len(g.order))

	for _, c := range g.order {
		deps := len(g.deps[c])
		pending[c] = deps
		if deps == 0 {
			queue = append(queue, c)
		}
	}

	leveled := 0
	maxLevel := 0
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		leveled++

		for _, dep := range g.deps[curr] {
			if lvl := level[dep] + 1; lvl > level[curr] {
				level[curr] = lvl
			}
		}
		if level[curr] > maxLevel {
			maxLevel = level[curr]
		}

		for _, dependent := range g.dependents[curr] {
			pending[dependent]--
			if pending[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}
	if leveled != len(g.order) {
		return nil, ErrGraphHasCycle
	}
	if len(g.order) == 0 {
		return nil, nil
	}

	waves := make([][]string, maxLevel+1)
	for _, c := range g.order {
		waves[level[c]] = append(waves[level[c]], c)
	}
	return waves, nil
}
