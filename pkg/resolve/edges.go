package resolve

import (
	"github.com/fkoehler/buildorder/pkg/depdata"
)

// effectiveEdges flattens the database layers into the dependency
// candidates of (component, branch), in a fixed order:
//
//  1. wildcard-group edges of every prefix the component sits under
//  2. the implicit edge set, unless the component is one of its members
//  3. direct edges declared for the component at the any branch
//  4. direct edges declared for the component at the requested branch
//  5. negations declared at the any branch
//  6. negations declared at the requested branch
//  7. the self-dependency guard
//
// Each accumulation step collapses duplicates within itself only; a
// candidate contributed by two different steps stays duplicated here and
// is collapsed later by emission dedup.
func (r *resolution) effectiveEdges(component string, branch depdata.Branch) []depdata.Ref {
	var candidates []depdata.Ref

	if !depdata.IsWildcard(component) {
		var fromGroups []depdata.Ref
		for _, prefix := range r.db.WildcardGroups() {
			if !depdata.IsDescendant(component, prefix) {
				continue
			}
			key := depdata.Ref{Component: prefix + "/" + depdata.CatchAll, Branch: depdata.AnyBranch}
			fromGroups = append(fromGroups, r.db.Direct(key)...)
		}
		candidates = appendStep(candidates, fromGroups)
	}

	if !r.db.InImplicitSet(component) {
		candidates = appendStep(candidates, r.db.ImplicitEdges())
	}

	candidates = appendStep(candidates, r.directOf(depdata.Ref{Component: component, Branch: depdata.AnyBranch}))
	if !branch.IsAny() {
		candidates = appendStep(candidates, r.directOf(depdata.Ref{Component: component, Branch: branch}))
	}

	candidates = applyNegations(candidates, r.db.Negations(depdata.Ref{Component: component, Branch: depdata.AnyBranch}))
	if !branch.IsAny() {
		candidates = applyNegations(candidates, r.db.Negations(depdata.Ref{Component: component, Branch: branch}))
	}

	// Self-dependency guard: a component never depends on itself, no
	// matter which branch qualifier the declaration carried.
	kept := candidates[:0]
	for _, c := range candidates {
		if c.Component != component {
			kept = append(kept, c)
		}
	}
	return kept
}

// appendStep appends one accumulation step's edges to the candidate list,
// dropping duplicates within the step.
func appendStep(candidates, step []depdata.Ref) []depdata.Ref {
	if len(step) == 0 {
		return candidates
	}
	seen := make(map[depdata.Ref]struct{}, len(step))
	for _, edge := range step {
		if _, dup := seen[edge]; dup {
			continue
		}
		seen[edge] = struct{}{}
		candidates = append(candidates, edge)
	}
	return candidates
}

// applyNegations removes retracted candidates in declaration order. A
// retract-all clears everything accumulated so far; an exact retraction
// removes candidates equal to its target, component and branch both.
func applyNegations(candidates []depdata.Ref, negations []depdata.Negation) []depdata.Ref {
	for _, neg := range negations {
		if neg.All {
			candidates = candidates[:0]
			continue
		}
		kept := candidates[:0]
		for _, c := range candidates {
			if c != neg.Target {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}
	return candidates
}
