// Package depdata loads and queries the dependency database of a
// multi-repository project: a declarative text file listing which
// components must be built before which others.
//
// The database keeps dependency declarations in layered tables. Exact
// edges are keyed by (component, branch); wildcard groups ("prefix/*")
// apply to every strict descendant of the prefix; the reserved source "*"
// declares implicit edges that apply to every concrete component; negative
// edges retract candidates the broader layers introduced. The resolution
// of those layers into one effective edge set per component lives in
// package resolve.
package depdata

import (
	"maps"
	"slices"
)

// Database is the parsed dependency data for one branch group. It is
// immutable after Load returns; concurrent readers need no locking.
type Database struct {
	direct   map[Ref][]Ref      // source key to declared targets, declaration order
	negative map[Ref][]Negation // source key to declared retractions, declaration order

	groups []string // sorted wildcard-group prefixes ("/*" stripped)

	implicit    []Ref           // snapshot of direct edges of (*, *), taken at load
	implicitSet map[string]bool // component membership of the implicit snapshot

	components   []string            // sorted concrete component universe
	componentSet map[string]bool
	bySegment    map[string][]string // final path segment to components, sorted
}

// Direct returns the targets declared for exactly the given source key, in
// declaration order. The returned slice is shared; callers must not modify
// it.
func (db *Database) Direct(key Ref) []Ref {
	return db.direct[key]
}

// Negations returns the retractions declared for exactly the given source
// key, in declaration order. The returned slice is shared; callers must
// not modify it.
func (db *Database) Negations(key Ref) []Negation {
	return db.negative[key]
}

// WildcardGroups returns the sorted prefixes for which a "prefix/*" source
// was declared. Sorting makes layered resolution deterministic and places
// outer groups before nested ones.
func (db *Database) WildcardGroups() []string {
	return db.groups
}

// ImplicitEdges returns the implicit edge set: the direct edges of the
// CatchAll source at the any branch, snapshotted at load time.
func (db *Database) ImplicitEdges() []Ref {
	return db.implicit
}

// InImplicitSet reports whether component is a target of the implicit edge
// set. Such components neither receive implicit edges nor recurse during
// closure resolution, which keeps the catch-all layer from looping onto
// itself.
func (db *Database) InImplicitSet(component string) bool {
	return db.implicitSet[component]
}

// Contains reports whether the exact component path appears anywhere in
// the database, as a declaration source or as an edge target.
func (db *Database) Contains(component string) bool {
	return db.componentSet[component]
}

// AllComponents returns the sorted universe of concrete components known
// to the database. Wildcard and catch-all entries are not components.
func (db *Database) AllComponents() []string {
	return slices.Clone(db.components)
}

// Len returns the number of known concrete components.
func (db *Database) Len() int { return len(db.components) }

// ResolveName maps a user-supplied name to a database component: an exact
// path match wins; otherwise the name must equal the final path segment of
// exactly one component. The error is a *ComponentNotFoundError describing
// the failure.
func (db *Database) ResolveName(name string) (string, error) {
	if db.componentSet[name] {
		return name, nil
	}
	switch matches := db.bySegment[name]; len(matches) {
	case 0:
		return "", &ComponentNotFoundError{Missing: []string{name}}
	case 1:
		return matches[0], nil
	default:
		return "", &ComponentNotFoundError{Ambiguous: map[string][]string{name: matches}}
	}
}

// ValidateComponents maps every requested name to a database component and
// reports all failures together in one *ComponentNotFoundError. With
// assumePresent set, names that match nothing are accepted verbatim, for
// databases known to be incomplete.
func (db *Database) ValidateComponents(names []string, assumePresent bool) ([]string, error) {
	resolved := make([]string, 0, len(names))
	failure := &ComponentNotFoundError{}
	for _, name := range names {
		component, err := db.ResolveName(name)
		if err == nil {
			resolved = append(resolved, component)
			continue
		}
		if assumePresent {
			resolved = append(resolved, name)
			continue
		}
		nf, ok := err.(*ComponentNotFoundError)
		if !ok {
			return nil, err
		}
		failure.Missing = append(failure.Missing, nf.Missing...)
		for short, candidates := range nf.Ambiguous {
			if failure.Ambiguous == nil {
				failure.Ambiguous = make(map[string][]string)
			}
			failure.Ambiguous[short] = candidates
		}
	}
	if !failure.empty() {
		return nil, failure
	}
	return resolved, nil
}

// finalize derives the lookup structures once parsing is done.
func (db *Database) finalize() {
	db.implicit = slices.Clone(db.direct[Ref{Component: CatchAll, Branch: AnyBranch}])
	db.implicitSet = make(map[string]bool, len(db.implicit))
	for _, edge := range db.implicit {
		db.implicitSet[edge.Component] = true
	}

	groupSet := make(map[string]bool)
	db.componentSet = make(map[string]bool)
	collect := func(path string) {
		if path == CatchAll || IsWildcard(path) {
			return
		}
		db.componentSet[path] = true
	}
	for key, targets := range db.direct {
		if IsWildcard(key.Component) {
			groupSet[WildcardPrefix(key.Component)] = true
		}
		collect(key.Component)
		for _, t := range targets {
			collect(t.Component)
		}
	}
	for key, negs := range db.negative {
		if IsWildcard(key.Component) {
			groupSet[WildcardPrefix(key.Component)] = true
		}
		collect(key.Component)
		for _, n := range negs {
			if !n.All {
				collect(n.Target.Component)
			}
		}
	}

	db.groups = slices.Sorted(maps.Keys(groupSet))
	db.components = slices.Sorted(maps.Keys(db.componentSet))
	db.bySegment = make(map[string][]string)
	for _, c := range db.components {
		seg := lastSegment(c)
		db.bySegment[seg] = append(db.bySegment[seg], c)
	}
}
