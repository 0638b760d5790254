package depdata

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ParseError reports a malformed declaration in a dependency data file.
type ParseError struct {
	Line   int    // 1-based line number
	Text   string // the offending line, comments stripped
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dependency data line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// ConflictError reports two declarations from the same source key naming
// the same target component with different target branches.
type ConflictError struct {
	Source   Ref
	Target   string
	Existing Branch
	Declared Branch
	Line     int // line of the second declaration
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dependency data line %d: conflicting declarations for %s: target %s wants both branch %q and branch %q",
		e.Line, e.Source, e.Target, e.Existing, e.Declared)
}

// ComponentNotFoundError collects every requested component name that could
// not be matched against the database, so callers can report all failures
// at once instead of stopping at the first.
type ComponentNotFoundError struct {
	Missing   []string            // names with no match at all
	Ambiguous map[string][]string // short name → candidate components
}

func (e *ComponentNotFoundError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("unknown components: %s", strings.Join(e.Missing, ", ")))
	}
	for _, name := range sortedKeys(e.Ambiguous) {
		parts = append(parts, fmt.Sprintf("ambiguous component %q (matches %s)",
			name, strings.Join(e.Ambiguous[name], ", ")))
	}
	if len(parts) == 0 {
		return "component not found"
	}
	return strings.Join(parts, "; ")
}

func (e *ComponentNotFoundError) empty() bool {
	return len(e.Missing) == 0 && len(e.Ambiguous) == 0
}

func sortedKeys(m map[string][]string) []string {
	return slices.Sorted(maps.Keys(m))
}
