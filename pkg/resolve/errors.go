package resolve

import (
	"fmt"
	"strings"

	"github.com/fkoehler/buildorder/pkg/depdata"
)

// CycleError reports a dependency cycle discovered during closure
// resolution. Path lists the components along the cycle, first repeated
// last.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// BranchConflictError reports a component reached at two different
// concrete branches within one resolution. The first resolved branch
// sticks; the engine never silently widens or rewrites it.
type BranchConflictError struct {
	Component string
	Existing  depdata.Branch
	Requested depdata.Branch
}

func (e *BranchConflictError) Error() string {
	return fmt.Sprintf("branch conflict on %s: already resolved at branch %q, also requested at branch %q",
		e.Component, e.Existing, e.Requested)
}
