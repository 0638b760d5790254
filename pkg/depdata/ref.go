package depdata

import (
	"fmt"
	"strings"
)

// CatchAll is the reserved component path "*". As a declaration source it
// introduces implicit edges that apply to every concrete component; the
// resolution engine reuses it as the name of its synthetic root. As the
// target of a negative edge it retracts every accumulated candidate.
const CatchAll = "*"

// Branch identifies a named line of development for a component.
type Branch string

// AnyBranch matches every branch. Omitted branch qualifiers parse to it.
const AnyBranch Branch = "*"

// IsAny reports whether b is the any-branch wildcard.
func (b Branch) IsAny() bool { return b == AnyBranch }

// Ref is a component reference qualified by branch. It is the endpoint of
// every dependency edge and the key of the edge tables.
type Ref struct {
	Component string
	Branch    Branch
}

// String renders the reference as "component[branch]", or just the
// component path when the branch is the any-branch wildcard.
func (r Ref) String() string {
	if r.Branch.IsAny() {
		return r.Component
	}
	return fmt.Sprintf("%s[%s]", r.Component, r.Branch)
}

// Negation is a declared retraction of dependency candidates. When All is
// set (declared as "-*") it clears every candidate accumulated so far;
// otherwise it removes candidates equal to Target, component and branch
// both.
type Negation struct {
	Target Ref
	All    bool
}

func (n Negation) String() string {
	if n.All {
		return "-" + CatchAll
	}
	return "-" + n.Target.String()
}

// IsWildcard reports whether path names a wildcard group ("prefix/*").
func IsWildcard(path string) bool {
	return strings.HasSuffix(path, "/"+CatchAll)
}

// WildcardPrefix strips the "/*" suffix from a wildcard group path.
func WildcardPrefix(path string) string {
	return strings.TrimSuffix(path, "/"+CatchAll)
}

// IsDescendant reports whether component lies strictly below prefix in the
// slash-delimited hierarchy. The prefix itself is not its own descendant.
func IsDescendant(component, prefix string) bool {
	return strings.HasPrefix(component, prefix+"/")
}

// lastSegment returns the part of a component path after the final slash.
func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
