package depdata

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load parses dependency declarations from r into a Database. Every
// non-comment, non-blank line declares one edge:
//
//	source-component[source-branch]: target-component[target-branch]
//
// Branch qualifiers are optional and default to the any branch. A leading
// "-" on the target declares a negative edge. "#" starts a comment.
func Load(r io.Reader) (*Database, error) {
	db := &Database{
		direct:   make(map[Ref][]Ref),
		negative: make(map[Ref][]Negation),
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := db.addDeclaration(line, lineNo); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dependency data: %w", err)
	}

	db.finalize()
	return db, nil
}

// LoadFile parses the dependency data file at path.
func LoadFile(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dependency data: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// addDeclaration parses one stripped line and inserts the declared edge.
func (db *Database) addDeclaration(line string, lineNo int) error {
	fail := func(reason string) error {
		return &ParseError{Line: lineNo, Text: line, Reason: reason}
	}

	if strings.Count(line, ":") != 1 {
		return fail("expected exactly one \":\" separating source and target")
	}
	rawSource, rawTarget, _ := strings.Cut(line, ":")

	source, reason := parseRef(rawSource)
	if reason != "" {
		return fail("source: " + reason)
	}

	rawTarget = strings.TrimSpace(rawTarget)
	negative := strings.HasPrefix(rawTarget, "-")
	if negative {
		rawTarget = rawTarget[1:]
	}
	target, reason := parseRef(rawTarget)
	if reason != "" {
		return fail("target: " + reason)
	}

	if negative {
		return db.insertNegation(source, Negation{
			Target: target,
			All:    target.Component == CatchAll,
		}, lineNo)
	}
	if target.Component == CatchAll {
		return fail("only negative edges may target \"" + CatchAll + "\"")
	}
	return db.insertDirect(source, target, lineNo)
}

// parseRef splits "component[branch]" into its parts. The returned reason
// is empty on success.
func parseRef(s string) (Ref, string) {
	s = strings.TrimSpace(s)
	component, branch := s, AnyBranch
	if i := strings.IndexByte(s, '['); i >= 0 {
		if !strings.HasSuffix(s, "]") {
			return Ref{}, "unterminated branch qualifier"
		}
		component = strings.TrimSpace(s[:i])
		b := strings.TrimSpace(s[i+1 : len(s)-1])
		if b == "" {
			return Ref{}, "empty branch qualifier"
		}
		branch = Branch(b)
	}
	if component == "" {
		return Ref{}, "missing component path"
	}
	if strings.ContainsAny(component, " \t") {
		return Ref{}, "component path contains whitespace"
	}
	return Ref{Component: component, Branch: branch}, ""
}

// insertDirect records a positive edge, enforcing that one source key
// declares at most one target branch per target component. Redeclaring the
// identical edge is accepted and collapsed.
func (db *Database) insertDirect(source, target Ref, lineNo int) error {
	for _, have := range db.direct[source] {
		if have.Component != target.Component {
			continue
		}
		if have.Branch == target.Branch {
			return nil
		}
		return &ConflictError{
			Source:   source,
			Target:   target.Component,
			Existing: have.Branch,
			Declared: target.Branch,
			Line:     lineNo,
		}
	}
	db.direct[source] = append(db.direct[source], target)
	return nil
}

// insertNegation records a retraction under the same one-branch-per-target
// rule as insertDirect.
func (db *Database) insertNegation(source Ref, neg Negation, lineNo int) error {
	for _, have := range db.negative[source] {
		if have.All != neg.All || have.Target.Component != neg.Target.Component {
			continue
		}
		if have.All || have.Target.Branch == neg.Target.Branch {
			return nil
		}
		return &ConflictError{
			Source:   source,
			Target:   neg.Target.Component,
			Existing: have.Target.Branch,
			Declared: neg.Target.Branch,
			Line:     lineNo,
		}
	}
	db.negative[source] = append(db.negative[source], neg)
	return nil
}
