// Package io exports resolution results as text or JSON.
//
// The JSON format is the wire shape shared by the CLI's --format json
// output and the HTTP API responses:
//
//	{
//	  "components": ["kde/kdelibs"],
//	  "branch": "stable",
//	  "mode": "closure",
//	  "order": [
//	    {"component": "tools/cmake"},
//	    {"component": "kde/kdelibs", "branch": "stable"}
//	  ]
//	}
//
// The branch field of an order entry is omitted when the component builds
// from its default branch. Direct mode replaces "order" with a "direct"
// object keyed by requested component, and --waves adds a "waves" array of
// parallel build groups.
package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fkoehler/buildorder/pkg/depdata"
	"github.com/fkoehler/buildorder/pkg/resolve"
)

// Resolution modes as they appear on the wire.
const (
	ModeClosure = "closure"
	ModeDirect  = "direct"
)

// Output formats accepted by [Write].
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Result is the wire form of a resolution run.
type Result struct {
	Components []string         `json:"components"`
	Branch     string           `json:"branch,omitempty"`
	Mode       string           `json:"mode"`
	Order      []Ref            `json:"order,omitempty"`
	Direct     map[string][]Ref `json:"direct,omitempty"`
	Waves      [][]string       `json:"waves,omitempty"`
}

// Ref identifies a component and, when pinned, the branch to build.
type Ref struct {
	Component string `json:"component"`
	Branch    string `json:"branch,omitempty"`
}

func toRef(r depdata.Ref) Ref {
	out := Ref{Component: r.Component}
	if !r.Branch.IsAny() {
		out.Branch = string(r.Branch)
	}
	return out
}

func toRefs(refs []depdata.Ref) []Ref {
	out := make([]Ref, len(refs))
	for i, r := range refs {
		out[i] = toRef(r)
	}
	return out
}

// FromClosure converts a recursive resolution into its wire form.
// Waves may be nil when the caller did not request them.
func FromClosure(components []string, res *resolve.Result, waves [][]string) Result {
	branch := ""
	if !res.Branch.IsAny() {
		branch = string(res.Branch)
	}
	return Result{
		Components: components,
		Branch:     branch,
		Mode:       ModeClosure,
		Order:      toRefs(res.Order),
		Waves:      waves,
	}
}

// FromDirect converts per-component direct dependencies into their wire
// form.
func FromDirect(components []string, branch depdata.Branch, deps map[string][]depdata.Ref) Result {
	out := Result{
		Components: components,
		Mode:       ModeDirect,
		Direct:     make(map[string][]Ref, len(deps)),
	}
	if !branch.IsAny() {
		out.Branch = string(branch)
	}
	for component, refs := range deps {
		out.Direct[component] = toRefs(refs)
	}
	return out
}

// Write encodes res in the given format. Formats are [FormatText] and
// [FormatJSON].
func Write(w io.Writer, res Result, format string) error {
	switch format {
	case FormatText:
		return WriteText(w, res)
	case FormatJSON:
		return WriteJSON(w, res)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteJSON encodes res as indented JSON.
func WriteJSON(w io.Writer, res Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteText renders res for terminals. Closure results print one ref per
// line in build order; waves group the order into parallel build stages;
// direct results group dependencies under their components.
func WriteText(w io.Writer, res Result) error {
	switch {
	case res.Waves != nil:
		for i, wave := range res.Waves {
			if _, err := fmt.Fprintf(w, "wave %d:", i+1); err != nil {
				return err
			}
			for _, component := range wave {
				if _, err := fmt.Fprintf(w, " %s", component); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	case res.Mode == ModeDirect:
		for _, component := range res.Components {
			if _, err := fmt.Fprintf(w, "%s:\n", component); err != nil {
				return err
			}
			deps := res.Direct[component]
			if len(deps) == 0 {
				if _, err := fmt.Fprintln(w, "  (none)"); err != nil {
					return err
				}
				continue
			}
			for _, dep := range deps {
				if _, err := fmt.Fprintf(w, "  %s\n", dep); err != nil {
					return err
				}
			}
		}
	default:
		for _, ref := range res.Order {
			if _, err := fmt.Fprintln(w, ref); err != nil {
				return err
			}
		}
	}
	return nil
}

// String renders the ref the way the dependency data files spell it.
func (r Ref) String() string {
	if r.Branch == "" {
		return r.Component
	}
	return r.Component + "[" + r.Branch + "]"
}
