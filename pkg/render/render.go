// Package render draws dependency closure graphs.
//
// [ToDOT] converts a graph to Graphviz DOT text, and [Render] rasterizes
// DOT to SVG or PNG via the embedded Graphviz engine. The "dot" format
// skips rasterization and returns the DOT text itself, which keeps the
// graph command usable on hosts where rendering is slow.
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/fkoehler/buildorder/pkg/depgraph"
)

// Output formats accepted by [Render].
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds dependency counts to node labels.
	// When false, only the component ref is shown.
	Detailed bool
}

// ToDOT converts a closure graph to Graphviz DOT format.
// Output is deterministic: nodes appear in graph insertion order (build
// order) and edges in first-emission order. Components with no
// dependencies of their own are filled grey to mark the foundation of
// the build.
func ToDOT(g *depgraph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph deps {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, component := range g.Components() {
		label := fmtLabel(g, component, opts.Detailed)
		attrs := fmtAttrs(g, component, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", component, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(g *depgraph.Graph, component string, detailed bool) string {
	ref, _ := g.Ref(component)
	label := ref.String()
	if !detailed {
		return label
	}

	parts := []string{
		fmt.Sprintf("deps: %d", len(g.Dependencies(component))),
		fmt.Sprintf("dependents: %d", len(g.Dependents(component))),
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(g *depgraph.Graph, component, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if len(g.Dependencies(component)) == 0 {
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	return attrs
}

// Render produces image bytes for a DOT graph in the given format.
// FormatDOT returns the DOT text unchanged; FormatSVG and FormatPNG
// rasterize through Graphviz.
func Render(ctx context.Context, dot string, format string) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return renderGraphviz(ctx, dot, graphviz.SVG, normalizeViewBox)
	case FormatPNG:
		return renderGraphviz(ctx, dot, graphviz.PNG, nil)
	default:
		return nil, fmt.Errorf("unknown render format %q", format)
	}
}

func renderGraphviz(ctx context.Context, dot string, format graphviz.Format, post func([]byte) []byte) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	out := buf.Bytes()
	if post != nil {
		out = post(out)
	}
	return out, nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the opening svg tag so the image scales in
// browsers that ignore Graphviz's point-based width/height units.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
