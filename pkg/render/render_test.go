package render

import (
	"context"
	"strings"
	"testing"

	"github.com/fkoehler/buildorder/pkg/depdata"
	"github.com/fkoehler/buildorder/pkg/depgraph"
)

func buildGraph(t *testing.T) *depgraph.Graph {
	t.Helper()
	g := depgraph.New()
	for _, ref := range []depdata.Ref{
		{Component: "tools/cmake", Branch: depdata.AnyBranch},
		{Component: "kde/kdelibs", Branch: "stable"},
		{Component: "kde/kdebase", Branch: depdata.AnyBranch},
	} {
		if err := g.Add(ref.Component, ref.Branch); err != nil {
			t.Fatalf("Add(%v) error: %v", ref, err)
		}
	}
	for _, e := range [][2]string{
		{"kde/kdelibs", "tools/cmake"},
		{"kde/kdebase", "kde/kdelibs"},
	} {
		if err := g.Connect(e[0], e[1]); err != nil {
			t.Fatalf("Connect(%s, %s) error: %v", e[0], e[1], err)
		}
	}
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(buildGraph(t), Options{})

	for _, fragment := range []string{
		"digraph deps {",
		"rankdir=TB;",
		`"tools/cmake" [label="tools/cmake", fillcolor=lightgrey];`,
		`"kde/kdelibs" [label="kde/kdelibs[stable]"];`,
		`"kde/kdelibs" -> "tools/cmake";`,
		`"kde/kdebase" -> "kde/kdelibs";`,
	} {
		if !strings.Contains(dot, fragment) {
			t.Errorf("ToDOT() missing %q:\n%s", fragment, dot)
		}
	}
}

func TestToDOT_Deterministic(t *testing.T) {
	want := ToDOT(buildGraph(t), Options{})
	for range 10 {
		if got := ToDOT(buildGraph(t), Options{}); got != want {
			t.Fatal("ToDOT() output varies between runs")
		}
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(buildGraph(t), Options{Detailed: true})

	if !strings.Contains(dot, `deps: 1\ndependents: 1`) {
		t.Errorf("ToDOT(Detailed) missing count lines for kde/kdelibs:\n%s", dot)
	}
}

func TestToDOT_NodesInInsertionOrder(t *testing.T) {
	dot := ToDOT(buildGraph(t), Options{})

	cmake := strings.Index(dot, `"tools/cmake" [`)
	kdelibs := strings.Index(dot, `"kde/kdelibs" [`)
	kdebase := strings.Index(dot, `"kde/kdebase" [`)
	if cmake == -1 || kdelibs == -1 || kdebase == -1 {
		t.Fatalf("ToDOT() missing node statements:\n%s", dot)
	}
	if !(cmake < kdelibs && kdelibs < kdebase) {
		t.Errorf("ToDOT() nodes out of insertion order:\n%s", dot)
	}
}

func TestRender_DOTPassthrough(t *testing.T) {
	dot := ToDOT(buildGraph(t), Options{})

	out, err := Render(context.Background(), dot, FormatDOT)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if string(out) != dot {
		t.Error("Render(dot) altered the DOT text")
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	if _, err := Render(context.Background(), "digraph deps {}", "gif"); err == nil {
		t.Error("Render() = nil error, want unknown format failure")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	svg := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg">`)

	got := string(normalizeViewBox(svg))
	if !strings.Contains(got, `viewBox="0 0 100.00 50.00"`) {
		t.Errorf("normalizeViewBox() = %s", got)
	}
	if !strings.Contains(got, `width="100" height="50"`) {
		t.Errorf("normalizeViewBox() kept point units: %s", got)
	}
}

func TestNormalizeViewBox_NoViewBox(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg">`)
	if got := normalizeViewBox(svg); string(got) != string(svg) {
		t.Errorf("normalizeViewBox() = %s, want unchanged", got)
	}
}
