package depgraph

import (
	"errors"
	"slices"
	"testing"
)

func TestWaves_Chain(t *testing.T) {
	g := buildGraph(t, []string{"base", "mid", "top"}, [][2]string{
		{"mid", "base"},
		{"top", "mid"},
	})

	waves, err := g.Waves()
	if err != nil {
		t.Fatalf("Waves() error: %v", err)
	}
	want := [][]string{{"base"}, {"mid"}, {"top"}}
	if len(waves) != len(want) {
		t.Fatalf("Waves() = %v, want %v", waves, want)
	}
	for i := range want {
		if !slices.Equal(waves[i], want[i]) {
			t.Errorf("wave %d = %v, want %v", i, waves[i], want[i])
		}
	}
}

func TestWaves_Diamond(t *testing.T) {
	// top depends on left and right, both depend on base: the middle two
	// share a wave.
	g := buildGraph(t, []string{"base", "left", "right", "top"}, [][2]string{
		{"left", "base"},
		{"right", "base"},
		{"top", "left"},
		{"top", "right"},
	})

	waves, err := g.Waves()
	if err != nil {
		t.Fatalf("Waves() error: %v", err)
	}
	if len(waves) != 3 {
		t.Fatalf("len(Waves()) = %d, want 3", len(waves))
	}
	if !slices.Equal(waves[1], []string{"left", "right"}) {
		t.Errorf("wave 1 = %v, want [left right]", waves[1])
	}
}

func TestWaves_LongestPathWins(t *testing.T) {
	// top depends on base both directly and through mid: top must sit
	// above the longest chain.
	g := buildGraph(t, []string{"base", "mid", "top"}, [][2]string{
		{"mid", "base"},
		{"top", "base"},
		{"top", "mid"},
	})

	waves, err := g.Waves()
	if err != nil {
		t.Fatalf("Waves() error: %v", err)
	}
	if len(waves) != 3 {
		t.Fatalf("len(Waves()) = %d, want 3", len(waves))
	}
	if !slices.Equal(waves[2], []string{"top"}) {
		t.Errorf("wave 2 = %v, want [top]", waves[2])
	}
}

func TestWaves_IndependentComponents(t *testing.T) {
	g := buildGraph(t, []string{"one", "two", "three"}, nil)

	waves, err := g.Waves()
	if err != nil {
		t.Fatalf("Waves() error: %v", err)
	}
	if len(waves) != 1 {
		t.Fatalf("len(Waves()) = %d, want 1", len(waves))
	}
	if !slices.Equal(waves[0], []string{"one", "two", "three"}) {
		t.Errorf("wave 0 = %v, want insertion order", waves[0])
	}
}

func TestWaves_Empty(t *testing.T) {
	waves, err := New().Waves()
	if err != nil {
		t.Fatalf("Waves() error: %v", err)
	}
	if waves != nil {
		t.Errorf("Waves() = %v, want nil", waves)
	}
}

func TestWaves_CycleDetected(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, [][2]string{
		{"a", "b"},
		{"b", "a"},
	})

	_, err := g.Waves()
	if !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("Waves() error = %v, want ErrGraphHasCycle", err)
	}
}
