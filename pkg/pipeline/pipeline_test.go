package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/fkoehler/buildorder/pkg/cache"
)

const sampleData = `# sample build dependencies
kde/kdelibs: tools/cmake
kde/kdelibs: qt/qt5
kde/kdebase: kde/kdelibs
*: tools/cmake
`

func writeDataFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dependency-data-stable")
	if err := os.WriteFile(path, []byte(sampleData), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func newTestRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	return NewRunner(c, nil, log.New(io.Discard))
}

func newFileCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	return c
}

func orderComponents(res Result) []string {
	out := make([]string, len(res.Resolution.Order))
	for i, ref := range res.Resolution.Order {
		out[i] = ref.Component
	}
	return out
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", true},
		{"DOT", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsValidateForResolve(t *testing.T) {
	// Missing data file
	opts := Options{Components: []string{"kde/kdelibs"}}
	if err := opts.ValidateForResolve(); err == nil {
		t.Error("Missing data file should fail")
	}

	// Missing components
	opts = Options{DataFile: "dependency-data-stable"}
	if err := opts.ValidateForResolve(); err == nil {
		t.Error("Missing components should fail")
	}

	// Waves with direct mode
	opts = Options{
		DataFile:   "dependency-data-stable",
		Components: []string{"kde/kdelibs"},
		Direct:     true,
		Waves:      true,
	}
	if err := opts.ValidateForResolve(); err == nil {
		t.Error("Waves with direct mode should fail")
	}

	// Valid options normalize the branch
	opts = Options{DataFile: "dependency-data-stable", Components: []string{"kde/kdelibs"}}
	if err := opts.ValidateForResolve(); err != nil {
		t.Errorf("Valid options should pass: %v", err)
	}
	if opts.Branch != "*" {
		t.Errorf("Branch = %q, want normalized to *", opts.Branch)
	}
}

func TestOptionsValidateForRender(t *testing.T) {
	// Direct mode cannot render
	opts := Options{
		DataFile:   "dependency-data-stable",
		Components: []string{"kde/kdelibs"},
		Direct:     true,
	}
	if err := opts.ValidateForRender(); err == nil {
		t.Error("Direct mode render should fail")
	}

	// Default format applied
	opts = Options{DataFile: "dependency-data-stable", Components: []string{"kde/kdelibs"}}
	if err := opts.ValidateForRender(); err != nil {
		t.Fatalf("ValidateForRender() error: %v", err)
	}
	if opts.Format != DefaultFormat {
		t.Errorf("Format = %q, want %q", opts.Format, DefaultFormat)
	}

	// Invalid format rejected
	opts = Options{
		DataFile:   "dependency-data-stable",
		Components: []string{"kde/kdelibs"},
		Format:     "gif",
	}
	if err := opts.ValidateForRender(); err == nil {
		t.Error("Invalid format should fail")
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{DataFile: "dependency-data-stable", Components: []string{"kde/kdelibs"}}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	branch := opts.Branch

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if opts.Branch != branch {
		t.Error("Branch changed on second call")
	}
}

func TestRunnerLoad(t *testing.T) {
	runner := newTestRunner(t, nil)
	path := writeDataFile(t)

	db, hash, err := runner.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if db.Len() != 4 {
		t.Errorf("db.Len() = %d, want 4", db.Len())
	}

	want, err := cache.HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error: %v", err)
	}
	if hash != want {
		t.Errorf("Load() hash = %q, want %q", hash, want)
	}
}

func TestRunnerLoad_MissingFile(t *testing.T) {
	runner := newTestRunner(t, nil)
	if _, _, err := runner.Load(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("Load() = nil error, want failure for missing file")
	}
}

func TestRunnerExecute_Closure(t *testing.T) {
	runner := newTestRunner(t, nil)
	opts := Options{DataFile: writeDataFile(t), Components: []string{"kde/kdebase"}}

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	want := []string{"tools/cmake", "qt/qt5", "kde/kdelibs", "kde/kdebase"}
	if got := orderComponents(*result); !slices.Equal(got, want) {
		t.Errorf("Execute() order = %v, want %v", got, want)
	}
	if result.Stats.ComponentCount != 4 {
		t.Errorf("Stats.ComponentCount = %d, want 4", result.Stats.ComponentCount)
	}
	if result.Stats.OrderSize != 4 {
		t.Errorf("Stats.OrderSize = %d, want 4", result.Stats.OrderSize)
	}
	if result.DataHash == "" {
		t.Error("DataHash is empty")
	}
	if result.Artifact != nil {
		t.Error("Artifact should be nil without a render format")
	}
}

func TestRunnerExecute_SuffixMatch(t *testing.T) {
	runner := newTestRunner(t, nil)
	opts := Options{DataFile: writeDataFile(t), Components: []string{"kdebase"}}

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if got := result.Resolution.Components; !slices.Equal(got, []string{"kde/kdebase"}) {
		t.Errorf("Resolution.Components = %v, want canonical [kde/kdebase]", got)
	}
}

func TestRunnerExecute_UnknownComponent(t *testing.T) {
	runner := newTestRunner(t, nil)
	opts := Options{DataFile: writeDataFile(t), Components: []string{"no/such"}}

	if _, err := runner.Execute(context.Background(), opts); err == nil {
		t.Error("Execute() = nil error, want unknown component failure")
	}
}

func TestRunnerExecute_Waves(t *testing.T) {
	runner := newTestRunner(t, nil)
	opts := Options{DataFile: writeDataFile(t), Components: []string{"kde/kdebase"}, Waves: true}

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	want := [][]string{{"tools/cmake"}, {"qt/qt5"}, {"kde/kdelibs"}, {"kde/kdebase"}}
	got := result.Resolution.Waves
	if len(got) != len(want) {
		t.Fatalf("Waves = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("Waves[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRunnerExecute_Direct(t *testing.T) {
	runner := newTestRunner(t, nil)
	opts := Options{DataFile: writeDataFile(t), Components: []string{"kde/kdelibs"}, Direct: true}

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	deps := result.Resolution.Direct["kde/kdelibs"]
	// Implicit tools/cmake and the direct declaration both survive: direct
	// mode reports the layered edge set verbatim.
	want := []string{"tools/cmake", "tools/cmake", "qt/qt5"}
	got := make([]string, len(deps))
	for i, d := range deps {
		got[i] = d.Component
	}
	if !slices.Equal(got, want) {
		t.Errorf("Direct deps = %v, want %v", got, want)
	}
}

func TestRunnerResolve_CacheRoundTrip(t *testing.T) {
	c := newFileCache(t)
	runner := newTestRunner(t, c)
	path := writeDataFile(t)
	opts := Options{DataFile: path, Components: []string{"kde/kdebase"}}

	db, hash, err := runner.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	first, hit, err := runner.ResolveWithCacheInfo(context.Background(), db, hash, opts)
	if err != nil {
		t.Fatalf("ResolveWithCacheInfo() error: %v", err)
	}
	if hit {
		t.Error("first resolve reported a cache hit")
	}

	second, hit, err := runner.ResolveWithCacheInfo(context.Background(), db, hash, opts)
	if err != nil {
		t.Fatalf("ResolveWithCacheInfo() error: %v", err)
	}
	if !hit {
		t.Error("second resolve missed the cache")
	}
	if len(second.Order) != len(first.Order) {
		t.Fatalf("cached order has %d refs, want %d", len(second.Order), len(first.Order))
	}
	for i := range first.Order {
		if second.Order[i] != first.Order[i] {
			t.Errorf("Order[%d] = %v, want %v", i, second.Order[i], first.Order[i])
		}
	}
}

func TestRunnerResolve_RefreshBypassesCache(t *testing.T) {
	c := newFileCache(t)
	runner := newTestRunner(t, c)
	path := writeDataFile(t)

	db, hash, err := runner.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	opts := Options{DataFile: path, Components: []string{"kde/kdebase"}}
	if _, _, err := runner.ResolveWithCacheInfo(context.Background(), db, hash, opts); err != nil {
		t.Fatalf("ResolveWithCacheInfo() error: %v", err)
	}

	opts.Refresh = true
	if _, hit, err := runner.ResolveWithCacheInfo(context.Background(), db, hash, opts); err != nil {
		t.Fatalf("ResolveWithCacheInfo() error: %v", err)
	} else if hit {
		t.Error("refresh resolve reported a cache hit")
	}
}

func TestRunnerRender_DOT(t *testing.T) {
	c := newFileCache(t)
	runner := newTestRunner(t, c)
	path := writeDataFile(t)

	db, hash, err := runner.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	opts := Options{DataFile: path, Components: []string{"kde/kdebase"}, Format: "dot"}
	artifact, hit, err := runner.RenderWithCacheInfo(context.Background(), db, hash, opts)
	if err != nil {
		t.Fatalf("RenderWithCacheInfo() error: %v", err)
	}
	if hit {
		t.Error("first render reported a cache hit")
	}
	if !strings.Contains(string(artifact), `"kde/kdebase" -> "kde/kdelibs";`) {
		t.Errorf("artifact missing closure edge:\n%s", artifact)
	}

	cached, hit, err := runner.RenderWithCacheInfo(context.Background(), db, hash, opts)
	if err != nil {
		t.Fatalf("RenderWithCacheInfo() error: %v", err)
	}
	if !hit {
		t.Error("second render missed the cache")
	}
	if string(cached) != string(artifact) {
		t.Error("cached artifact differs from rendered artifact")
	}
}

func TestRunnerExecute_CycleSurfaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dependency-data-cycle")
	data := "a/b: c/d\nc/d: a/b\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	runner := newTestRunner(t, nil)
	opts := Options{DataFile: path, Components: []string{"a/b"}}

	if _, err := runner.Execute(context.Background(), opts); err == nil {
		t.Error("Execute() = nil error, want cycle failure")
	}
}
