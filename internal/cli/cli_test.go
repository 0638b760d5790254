package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fkoehler/buildorder/pkg/config"
)

func TestCacheDirDefault(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	want := filepath.Join(home, ".cache", appName)
	if dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	want := filepath.Join("/tmp/custom-cache", appName)
	if dir != want {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := []string{
		"resolve", "components", "graph", "lint",
		"serve", "browse", "cache", "completion",
	}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("RootCommand() is missing subcommand %q", name)
		}
	}
}

func TestDataFileExplicitWins(t *testing.T) {
	c := New(io.Discard, LogInfo)

	got, err := c.dataFile("/somewhere/deps", "ignored-group")
	if err != nil {
		t.Fatalf("dataFile() error: %v", err)
	}
	if got != "/somewhere/deps" {
		t.Errorf("dataFile() = %q, want %q", got, "/somewhere/deps")
	}
}

func TestNewCacheUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Backend = "memcached"

	_, err := newCache(context.Background(), cfg)
	if err == nil {
		t.Fatal("newCache() with unknown backend should fail")
	}
	if !strings.Contains(err.Error(), "memcached") {
		t.Errorf("newCache() error = %q, should name the backend", err)
	}
}

func TestNewCacheNoneBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Backend = "none"

	backend, err := newCache(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newCache() error: %v", err)
	}
	defer backend.Close()

	if _, hit, err := backend.Get(context.Background(), "anything"); err != nil || hit {
		t.Errorf("null backend Get() = hit %v, err %v, want miss and nil", hit, err)
	}
}
