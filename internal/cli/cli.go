// Package cli implements the buildorder command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fkoehler/buildorder/pkg/buildinfo"
	"github.com/fkoehler/buildorder/pkg/cache"
	"github.com/fkoehler/buildorder/pkg/config"
	"github.com/fkoehler/buildorder/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "buildorder"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogError = log.ErrorLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Buildorder computes build orders from dependency databases",
		Long:         `Buildorder resolves build orders for componentised source trees from a declarative dependency database: which components a build target depends on, recursively, and in what sequence to build them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/buildorder/config.toml)")

	// Register all subcommands
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.componentsCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.lintCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig loads the TOML configuration, honoring --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(c.configPath)
}

// dataFile resolves the dependency data file from the --data and
// --branch-group flags, falling back to the configured default group.
func (c *CLI) dataFile(explicit, group string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return "", err
	}
	if group == "" {
		group = cfg.DefaultBranchGroup
	}
	return cfg.DataFile(group), nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner with the configured cache backend.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	if noCache {
		return pipeline.NewRunner(cache.NewNullCache(), nil, c.Logger), nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	backend, err := newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(backend, nil, c.Logger)
	if ttl := cfg.Cache.TTL.Duration; ttl > 0 {
		runner.TTL = ttl
	}
	return runner, nil
}

// newCache builds the cache backend the config names.
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "", "file":
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	case "none":
		return cache.NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (must be file, redis or none)", cfg.Cache.Backend)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/buildorder/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
