package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fkoehler/buildorder/pkg/cache"
	"github.com/fkoehler/buildorder/pkg/depdata"
	pkgio "github.com/fkoehler/buildorder/pkg/io"
	"github.com/fkoehler/buildorder/pkg/observability"
	"github.com/fkoehler/buildorder/pkg/render"
	"github.com/fkoehler/buildorder/pkg/resolve"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		TTL:    cache.DefaultTTL,
		Logger: logger,
	}
}

// Execute runs the complete load → resolve → render pipeline with
// caching. The render stage only runs when a format is requested.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.DataFile)
	db, dataHash, err := r.Load(opts.DataFile)
	result.Stats.LoadTime = time.Since(loadStart)
	if db != nil {
		result.Stats.ComponentCount = db.Len()
	}
	observability.Pipeline().OnLoadComplete(ctx, opts.DataFile, result.Stats.ComponentCount, result.Stats.LoadTime, err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.DataHash = dataHash

	r.Logger.Info("loaded dependency data",
		"file", opts.DataFile,
		"components", db.Len(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Resolve
	mode := pkgio.ModeClosure
	if opts.Direct {
		mode = pkgio.ModeDirect
	}
	resolveStart := time.Now()
	observability.Pipeline().OnResolveStart(ctx, opts.Components, mode)
	resolution, resolveHit, err := r.ResolveWithCacheInfo(ctx, db, dataHash, opts)
	result.Stats.ResolveTime = time.Since(resolveStart)
	observability.Pipeline().OnResolveComplete(ctx, opts.Components, mode, len(resolution.Order), result.Stats.ResolveTime, err)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	result.Resolution = resolution
	result.Stats.OrderSize = len(resolution.Order)
	result.CacheInfo.ResolveHit = resolveHit

	r.Logger.Info("resolved build order",
		"components", result.Stats.OrderSize,
		"cached", resolveHit,
		"duration", result.Stats.ResolveTime)

	// Stage 3: Render
	if opts.Format != "" {
		renderStart := time.Now()
		observability.Pipeline().OnRenderStart(ctx, opts.Format)
		artifact, renderHit, err := r.RenderWithCacheInfo(ctx, db, dataHash, opts)
		result.Stats.RenderTime = time.Since(renderStart)
		observability.Pipeline().OnRenderComplete(ctx, opts.Format, len(artifact), result.Stats.RenderTime, err)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		result.Artifact = artifact
		result.CacheInfo.RenderHit = renderHit

		r.Logger.Info("rendered closure graph",
			"format", opts.Format,
			"bytes", len(artifact),
			"cached", renderHit,
			"duration", result.Stats.RenderTime)
	}

	return result, nil
}

// Load parses the dependency data file at path and returns the database
// together with its content fingerprint. The fingerprint keys all cached
// results derived from this file.
func (r *Runner) Load(path string) (*depdata.Database, string, error) {
	db, err := depdata.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	hash, err := cache.HashFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return db, hash, nil
}

// ResolveWithCacheInfo computes the build order with caching and returns
// cache hit info.
func (r *Runner) ResolveWithCacheInfo(ctx context.Context, db *depdata.Database, dataHash string, opts Options) (pkgio.Result, bool, error) {
	if err := opts.ValidateForResolve(); err != nil {
		return pkgio.Result{}, false, err
	}

	components, err := db.ValidateComponents(opts.Components, opts.AssumePresent)
	if err != nil {
		return pkgio.Result{}, false, err
	}

	cacheKey := r.Keyer.ResolutionKey(dataHash, opts.resolutionKeyOpts(components))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached pkgio.Result
			if json.Unmarshal(data, &cached) == nil {
				observability.Cache().OnCacheHit(ctx, "resolution")
				return cached, true, nil // Cache hit
			}
		}
		observability.Cache().OnCacheMiss(ctx, "resolution")
	}

	resolution, err := r.resolveComponents(db, components, opts)
	if err != nil {
		return pkgio.Result{}, false, err
	}

	// Cache the result
	if data, err := json.Marshal(resolution); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, r.TTL)
		observability.Cache().OnCacheSet(ctx, "resolution", len(data))
	}

	return resolution, false, nil // Cache miss
}

// Resolve is a convenience wrapper that calls ResolveWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Resolve(ctx context.Context, db *depdata.Database, dataHash string, opts Options) (pkgio.Result, error) {
	resolution, _, err := r.ResolveWithCacheInfo(ctx, db, dataHash, opts)
	return resolution, err
}

// resolveComponents runs the engine for already canonical component
// names.
func (r *Runner) resolveComponents(db *depdata.Database, components []string, opts Options) (pkgio.Result, error) {
	engine := resolve.New(db)
	branch := opts.BranchValue()

	if opts.Direct {
		deps := make(map[string][]depdata.Ref, len(components))
		for _, component := range components {
			deps[component] = engine.Direct(component, branch)
		}
		return pkgio.FromDirect(components, branch, deps), nil
	}

	res, err := engine.Closure(components, branch)
	if err != nil {
		return pkgio.Result{}, err
	}

	var waves [][]string
	if opts.Waves {
		waves, err = res.Graph().Waves()
		if err != nil {
			return pkgio.Result{}, fmt.Errorf("compute waves: %w", err)
		}
	}

	return pkgio.FromClosure(components, res, waves), nil
}

// RenderWithCacheInfo renders the closure graph with caching and returns
// cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, db *depdata.Database, dataHash string, opts Options) ([]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	components, err := db.ValidateComponents(opts.Components, opts.AssumePresent)
	if err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.ArtifactKey(dataHash, opts.artifactKeyOpts(components))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return data, true, nil // Cache hit
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	res, err := resolve.New(db).Closure(components, opts.BranchValue())
	if err != nil {
		return nil, false, err
	}

	dot := render.ToDOT(res.Graph(), render.Options{Detailed: opts.Detailed})
	artifact, err := render.Render(ctx, dot, opts.Format)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	_ = r.Cache.Set(ctx, cacheKey, artifact, r.TTL)
	observability.Cache().OnCacheSet(ctx, "artifact", len(artifact))

	return artifact, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, db *depdata.Database, dataHash string, opts Options) ([]byte, error) {
	artifact, _, err := r.RenderWithCacheInfo(ctx, db, dataHash, opts)
	return artifact, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
