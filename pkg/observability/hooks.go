// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about pipeline stages, cache operations, and server requests.
//
// The package uses a simple hooks pattern: hook interfaces per event
// category, no-op default implementations, and a global registry that main
// populates before anything runs. Libraries emit events through the
// registry accessors:
//
//	observability.Pipeline().OnResolveStart(ctx, components, mode)
//	// ... resolve ...
//	observability.Pipeline().OnResolveComplete(ctx, components, mode, orderSize, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the resolution pipeline.
type PipelineHooks interface {
	// Load events
	OnLoadStart(ctx context.Context, path string)
	OnLoadComplete(ctx context.Context, path string, componentCount int, duration time.Duration, err error)

	// Resolve events
	OnResolveStart(ctx context.Context, components []string, mode string)
	OnResolveComplete(ctx context.Context, components []string, mode string, orderSize int, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, format string)
	OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Server Hooks
// =============================================================================

// ServerHooks receives events from the HTTP API.
type ServerHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records a completed request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string) {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnResolveStart(context.Context, []string, string) {}
func (NoopPipelineHooks) OnResolveComplete(context.Context, []string, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnRenderStart(context.Context, string) {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopServerHooks is a no-op implementation of ServerHooks.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string)                      {}
func (NoopServerHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	serverHooks   ServerHooks   = NoopServerHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetServerHooks registers custom server hooks.
// This should be called once at application startup before the server starts.
func SetServerHooks(h ServerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		serverHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Server returns the registered server hooks.
func Server() ServerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return serverHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	serverHooks = NoopServerHooks{}
}
