package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnLoadStart(ctx, "deps.txt")
	p.OnLoadComplete(ctx, "deps.txt", 100, time.Second, nil)
	p.OnResolveStart(ctx, []string{"kde/kdelibs"}, "closure")
	p.OnResolveComplete(ctx, []string{"kde/kdelibs"}, "closure", 12, time.Second, nil)
	p.OnRenderStart(ctx, "svg")
	p.OnRenderComplete(ctx, "svg", 1024, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "resolution")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)

	// Server hooks
	s := NoopServerHooks{}
	s.OnRequest(ctx, "POST", "/v1/resolve")
	s.OnResponse(ctx, "POST", "/v1/resolve", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Server() should return NoopServerHooks by default")
	}

	// Set custom hooks
	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customServer := &testServerHooks{}
	SetServerHooks(customServer)
	if Server() != customServer {
		t.Error("SetServerHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)

	// Setting nil should be ignored
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testServerHooks struct{ NoopServerHooks }
