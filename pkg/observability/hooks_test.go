package observability

import (
	"context"
	"testing"
	"time"
)

type testDepotHooks struct {
	resolves int
}

func (h *testDepotHooks) OnResolveStart(context.Context, string) { h.resolves++ }
func (h *testDepotHooks) OnResolveComplete(context.Context, string, string, time.Duration, error) {
}
func (h *testDepotHooks) OnManifestFetch(context.Context, string, string, int, time.Duration, error) {
}
func (h *testDepotHooks) OnManifestDecode(context.Context, string, int, int, error)      {}
func (h *testDepotHooks) OnSecureLinks(context.Context, string, int, int, time.Duration) {}

type testCacheHooks struct {
	hits int
}

func (h *testCacheHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *testCacheHooks) OnCacheMiss(context.Context, string)     {}
func (h *testCacheHooks) OnCacheSet(context.Context, string, int) {}

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	d := NoopDepotHooks{}
	d.OnResolveStart(ctx, "1207658924")
	d.OnResolveComplete(ctx, "1207658924", "5512", time.Second, nil)
	d.OnManifestFetch(ctx, "1207658924", "5512", 4096, time.Second, nil)
	d.OnManifestDecode(ctx, "1207658924", 10, 42, nil)
	d.OnSecureLinks(ctx, "1207658924", 2, 1, time.Second)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "manifest")
	c.OnCacheMiss(ctx, "builds")
	c.OnCacheSet(ctx, "manifest", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "content-system.gog.com", "/products/1/builds")
	h.OnResponse(ctx, "GET", "content-system.gog.com", "/products/1/builds", 200, time.Second)
	h.OnError(ctx, "GET", "content-system.gog.com", "/products/1/builds", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Depot().(NoopDepotHooks); !ok {
		t.Error("Depot() should return NoopDepotHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customDepot := &testDepotHooks{}
	SetDepotHooks(customDepot)
	if Depot() != customDepot {
		t.Error("SetDepotHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// nil registration keeps the current hooks
	SetDepotHooks(nil)
	if Depot() != customDepot {
		t.Error("SetDepotHooks(nil) should keep existing hooks")
	}
}

func TestHooksAreInvoked(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	d := &testDepotHooks{}
	SetDepotHooks(d)
	Depot().OnResolveStart(context.Background(), "1")
	if d.resolves != 1 {
		t.Errorf("resolves = %d, want 1", d.resolves)
	}

	c := &testCacheHooks{}
	SetCacheHooks(c)
	Cache().OnCacheHit(context.Background(), "manifest")
	if c.hits != 1 {
		t.Errorf("hits = %d, want 1", c.hits)
	}
}
