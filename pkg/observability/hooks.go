// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about depot resolution, manifest decoding, cache operations,
// and API calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetDepotHooks(&myDepotHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Depot().OnResolveStart(ctx, productID)
//	// ... resolve build ...
//	observability.Depot().OnResolveComplete(ctx, productID, buildID, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Depot Hooks
// =============================================================================

// DepotHooks receives events from the depot download pipeline.
type DepotHooks interface {
	// Build resolution events
	OnResolveStart(ctx context.Context, productID string)
	OnResolveComplete(ctx context.Context, productID, buildID string, duration time.Duration, err error)

	// Manifest events
	OnManifestFetch(ctx context.Context, productID, buildID string, size int, duration time.Duration, err error)
	OnManifestDecode(ctx context.Context, productID string, fileCount, chunkCount int, err error)

	// Secure link events
	OnSecureLinks(ctx context.Context, productID string, urlCount, attempts int, duration time.Duration)
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
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopDepotHooks is a no-op implementation of DepotHooks.
type NoopDepotHooks struct{}

func (NoopDepotHooks) OnResolveStart(context.Context, string) {}
func (NoopDepotHooks) OnResolveComplete(context.Context, string, string, time.Duration, error) {
}
func (NoopDepotHooks) OnManifestFetch(context.Context, string, string, int, time.Duration, error) {}
func (NoopDepotHooks) OnManifestDecode(context.Context, string, int, int, error)                  {}
func (NoopDepotHooks) OnSecureLinks(context.Context, string, int, int, time.Duration)             {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	depotHooks DepotHooks = NoopDepotHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetDepotHooks registers custom depot hooks.
// This should be called once at application startup before any downloads.
func SetDepotHooks(h DepotHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		depotHooks = h
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

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Depot returns the registered depot hooks.
func Depot() DepotHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return depotHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	depotHooks = NoopDepotHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
