// Package observability provides hooks for metrics, tracing, and logging.
//
// Consumers register hooks at startup to receive events about editor
// commands, analysis requests, cache operations and HTTP calls. Libraries
// only see the hook interfaces; the CLI wires a logging implementation and
// tests can install recorders.
//
// # Usage
//
// Register hooks at application startup:
//
//	observability.SetEditorHooks(&myEditorHooks{})
//	observability.SetHTTPHooks(&myHTTPHooks{})
//
// Libraries call hooks to emit events:
//
//	observability.Editor().OnAnalysisStart(ctx, "tw_left")
//	observability.Editor().OnAnalysisComplete(ctx, "tw_left", elapsed, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Editor Hooks
// =============================================================================

// EditorHooks receives events from graph editors.
type EditorHooks interface {
	// OnCommand records a model mutation such as add_node or remove_edge.
	OnCommand(ctx context.Context, op, slot string, err error)

	// OnAnalysisStart records that a result field was requested.
	OnAnalysisStart(ctx context.Context, field string)

	// OnAnalysisComplete records the outcome of a request.
	OnAnalysisComplete(ctx context.Context, field string, duration time.Duration, err error)

	// OnStaleResult records a response discarded because a newer request
	// for the same field had started.
	OnStaleResult(ctx context.Context, field string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, endpoint string)
	OnCacheMiss(ctx context.Context, endpoint string)
	OnCacheSet(ctx context.Context, endpoint string, size int)
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

// NoopEditorHooks is a no-op implementation of EditorHooks.
type NoopEditorHooks struct{}

func (NoopEditorHooks) OnCommand(context.Context, string, string, error)                   {}
func (NoopEditorHooks) OnAnalysisStart(context.Context, string)                            {}
func (NoopEditorHooks) OnAnalysisComplete(context.Context, string, time.Duration, error) {}
func (NoopEditorHooks) OnStaleResult(context.Context, string)                              {}

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
	editorHooks EditorHooks = NoopEditorHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	hooksMu     sync.RWMutex
)

// SetEditorHooks registers custom editor hooks. A nil h is ignored.
func SetEditorHooks(h EditorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		editorHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Editor returns the registered editor hooks.
func Editor() EditorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return editorHooks
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
	editorHooks = NoopEditorHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
