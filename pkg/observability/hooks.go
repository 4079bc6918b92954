// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about batch runs and the per-file pipeline stages.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetBatchHooks(&myBatchHooks{})
//	    observability.SetStageHooks(&myStageHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Stages().OnStageStart(ctx, observability.StageRender, path)
//	// ... render ...
//	observability.Stages().OnStageComplete(ctx, observability.StageRender, path, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Stage names a step of the per-file pipeline.
type Stage string

// Pipeline stages.
const (
	StageRead      Stage = "read"
	StageRender    Stage = "render"
	StageRasterize Stage = "rasterize"
	StageWrite     Stage = "write"
)

// =============================================================================
// Batch Hooks
// =============================================================================

// BatchHooks receives events from batch runs.
type BatchHooks interface {
	// Run events
	OnRunStart(ctx context.Context, runID, pattern string, files int)
	OnRunComplete(ctx context.Context, runID string, succeeded, failed int, duration time.Duration)

	// File events
	OnFileStart(ctx context.Context, runID, path string)
	OnFileComplete(ctx context.Context, runID, path, output string, duration time.Duration, err error)
}

// =============================================================================
// Stage Hooks
// =============================================================================

// StageHooks receives timing events for individual pipeline stages.
type StageHooks interface {
	OnStageStart(ctx context.Context, stage Stage, path string)
	OnStageComplete(ctx context.Context, stage Stage, path string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopBatchHooks is a no-op implementation of BatchHooks.
type NoopBatchHooks struct{}

func (NoopBatchHooks) OnRunStart(context.Context, string, string, int)                {}
func (NoopBatchHooks) OnRunComplete(context.Context, string, int, int, time.Duration) {}
func (NoopBatchHooks) OnFileStart(context.Context, string, string)                    {}
func (NoopBatchHooks) OnFileComplete(context.Context, string, string, string, time.Duration, error) {
}

// NoopStageHooks is a no-op implementation of StageHooks.
type NoopStageHooks struct{}

func (NoopStageHooks) OnStageStart(context.Context, Stage, string)                          {}
func (NoopStageHooks) OnStageComplete(context.Context, Stage, string, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	batchHooks BatchHooks = NoopBatchHooks{}
	stageHooks StageHooks = NoopStageHooks{}
	hooksMu    sync.RWMutex
)

// SetBatchHooks registers custom batch hooks.
// This should be called once at application startup before any run starts.
func SetBatchHooks(h BatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		batchHooks = h
	}
}

// SetStageHooks registers custom stage hooks.
// This should be called once at application startup before any run starts.
func SetStageHooks(h StageHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		stageHooks = h
	}
}

// Batch returns the registered batch hooks.
func Batch() BatchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return batchHooks
}

// Stages returns the registered stage hooks.
func Stages() StageHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return stageHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	batchHooks = NoopBatchHooks{}
	stageHooks = NoopStageHooks{}
}
