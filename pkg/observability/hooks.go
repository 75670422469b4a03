// Package observability provides hooks for scan metrics and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about workspace loads, built units and dependency
// resolution.
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
//	    observability.SetScanHooks(&myScanHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Scan().OnWorkspaceLoad(ctx, manifest, members, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// ScanHooks receives events from the source-unit scan.
type ScanHooks interface {
	// OnWorkspaceLoad records one provider query.
	OnWorkspaceLoad(ctx context.Context, manifest string, members int, duration time.Duration, err error)

	// OnUnitBuilt records an assembled source unit.
	OnUnitBuilt(ctx context.Context, name string, files, dependencies int)

	// OnUnitSkipped records a package or workspace skipped after an error
	// when the scan is configured to keep going.
	OnUnitSkipped(ctx context.Context, manifest string, err error)

	// OnDependencyUnresolved records a declared dependency that no graph
	// node satisfied.
	OnDependencyUnresolved(ctx context.Context, pkg, dep, req string)

	// OnPathOverride records a dangling path dependency re-pointed at the
	// default registry.
	OnPathOverride(ctx context.Context, pkg, dep, path string)
}

// NoopScanHooks is a no-op implementation of ScanHooks.
type NoopScanHooks struct{}

func (NoopScanHooks) OnWorkspaceLoad(context.Context, string, int, time.Duration, error) {}
func (NoopScanHooks) OnUnitBuilt(context.Context, string, int, int)                      {}
func (NoopScanHooks) OnUnitSkipped(context.Context, string, error)                       {}
func (NoopScanHooks) OnDependencyUnresolved(context.Context, string, string, string)     {}
func (NoopScanHooks) OnPathOverride(context.Context, string, string, string)             {}

var (
	scanHooks ScanHooks = NoopScanHooks{}
	hooksMu   sync.RWMutex
)

// SetScanHooks registers custom scan hooks.
// This should be called once at application startup before any scan.
func SetScanHooks(h ScanHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		scanHooks = h
	}
}

// Scan returns the registered scan hooks.
func Scan() ScanHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return scanHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	scanHooks = NoopScanHooks{}
}
