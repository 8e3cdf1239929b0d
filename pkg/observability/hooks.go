// Package observability provides hooks for logging and metrics.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific backends. The core packages (bypass, panel,
// workflow) emit events through the interfaces defined here; the CLI
// installs implementations that write to its logger.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Pass a [Hooks] bundle explicitly to the components that emit events
//
// Hooks are never stored in package-level state; a component holds the
// bundle it was constructed with.
//
// # Usage
//
//	hooks := observability.Hooks{Cascade: myCascadeHooks{}}.WithDefaults()
//	resolver := bypass.NewResolver(canvas, bypass.WithHooks(hooks.Cascade))
//
// All hook methods are called synchronously from the goroutine that drives
// the component and must not block.
package observability

import "time"

// =============================================================================
// Cascade Hooks
// =============================================================================

// CascadeHooks receives events from the cascade resolver.
type CascadeHooks interface {
	// OnCascade records a cascade from a parent marker: the number of child
	// markers reached and the number of groups that were set.
	OnCascade(parentID int64, children, groups int, bypass bool)

	// OnToggle records a group toggle requested by the user.
	OnToggle(group string, bypass, cascaded bool)
}

// =============================================================================
// Panel Hooks
// =============================================================================

// PanelHooks receives events from the group panel.
type PanelHooks interface {
	// OnRebuild records a relist of the panel toggles.
	OnRebuild(entries int, forced bool)

	// OnSync records one pass of the sync loop.
	OnSync(toggles int, duration time.Duration)

	// OnNotReady records a listing attempt made before the host was ready.
	OnNotReady(attempt int, err error)
}

// =============================================================================
// Host Hooks
// =============================================================================

// HostHooks receives failures swallowed by the host adapter.
type HostHooks interface {
	// OnHostError records a failed host capability call. The failure has
	// already been degraded to an empty or previous result.
	OnHostError(op string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCascadeHooks is a no-op implementation of CascadeHooks.
type NoopCascadeHooks struct{}

func (NoopCascadeHooks) OnCascade(int64, int, int, bool) {}
func (NoopCascadeHooks) OnToggle(string, bool, bool)     {}

// NoopPanelHooks is a no-op implementation of PanelHooks.
type NoopPanelHooks struct{}

func (NoopPanelHooks) OnRebuild(int, bool)       {}
func (NoopPanelHooks) OnSync(int, time.Duration) {}
func (NoopPanelHooks) OnNotReady(int, error)     {}

// NoopHostHooks is a no-op implementation of HostHooks.
type NoopHostHooks struct{}

func (NoopHostHooks) OnHostError(string, error) {}

// =============================================================================
// Bundle
// =============================================================================

// Hooks bundles one implementation of each hook category.
// Nil members are replaced by no-ops in [Hooks.WithDefaults].
type Hooks struct {
	Cascade CascadeHooks
	Panel   PanelHooks
	Host    HostHooks
}

// WithDefaults returns a copy of h with every nil member replaced by its
// no-op implementation.
func (h Hooks) WithDefaults() Hooks {
	if h.Cascade == nil {
		h.Cascade = NoopCascadeHooks{}
	}
	if h.Panel == nil {
		h.Panel = NoopPanelHooks{}
	}
	if h.Host == nil {
		h.Host = NoopHostHooks{}
	}
	return h
}

// Noop returns a bundle of no-op hooks.
func Noop() Hooks {
	return Hooks{}.WithDefaults()
}
