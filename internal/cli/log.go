// Package cli implements the groupbypass command-line interface.
//
// This package provides commands for listing the node groups of a ComfyUI
// workflow file, toggling their bypass state, editing the panel's group
// order, exporting the workflow as a graph, and serving the same operations
// over HTTP. The CLI is built using cobra and supports verbose logging via
// the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - groups: List the groups in panel order with their bypass state
//   - toggle: Bypass or enable one group, following marker cascades
//   - order: Show or change the persisted group order
//   - panel: Interactive panel with a reorder editor
//   - render: Export the workflow as DOT or SVG
//   - serve: HTTP API over one workflow file
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The core
// packages never log; the CLI installs hooks that forward their events to
// the logger.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hybs/groupbypass/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Loaded 6 groups (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// =============================================================================
// Logging Hooks
// =============================================================================

// logHooks forwards core events to a logger.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.CascadeHooks = logHooks{}
	_ observability.PanelHooks   = logHooks{}
	_ observability.HostHooks    = logHooks{}
)

func (h logHooks) OnCascade(parentID int64, children, groups int, bypass bool) {
	h.logger.Debug("cascade", "parent", parentID, "children", children, "groups", groups, "bypass", bypass)
}

func (h logHooks) OnToggle(group string, bypass, cascaded bool) {
	h.logger.Info("toggle", "group", group, "bypass", bypass, "cascade", cascaded)
}

func (h logHooks) OnRebuild(entries int, forced bool) {
	h.logger.Debug("rebuild", "entries", entries, "forced", forced)
}

func (h logHooks) OnSync(toggles int, d time.Duration) {
	h.logger.Debug("sync", "toggles", toggles, "took", d)
}

func (h logHooks) OnNotReady(attempt int, err error) {
	h.logger.Debug("not ready", "attempt", attempt, "err", err)
}

func (h logHooks) OnHostError(op string, err error) {
	h.logger.Warn("host error", "op", op, "err", err)
}

// hooks returns the observability bundle backed by the CLI logger.
func (c *CLI) hooks() observability.Hooks {
	h := logHooks{logger: c.Logger}
	return observability.Hooks{Cascade: h, Panel: h, Host: h}
}
