// Package panel lists the toggleable groups of a graph hierarchy and keeps
// that listing synchronized with the live graph.
//
// # Overview
//
// A [Panel] owns an ordered list of [Toggle] controls, one per group found
// in the root graph and every nested graph beneath it. Each toggle is bound
// at build time to its (graph, group) pair and flips the group through a
// [bypass.Resolver], so groups holding parent markers cascade.
//
// # Ordering
//
// Entries are discovered in auto order by [Collect]. In custom mode the
// persisted order string reorders them with [Reconcile]: listed labels
// first, in listed order, then everything else in auto order. Nothing is
// ever dropped, so a stale order string only loses its effect on labels
// that no longer exist.
//
// # Sync
//
// [Panel.Tick] is driven by the host's redraw or timer. It refreshes toggle
// values cheaply and rebuilds the toggle list only when the [Signature] of
// the live entries changed. Structural events (creation, reconfiguration,
// order edits, toggle flips, refresh requests) make the next tick run
// without waiting for the minimum interval.
//
// # Readiness
//
// Right after a workflow load the host graph may not be populated yet.
// [Collect] reports that with [ErrNotReady], and [Panel.WaitReady] retries
// with bounded backoff before settling on whatever listing is available.
//
// A Panel is not safe for concurrent use.
package panel
