// Package bypass implements cascade bypass over the groups of a node graph.
//
// # Overview
//
// A group (region) is a named rectangle of a graph that owns a set of nodes.
// Bypassing a group flips the execution mode of every node inside it. Two
// special marker roles let one group's toggle cascade into others:
//
//   - [RoleParentMarker]: source of a cascade. Its output 0 links to child markers.
//   - [RoleChildMarker]: target of a cascade. Its own output 0 may chain to
//     further child markers.
//
// Toggling a group that contains a parent marker toggles every group that
// contains the parent or any child marker reachable from it.
//
// # Host Capabilities
//
// The package never owns graph state. It works against the small capability
// interfaces [Graph], [Node], [Region] and [Canvas] which a host adapter
// (see package workflow) implements. Every operation receives the graph and
// canvas explicitly; nothing is read from a global.
//
// # Freshness
//
// Region membership is recomputed immediately before every read via
// [MembersOf], and cascades are resolved per toggle, never cached, because
// link topology and group geometry may change between toggles.
//
// # Failure Model
//
// Host failures are never fatal. A failing membership recomputation falls
// back to the last known members, a dangling link or missing node is
// skipped, and a marker with nothing reachable simply cascades to its own
// groups. Failures are reported to [observability.HostHooks] for logging.
//
// # Concurrency
//
// Nothing in this package is safe for concurrent use. Callers that share a
// graph across goroutines must serialize access.
package bypass
