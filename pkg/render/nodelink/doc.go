// Package nodelink renders workflows as node-link diagrams.
//
// # Overview
//
// [ToDOT] turns a [workflow.Workflow] into Graphviz DOT source: every graph
// view becomes a cluster, every group a nested cluster, every link an edge.
// [RenderSVG] lays the DOT out in-process.
//
//	dot := nodelink.ToDOT(wf, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Styling
//
//   - Bypassed nodes: dashed outline, purple fill
//   - Muted nodes: grey fill
//   - Parent markers: inverted house; child markers: house; panels: note
//   - Cascade links (marker output 0): bold purple edges
//
// A node that sits in several overlapping groups is drawn in the first one,
// since DOT clusters cannot share nodes.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
