// Package pkg provides the libraries behind groupbypass, a tool for
// listing and bypassing node groups in ComfyUI workflows.
//
// # Overview
//
// A workflow is a canvas of nodes with rectangular groups drawn over them.
// Bypassing a group sets the mode of every node inside it. Marker nodes
// chain groups together: toggling a group that holds a parent marker
// cascades to every group holding a child marker reachable from it. A panel
// node lists the groups of the whole workflow, subgraphs included, in an
// order the user controls.
//
// The packages are layered:
//
//	[workflow]  decode, edit and save workflow files
//	     ↓
//	[bypass]    group membership, cascade walks, mode changes
//	     ↓
//	[panel]     group listing, order reconciliation, toggles, editor
//
// [workflow] implements the host interfaces declared in [bypass], so the
// cascade and panel logic never touch JSON.
//
// # Quick Start
//
//	wf, _ := workflow.Load("flow.json")
//	resolver := bypass.NewResolver(wf)
//	p := panel.New(wf.Root(), wf, wf.PanelProperties(), panel.WithResolver(resolver))
//	_ = p.WaitReady(ctx, retry.DefaultPolicy())
//
//	i, _ := p.Find("[Main] Upscale")
//	_ = p.Toggle(i, true)
//	_ = wf.Save("flow.json")
//
// # Supporting Packages
//
// [errors] - Coded errors with user-facing messages and HTTP statuses.
//
// [observability] - Hook interfaces for cascade, panel and host events.
//
// [retry] - Bounded exponential backoff, used while a workflow is not
// ready yet.
//
// [render/nodelink] - Graphviz diagrams of a workflow and its groups.
//
// [buildinfo] - Version information of the running binary.
//
// [workflow]: https://pkg.go.dev/github.com/hybs/groupbypass/pkg/workflow
// [bypass]: https://pkg.go.dev/github.com/hybs/groupbypass/pkg/bypass
// [panel]: https://pkg.go.dev/github.com/hybs/groupbypass/pkg/panel
// [errors]: https://pkg.go.dev/github.com/hybs/groupbypass/pkg/errors
// [observability]: https://pkg.go.dev/github.com/hybs/groupbypass/pkg/observability
// [retry]: https://pkg.go.dev/github.com/hybs/groupbypass/pkg/retry
// [render/nodelink]: https://pkg.go.dev/github.com/hybs/groupbypass/pkg/render/nodelink
// [buildinfo]: https://pkg.go.dev/github.com/hybs/groupbypass/pkg/buildinfo
package pkg
