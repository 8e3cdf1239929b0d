// Package workflow adapts ComfyUI / LiteGraph workflow files to the host
// interfaces of package bypass.
//
// # Overview
//
// A [Workflow] holds the decoded document as a generic JSON tree. The
// [Graph], [Node] and [Group] views read and patch that tree in place, so
// fields this package does not model survive a load/save round trip.
//
// # Document Format
//
// The root object carries the root graph:
//
//	{
//	  "nodes":  [{"id": 3, "type": "KSampler", "mode": 0, "pos": [10, 20], "size": [300, 260],
//	              "outputs": [{"links": [7]}], "properties": {}}],
//	  "links":  [[7, 3, 0, 4, 0, "LATENT"]],
//	  "groups": [{"title": "Sampling", "bounding": [0, 0, 400, 400]}],
//	  "definitions": {"subgraphs": [{"id": "<uuid>", "name": "Detail", "nodes": [], "links": [], "groups": []}]}
//	}
//
// Links may also be objects with id, origin_id, origin_slot, target_id and
// target_slot fields, as subgraph definitions store them. Positions and
// sizes may be arrays or {"0": x, "1": y} objects.
//
// # Subgraphs
//
// A node whose type is the id of a subgraph definition is a container. All
// containers of one definition share a single nested [Graph] view, so its
// groups are listed and toggled once. The view's owner is the first
// container met while indexing.
//
// # Group Membership
//
// A node belongs to a group when the centre of its bounding box, title bar
// included, lies inside the group's bounding rectangle. Membership is
// recomputed on every [Group.RecomputeMembers] call.
//
// # Panel Properties
//
// [Workflow.PanelProperties] returns the string properties of the first
// panel node found, depth first. A workflow without a panel node gets a
// detached in-memory store.
package workflow
