package workflow

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hybs/groupbypass/pkg/bypass"
)

// Node types with a marker role.
const (
	TypeParentMarker = "HYBS_GroupBypasser_Parent"
	TypeChildMarker  = "HYBS_GroupBypasser_Child"
	TypePanel        = "HYBS_GroupBypasser_Panel"
)

// TitleHeight is the height of the node title bar drawn above pos.
const TitleHeight = 30

// RoleOf maps a node type to its role.
func RoleOf(typ string) bypass.Role {
	switch typ {
	case TypeParentMarker:
		return bypass.RoleParentMarker
	case TypeChildMarker:
		return bypass.RoleChildMarker
	case TypePanel:
		return bypass.RolePanel
	default:
		return bypass.RolePlain
	}
}

// Graph is a view of the root graph or of one container's subgraph.
type Graph struct {
	wf    *Workflow
	raw   map[string]any
	owner *Node
	defID string

	nodes  []*Node
	byID   map[bypass.NodeID]*Node
	links  map[bypass.LinkID]bypass.NodeID
	groups []*Group
}

var _ bypass.Graph = (*Graph)(nil)

// newGraph builds a view over raw. Every container of a definition shares
// one view, owned by the first container built. path holds the definition
// ids of the enclosing views; a container referring to one of them gets no
// subgraph.
func newGraph(wf *Workflow, raw map[string]any, owner *Node, defID string, path map[string]bool) (*Graph, error) {
	g := &Graph{
		wf:    wf,
		raw:   raw,
		owner: owner,
		defID: defID,
		byID:  make(map[bypass.NodeID]*Node),
		links: make(map[bypass.LinkID]bypass.NodeID),
	}

	rawNodes, _ := asArray(raw["nodes"])
	for i, rn := range rawNodes {
		obj, ok := asObject(rn)
		if !ok {
			return nil, fmt.Errorf("nodes[%d]: not an object", i)
		}
		id, ok := asInt(obj["id"])
		if !ok {
			return nil, fmt.Errorf("nodes[%d]: invalid id %v", i, obj["id"])
		}
		typ, _ := asString(obj["type"])
		n := &Node{graph: g, raw: obj, id: bypass.NodeID(id), typ: typ, role: RoleOf(typ)}
		if _, dup := g.byID[n.id]; dup {
			return nil, fmt.Errorf("nodes[%d]: duplicate id %d", i, id)
		}
		g.nodes = append(g.nodes, n)
		g.byID[n.id] = n
	}

	if err := g.indexLinks(); err != nil {
		return nil, err
	}

	rawGroups, _ := asArray(raw["groups"])
	for _, rg := range rawGroups {
		if obj, ok := asObject(rg); ok {
			g.groups = append(g.groups, &Group{graph: g, raw: obj})
		}
	}

	for _, n := range g.nodes {
		if sub, ok := wf.views[n.typ]; ok {
			n.sub = sub
			continue
		}
		def, ok := wf.definition(n.typ)
		if !ok || path[n.typ] {
			continue
		}
		path[n.typ] = true
		sub, err := newGraph(wf, def, n, n.typ, path)
		delete(path, n.typ)
		if err != nil {
			return nil, fmt.Errorf("subgraph %s: %w", n.typ, err)
		}
		wf.views[n.typ] = sub
		n.sub = sub
	}
	return g, nil
}

func (g *Graph) indexLinks() error {
	rawLinks, _ := asArray(g.raw["links"])
	for i, rl := range rawLinks {
		id, target, ok := parseLink(rl)
		if !ok {
			return fmt.Errorf("links[%d]: malformed link %v", i, rl)
		}
		g.links[id] = target
	}
	return nil
}

// parseLink reads [id, origin, oslot, target, tslot, type] or the
// equivalent object form. A null entry is skipped.
func parseLink(v any) (bypass.LinkID, bypass.NodeID, bool) {
	switch l := v.(type) {
	case nil:
		return 0, 0, true
	case []any:
		if len(l) < 4 {
			return 0, 0, false
		}
		id, ok1 := asInt(l[0])
		target, ok2 := asInt(l[3])
		return bypass.LinkID(id), bypass.NodeID(target), ok1 && ok2
	case map[string]any:
		id, ok1 := asInt(l["id"])
		target, ok2 := asInt(l["target_id"])
		return bypass.LinkID(id), bypass.NodeID(target), ok1 && ok2
	}
	return 0, 0, false
}

// Regions returns the groups of the graph.
func (g *Graph) Regions() []bypass.Region {
	out := make([]bypass.Region, len(g.groups))
	for i, gr := range g.groups {
		out[i] = gr
	}
	return out
}

// Groups returns the concrete groups of the graph.
func (g *Graph) Groups() []*Group { return g.groups }

// Nodes returns the nodes of the graph in document order.
func (g *Graph) Nodes() []bypass.Node {
	out := make([]bypass.Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n
	}
	return out
}

// WorkflowNodes returns the concrete nodes of the graph.
func (g *Graph) WorkflowNodes() []*Node { return g.nodes }

// Node resolves id within this graph.
func (g *Graph) Node(id bypass.NodeID) (bypass.Node, bool) {
	n, ok := g.byID[id]
	if !ok {
		return nil, false
	}
	return n, true
}

// Link resolves a link id to its target node id.
func (g *Graph) Link(id bypass.LinkID) (bypass.NodeID, bool) {
	t, ok := g.links[id]
	return t, ok
}

// LinkTargets returns the link table as id to target pairs.
func (g *Graph) LinkTargets() map[bypass.LinkID]bypass.NodeID { return g.links }

// Owner returns the first container of this view's definition, or nil for
// the root graph.
func (g *Graph) Owner() bypass.Node {
	if g.owner == nil {
		return nil
	}
	return g.owner
}

// DefinitionID returns the subgraph definition id, empty for the root graph.
func (g *Graph) DefinitionID() string { return g.defID }

// Ready reports whether the document carries a node list. A document that
// has not been populated yet has none.
func (g *Graph) Ready() bool {
	_, ok := asArray(g.raw["nodes"])
	return ok
}

// Node is a view of one node object.
type Node struct {
	graph *Graph
	raw   map[string]any
	id    bypass.NodeID
	typ   string
	role  bypass.Role
	sub   *Graph
}

var _ bypass.Node = (*Node)(nil)

func (n *Node) ID() bypass.NodeID { return n.id }

// Type returns the node type.
func (n *Node) Type() string { return n.typ }

func (n *Node) Role() bypass.Role { return n.role }

// Title returns the node title. Without one, a container falls back to its
// definition name and other nodes to their type.
func (n *Node) Title() string {
	if t, ok := asString(n.raw["title"]); ok {
		return t
	}
	if n.sub != nil {
		if name, ok := asString(n.sub.raw["name"]); ok {
			return name
		}
	}
	return n.typ
}

// Mode returns the execution mode. A missing or malformed value reads as
// enabled.
func (n *Node) Mode() bypass.Mode {
	m, ok := asInt(n.raw["mode"])
	if !ok {
		return bypass.ModeEnabled
	}
	return bypass.Mode(m)
}

// SetMode writes the execution mode into the document.
func (n *Node) SetMode(m bypass.Mode) {
	n.raw["mode"] = json.Number(strconv.Itoa(int(m)))
}

// Outputs returns the number of output slots.
func (n *Node) Outputs() int {
	outputs, _ := asArray(n.raw["outputs"])
	return len(outputs)
}

// OutputLinks returns the link ids of output slot.
func (n *Node) OutputLinks(slot int) []bypass.LinkID {
	outputs, _ := asArray(n.raw["outputs"])
	if slot < 0 || slot >= len(outputs) {
		return nil
	}
	out, ok := asObject(outputs[slot])
	if !ok {
		return nil
	}
	rawIDs, _ := asArray(out["links"])
	var ids []bypass.LinkID
	for _, v := range rawIDs {
		if id, ok := asInt(v); ok {
			ids = append(ids, bypass.LinkID(id))
		}
	}
	return ids
}

// Subgraph returns the nested graph of a container, or nil.
func (n *Node) Subgraph() bypass.Graph {
	if n.sub == nil {
		return nil
	}
	return n.sub
}

// NestedGraph returns the concrete nested graph, or nil.
func (n *Node) NestedGraph() *Graph { return n.sub }

// Bounds returns the node rectangle including the title bar.
func (n *Node) Bounds() (x, y, w, h float64, ok bool) {
	px, py, ok1 := pair(n.raw["pos"])
	sw, sh, ok2 := pair(n.raw["size"])
	if !ok1 || !ok2 {
		return 0, 0, 0, 0, false
	}
	return px, py - TitleHeight, sw, sh + TitleHeight, true
}

// Centre returns the centre of [Node.Bounds].
func (n *Node) Centre() (cx, cy float64, ok bool) {
	x, y, w, h, ok := n.Bounds()
	if !ok {
		return 0, 0, false
	}
	return x + w/2, y + h/2, true
}

// Group is a view of one group object.
type Group struct {
	graph   *Graph
	raw     map[string]any
	members []bypass.Node
}

var _ bypass.Region = (*Group)(nil)

// Title returns the group title; ok is false when it is not a string.
func (gr *Group) Title() (string, bool) {
	return asString(gr.raw["title"])
}

// Bounding returns the group rectangle.
func (gr *Group) Bounding() ([4]float64, error) {
	return rect(gr.raw["bounding"])
}

// RecomputeMembers collects the nodes whose centre lies inside the group.
// With a malformed bounding the previous members are kept and the failure
// is reported to the workflow's host hooks.
func (gr *Group) RecomputeMembers() error {
	b, err := gr.Bounding()
	if err != nil {
		title, _ := gr.Title()
		err = fmt.Errorf("group %q: %w", title, err)
		gr.graph.wf.hooks.OnHostError("recompute members", err)
		return err
	}
	members := gr.members[:0:0]
	for _, n := range gr.graph.nodes {
		cx, cy, ok := n.Centre()
		if !ok {
			continue
		}
		if cx >= b[0] && cx <= b[0]+b[2] && cy >= b[1] && cy <= b[1]+b[3] {
			members = append(members, n)
		}
	}
	gr.members = members
	return nil
}

// Members returns the members computed by the last successful
// [Group.RecomputeMembers].
func (gr *Group) Members() []bypass.Node { return gr.members }

// Graph returns the graph view the group belongs to.
func (gr *Group) Graph() *Graph { return gr.graph }

// isDefinitionID reports whether typ has the shape of a subgraph id.
func isDefinitionID(typ string) bool {
	return uuid.Validate(strings.TrimSpace(typ)) == nil
}
