package panel

import "github.com/hybs/groupbypass/pkg/bypass"

type fakeNode struct {
	id      bypass.NodeID
	title   string
	mode    bypass.Mode
	role    bypass.Role
	outputs []bypass.LinkID
	sub     *fakeGraph
}

func (n *fakeNode) ID() bypass.NodeID     { return n.id }
func (n *fakeNode) Title() string         { return n.title }
func (n *fakeNode) Mode() bypass.Mode     { return n.mode }
func (n *fakeNode) SetMode(m bypass.Mode) { n.mode = m }
func (n *fakeNode) Role() bypass.Role     { return n.role }

func (n *fakeNode) OutputLinks(slot int) []bypass.LinkID {
	if slot != 0 {
		return nil
	}
	return n.outputs
}

func (n *fakeNode) Subgraph() bypass.Graph {
	if n.sub == nil {
		return nil
	}
	return n.sub
}

type fakeRegion struct {
	title   string
	members []*fakeNode
	out     []bypass.Node
}

func (r *fakeRegion) Title() (string, bool) { return r.title, true }

func (r *fakeRegion) RecomputeMembers() error {
	r.out = r.out[:0]
	for _, n := range r.members {
		r.out = append(r.out, n)
	}
	return nil
}

func (r *fakeRegion) Members() []bypass.Node { return r.out }

type fakeGraph struct {
	nodes    []*fakeNode
	regions  []*fakeRegion
	links    map[bypass.LinkID]bypass.NodeID
	owner    *fakeNode
	notReady bool
	nextLink bypass.LinkID
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{links: make(map[bypass.LinkID]bypass.NodeID)}
}

func (g *fakeGraph) Ready() bool { return !g.notReady }

func (g *fakeGraph) Regions() []bypass.Region {
	out := make([]bypass.Region, len(g.regions))
	for i, r := range g.regions {
		out[i] = r
	}
	return out
}

func (g *fakeGraph) Nodes() []bypass.Node {
	out := make([]bypass.Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n
	}
	return out
}

func (g *fakeGraph) Node(id bypass.NodeID) (bypass.Node, bool) {
	for _, n := range g.nodes {
		if n.id == id {
			return n, true
		}
	}
	return nil, false
}

func (g *fakeGraph) Link(id bypass.LinkID) (bypass.NodeID, bool) {
	t, ok := g.links[id]
	return t, ok
}

func (g *fakeGraph) Owner() bypass.Node {
	if g.owner == nil {
		return nil
	}
	return g.owner
}

func (g *fakeGraph) node(id bypass.NodeID, role bypass.Role) *fakeNode {
	n := &fakeNode{id: id, role: role}
	g.nodes = append(g.nodes, n)
	return n
}

func (g *fakeGraph) group(title string, nodes ...*fakeNode) *fakeRegion {
	r := &fakeRegion{title: title, members: nodes}
	g.regions = append(g.regions, r)
	return r
}

func (g *fakeGraph) connect(from, to *fakeNode) {
	g.nextLink++
	g.links[g.nextLink] = to.id
	from.outputs = append(from.outputs, g.nextLink)
}

// container adds a node titled title that owns a fresh nested graph.
func (g *fakeGraph) container(id bypass.NodeID, title string) *fakeGraph {
	n := g.node(id, bypass.RolePlain)
	n.title = title
	sub := newFakeGraph()
	sub.owner = n
	n.sub = sub
	return sub
}

// threeGroups builds a root graph with plain groups A, B and C.
func threeGroups() *fakeGraph {
	g := newFakeGraph()
	for i, title := range []string{"A", "B", "C"} {
		g.group(title, g.node(bypass.NodeID(i+1), bypass.RolePlain))
	}
	return g
}
