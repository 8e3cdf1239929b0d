package bypass

import "errors"

// Test doubles for the host capability interfaces.

type fakeNode struct {
	id      NodeID
	title   string
	mode    Mode
	role    Role
	outputs [][]LinkID
	sub     *fakeGraph
}

func (n *fakeNode) ID() NodeID     { return n.id }
func (n *fakeNode) Title() string  { return n.title }
func (n *fakeNode) Mode() Mode     { return n.mode }
func (n *fakeNode) SetMode(m Mode) { n.mode = m }
func (n *fakeNode) Role() Role     { return n.role }

func (n *fakeNode) Subgraph() Graph {
	if n.sub == nil {
		return nil
	}
	return n.sub
}

func (n *fakeNode) OutputLinks(slot int) []LinkID {
	if slot < 0 || slot >= len(n.outputs) {
		return nil
	}
	return n.outputs[slot]
}

var errRecompute = errors.New("recompute failed")

type fakeRegion struct {
	title    string
	hasTitle bool
	want     []*fakeNode
	members  []Node
	fail     bool
	calls    int
}

func (r *fakeRegion) Title() (string, bool) { return r.title, r.hasTitle }

func (r *fakeRegion) RecomputeMembers() error {
	r.calls++
	if r.fail {
		return errRecompute
	}
	r.members = r.members[:0]
	for _, n := range r.want {
		r.members = append(r.members, n)
	}
	return nil
}

func (r *fakeRegion) Members() []Node { return r.members }

type fakeGraph struct {
	nodes   []*fakeNode
	links   map[LinkID]NodeID
	regions []*fakeRegion
	owner   *fakeNode
	nextID  LinkID
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{links: make(map[LinkID]NodeID)}
}

func (g *fakeGraph) Regions() []Region {
	out := make([]Region, len(g.regions))
	for i, r := range g.regions {
		out[i] = r
	}
	return out
}

func (g *fakeGraph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n
	}
	return out
}

func (g *fakeGraph) Node(id NodeID) (Node, bool) {
	for _, n := range g.nodes {
		if n.id == id {
			return n, true
		}
	}
	return nil, false
}

func (g *fakeGraph) Link(id LinkID) (NodeID, bool) {
	t, ok := g.links[id]
	return t, ok
}

func (g *fakeGraph) Owner() Node {
	if g.owner == nil {
		return nil
	}
	return g.owner
}

func (g *fakeGraph) add(id NodeID, role Role) *fakeNode {
	n := &fakeNode{id: id, role: role, title: role.String()}
	g.nodes = append(g.nodes, n)
	return n
}

// connect links from's output 0 to to.
func (g *fakeGraph) connect(from, to *fakeNode) LinkID {
	g.nextID++
	id := g.nextID
	g.links[id] = to.id
	if len(from.outputs) == 0 {
		from.outputs = make([][]LinkID, 1)
	}
	from.outputs[0] = append(from.outputs[0], id)
	return id
}

func (g *fakeGraph) group(title string, nodes ...*fakeNode) *fakeRegion {
	r := &fakeRegion{title: title, hasTitle: true, want: nodes}
	g.regions = append(g.regions, r)
	return r
}

// nest makes n a container owning a fresh subgraph.
func nest(n *fakeNode) *fakeGraph {
	sub := newFakeGraph()
	sub.owner = n
	n.sub = sub
	return sub
}

type countingCanvas struct{ dirty int }

func (c *countingCanvas) MarkDirty() { c.dirty++ }
