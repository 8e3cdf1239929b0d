package bypass

// NodeID identifies a node within a single graph.
type NodeID int64

// LinkID identifies a link within a single graph.
type LinkID int64

// Mode is a node's execution mode as understood by the host.
// Only [ModeEnabled] and [ModeBypassed] are produced by this package; other
// host values (such as [ModeMuted]) are read and preserved but never written.
type Mode int

const (
	// ModeEnabled runs the node normally.
	ModeEnabled Mode = 0
	// ModeMuted disables the node and everything downstream of it.
	ModeMuted Mode = 2
	// ModeBypassed keeps the node wired in but skips it during execution.
	ModeBypassed Mode = 4
)

// String returns a short lowercase name for the mode.
func (m Mode) String() string {
	switch m {
	case ModeEnabled:
		return "enabled"
	case ModeMuted:
		return "muted"
	case ModeBypassed:
		return "bypassed"
	default:
		return "unknown"
	}
}

// ModeFor maps a boolean bypass request to the mode written to nodes.
func ModeFor(bypass bool) Mode {
	if bypass {
		return ModeBypassed
	}
	return ModeEnabled
}

// Role is the behavioral tag carried by a node.
type Role int

const (
	// RolePlain is an ordinary node with no cascade semantics.
	RolePlain Role = iota
	// RoleParentMarker starts a cascade through its output 0.
	RoleParentMarker
	// RoleChildMarker receives a cascade and may chain it onward.
	RoleChildMarker
	// RolePanel hosts the group listing and its order preferences.
	RolePanel
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RolePlain:
		return "plain"
	case RoleParentMarker:
		return "parent"
	case RoleChildMarker:
		return "child"
	case RolePanel:
		return "panel"
	default:
		return "unknown"
	}
}

// IsMarker reports whether the role takes part in cascade traversal.
func (r Role) IsMarker() bool {
	switch r {
	case RoleParentMarker, RoleChildMarker:
		return true
	case RolePlain, RolePanel:
		return false
	default:
		return false
	}
}

// Node is a host-owned graph vertex.
type Node interface {
	// ID returns the node's identifier, unique within its graph.
	ID() NodeID
	// Title returns the display title, possibly empty.
	Title() string
	// Mode returns the current execution mode.
	Mode() Mode
	// SetMode changes the execution mode.
	SetMode(Mode)
	// Role returns the node's behavioral tag.
	Role() Role
	// OutputLinks returns the link ids attached to output slot, or nil if
	// the slot does not exist.
	OutputLinks(slot int) []LinkID
	// Subgraph returns the nested graph owned by this node, or nil if the
	// node is not a container.
	Subgraph() Graph
}

// Region is a host-owned group of nodes within one graph.
type Region interface {
	// Title returns the group title and whether it was set to a string.
	Title() (string, bool)
	// RecomputeMembers asks the host to refresh membership from geometry.
	// On error the previous membership stays in effect.
	RecomputeMembers() error
	// Members returns the most recently computed members.
	Members() []Node
}

// Graph is a host-owned container of nodes, links and regions.
type Graph interface {
	// Regions returns the live region list in host order.
	Regions() []Region
	// Nodes returns every node in host order.
	Nodes() []Node
	// Node resolves a node by id.
	Node(id NodeID) (Node, bool)
	// Link resolves a link by id to its target node id.
	Link(id LinkID) (target NodeID, ok bool)
	// Owner returns the container node that owns this graph, or nil for the root.
	Owner() Node
}

// Canvas receives repaint requests after a batch of mutations.
type Canvas interface {
	MarkDirty()
}

// CanvasFunc adapts a plain function to [Canvas].
type CanvasFunc func()

// MarkDirty calls f.
func (f CanvasFunc) MarkDirty() { f() }

// NopCanvas ignores repaint requests.
var NopCanvas Canvas = CanvasFunc(func() {})
