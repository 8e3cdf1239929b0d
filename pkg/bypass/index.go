package bypass

// DefaultRegionTitle is reported for regions whose title is unset.
const DefaultRegionTitle = "Group"

// RegionsOf returns the live region list of g. It returns nil for a nil graph.
func RegionsOf(g Graph) []Region {
	if g == nil {
		return nil
	}
	return g.Regions()
}

// RegionTitle returns the title of r, or [DefaultRegionTitle] when the host
// reports no string title.
func RegionTitle(r Region) string {
	if r == nil {
		return DefaultRegionTitle
	}
	if title, ok := r.Title(); ok {
		return title
	}
	return DefaultRegionTitle
}

// MembersOf recomputes and returns the members of r.
// A failing recomputation is ignored; the previous membership is returned,
// which is empty if none was ever computed. Nil entries are dropped.
func MembersOf(r Region) []Node {
	if r == nil {
		return nil
	}
	_ = r.RecomputeMembers()
	members := r.Members()
	out := members[:0:0]
	for _, n := range members {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// RegionsContaining returns every region of g whose fresh membership
// includes n, in host order.
func RegionsContaining(g Graph, n Node) []Region {
	if n == nil {
		return nil
	}
	var hit []Region
	for _, r := range RegionsOf(g) {
		if containsNode(MembersOf(r), n.ID()) {
			hit = append(hit, r)
		}
	}
	return hit
}

// ParentMarkersIn returns the parent markers among the members of r.
func ParentMarkersIn(g Graph, r Region) []Node {
	var parents []Node
	for _, n := range MembersOf(r) {
		if n.Role() == RoleParentMarker {
			parents = append(parents, n)
		}
	}
	return parents
}

// HasParentMarker reports whether r contains at least one parent marker.
func HasParentMarker(g Graph, r Region) bool {
	for _, n := range MembersOf(r) {
		if n.Role() == RoleParentMarker {
			return true
		}
	}
	return false
}

// IsBypassed reports whether any member of r is bypassed.
// An empty region is never bypassed.
func IsBypassed(r Region) bool {
	for _, n := range MembersOf(r) {
		if n.Mode() == ModeBypassed {
			return true
		}
	}
	return false
}

// SetBypass sets every member of r to the bypass or enabled mode. Members
// that own a nested graph propagate the same mode to every node of that
// graph, recursively through further containers.
func SetBypass(r Region, bypass bool) {
	mode := ModeFor(bypass)
	seen := make(map[Graph]bool)
	for _, n := range MembersOf(r) {
		setNodeMode(n, mode, seen)
	}
}

func setNodeMode(n Node, mode Mode, seen map[Graph]bool) {
	n.SetMode(mode)
	sub := n.Subgraph()
	if sub == nil || seen[sub] {
		return
	}
	seen[sub] = true
	for _, inner := range sub.Nodes() {
		if inner != nil {
			setNodeMode(inner, mode, seen)
		}
	}
}

func containsNode(nodes []Node, id NodeID) bool {
	for _, n := range nodes {
		if n.ID() == id {
			return true
		}
	}
	return false
}
