package bypass

// cascadeSlot is the output slot that carries cascade links on markers.
const cascadeSlot = 0

// LinkedSuccessors returns the nodes targeted by the links of n's output
// slot. Links that no longer exist and targets that cannot be resolved are
// skipped.
func LinkedSuccessors(g Graph, n Node, slot int) []Node {
	if g == nil || n == nil {
		return nil
	}
	var out []Node
	for _, id := range n.OutputLinks(slot) {
		target, ok := g.Link(id)
		if !ok {
			continue
		}
		if t, ok := g.Node(target); ok && t != nil {
			out = append(out, t)
		}
	}
	return out
}

// ChildMarkersReachableFrom collects the child markers reachable from
// parent's output 0 in breadth-first order.
//
// The search only extends through child markers: a non-marker target ends
// its branch. Each node is visited at most once, so cyclic chains terminate
// and every child marker is returned exactly once.
func ChildMarkersReachableFrom(g Graph, parent Node) []Node {
	queue := LinkedSuccessors(g, parent, cascadeSlot)
	visited := make(map[NodeID]bool)
	var children []Node

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if visited[n.ID()] {
			continue
		}
		visited[n.ID()] = true

		switch n.Role() {
		case RoleChildMarker:
			children = append(children, n)
			queue = append(queue, LinkedSuccessors(g, n, cascadeSlot)...)
		case RolePlain, RoleParentMarker, RolePanel:
		}
	}
	return children
}
