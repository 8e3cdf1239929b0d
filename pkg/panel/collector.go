package panel

import (
	"errors"
	"strings"

	"github.com/hybs/groupbypass/pkg/bypass"
)

// DefaultRootLabel labels the root graph and graphs whose owner has no title.
const DefaultRootLabel = "Main"

// ErrNotReady is returned by [Collect] when the root graph is missing or the
// host reports that it is still loading.
var ErrNotReady = errors.New("panel: graph not ready")

// Readiness is implemented by hosts that can tell whether a graph is fully
// populated. Graphs that do not implement it are always considered ready.
type Readiness interface {
	Ready() bool
}

// Entry is one listed group.
type Entry struct {
	Graph  bypass.Graph
	Region bypass.Region

	// Label is "[<graph label>] <group title>" and is the key used by the
	// order string.
	Label string
	// Index is the position of the entry in auto order.
	Index int
}

// FormatLabel builds an entry label.
func FormatLabel(graphLabel, title string) string {
	return "[" + graphLabel + "] " + title
}

// AllGraphs returns root followed by every nested graph, depth first, with
// nested graphs visited in the order their owning nodes appear. A graph
// reachable twice is listed once.
func AllGraphs(root bypass.Graph) []bypass.Graph {
	if root == nil {
		return nil
	}
	var out []bypass.Graph
	visited := make(map[bypass.Graph]bool)

	var walk func(g bypass.Graph)
	walk = func(g bypass.Graph) {
		if visited[g] {
			return
		}
		visited[g] = true
		out = append(out, g)
		for _, n := range g.Nodes() {
			if n == nil {
				continue
			}
			if sub := n.Subgraph(); sub != nil {
				walk(sub)
			}
		}
	}
	walk(root)
	return out
}

// GraphLabel returns the trimmed title of the node owning g, or rootLabel
// when g has no owner or the owner's title is blank.
func GraphLabel(g bypass.Graph, rootLabel string) string {
	if g == nil {
		return rootLabel
	}
	owner := g.Owner()
	if owner == nil {
		return rootLabel
	}
	if title := strings.TrimSpace(owner.Title()); title != "" {
		return title
	}
	return rootLabel
}

// Collect lists every group of every graph under root in auto order.
// An empty rootLabel selects [DefaultRootLabel].
func Collect(root bypass.Graph, rootLabel string) ([]Entry, error) {
	if root == nil {
		return nil, ErrNotReady
	}
	if r, ok := root.(Readiness); ok && !r.Ready() {
		return nil, ErrNotReady
	}
	if rootLabel == "" {
		rootLabel = DefaultRootLabel
	}

	var entries []Entry
	for _, g := range AllGraphs(root) {
		label := GraphLabel(g, rootLabel)
		for _, rg := range bypass.RegionsOf(g) {
			if rg == nil {
				continue
			}
			entries = append(entries, Entry{
				Graph:  g,
				Region: rg,
				Label:  FormatLabel(label, bypass.RegionTitle(rg)),
				Index:  len(entries),
			})
		}
	}
	return entries, nil
}
