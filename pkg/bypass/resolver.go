package bypass

import (
	"github.com/hybs/groupbypass/pkg/observability"
)

// Resolver applies bypass toggles to groups and cascades them through
// marker links. The canvas it was built with is marked dirty once per
// mutation batch.
//
// The zero value is not usable - use NewResolver.
type Resolver struct {
	canvas Canvas
	hooks  observability.CascadeHooks
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHooks sets the hooks that receive cascade events.
func WithHooks(h observability.CascadeHooks) Option {
	return func(r *Resolver) {
		if h != nil {
			r.hooks = h
		}
	}
}

// NewResolver creates a resolver that repaints through canvas.
// A nil canvas is replaced by [NopCanvas].
func NewResolver(canvas Canvas, opts ...Option) *Resolver {
	if canvas == nil {
		canvas = NopCanvas
	}
	r := &Resolver{canvas: canvas, hooks: observability.NoopCascadeHooks{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Plan returns the groups a cascade from parent would set: every group
// containing parent, followed by every group containing a reachable child
// marker. Each group appears once, in discovery order. Plan does not mutate.
func (r *Resolver) Plan(g Graph, parent Node) []Region {
	groups, _ := r.plan(g, parent)
	return groups
}

func (r *Resolver) plan(g Graph, parent Node) ([]Region, []Node) {
	var groups []Region
	seen := make(map[Region]bool)
	add := func(rs []Region) {
		for _, rg := range rs {
			if !seen[rg] {
				seen[rg] = true
				groups = append(groups, rg)
			}
		}
	}

	add(RegionsContaining(g, parent))
	children := ChildMarkersReachableFrom(g, parent)
	for _, child := range children {
		add(RegionsContaining(g, child))
	}
	return groups, children
}

// ApplyCascade sets the bypass state of every group in the cascade from
// parent, then marks the canvas dirty.
func (r *Resolver) ApplyCascade(g Graph, parent Node, bypass bool) {
	groups, children := r.plan(g, parent)
	for _, rg := range groups {
		SetBypass(rg, bypass)
	}
	if parent != nil {
		r.hooks.OnCascade(int64(parent.ID()), len(children), len(groups), bypass)
	}
	r.canvas.MarkDirty()
}

// ToggleRegion sets the bypass state of rg. When rg contains parent
// markers, the toggle cascades once per marker; otherwise only rg is set.
func (r *Resolver) ToggleRegion(g Graph, rg Region, bypass bool) {
	parents := ParentMarkersIn(g, rg)
	r.hooks.OnToggle(RegionTitle(rg), bypass, len(parents) > 0)

	if len(parents) == 0 {
		SetBypass(rg, bypass)
		r.canvas.MarkDirty()
		return
	}
	for _, p := range parents {
		r.ApplyCascade(g, p, bypass)
	}
}
