package workflow

// Properties is the string property store of the panel node. When the
// workflow has no panel node it is detached and lives in memory only.
type Properties struct {
	node     *Node
	detached map[string]string
}

// Property returns the value stored under key. A present value that is not
// a string reads as empty.
func (p *Properties) Property(key string) (string, bool) {
	if p.node == nil {
		v, ok := p.detached[key]
		return v, ok
	}
	props, ok := asObject(p.node.raw["properties"])
	if !ok {
		return "", false
	}
	v, ok := props[key]
	if !ok || v == nil {
		return "", false
	}
	s, _ := asString(v)
	return s, true
}

// SetProperty stores value under key.
func (p *Properties) SetProperty(key, value string) {
	if p.node == nil {
		p.detached[key] = value
		return
	}
	props, ok := asObject(p.node.raw["properties"])
	if !ok {
		props = make(map[string]any)
		p.node.raw["properties"] = props
	}
	props[key] = value
	p.node.graph.wf.MarkDirty()
}

// Detached reports whether the store is not backed by a panel node.
func (p *Properties) Detached() bool { return p.node == nil }

// Node returns the backing panel node, or nil when detached.
func (p *Properties) Node() *Node { return p.node }
