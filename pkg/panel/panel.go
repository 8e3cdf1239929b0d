package panel

import (
	"context"
	"errors"
	"time"

	"github.com/hybs/groupbypass/pkg/bypass"
	apperr "github.com/hybs/groupbypass/pkg/errors"
	"github.com/hybs/groupbypass/pkg/observability"
	"github.com/hybs/groupbypass/pkg/retry"
)

// Persisted property keys.
const (
	PropOrderMode   = "order_mode"
	PropOrderTitles = "order_titles"
)

// DefaultInterval is the minimum time between two unforced sync passes.
const DefaultInterval = 250 * time.Millisecond

// CascadeSuffix is appended to the display label of a toggle whose group
// contains a parent marker.
const CascadeSuffix = " (cascade)"

// Properties is the persisted string configuration of a panel node.
type Properties interface {
	Property(key string) (string, bool)
	SetProperty(key, value string)
}

// MapProperties is an in-memory [Properties] store.
type MapProperties map[string]string

func (m MapProperties) Property(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MapProperties) SetProperty(key, value string) { m[key] = value }

// WidgetKind identifies a panel control.
type WidgetKind int

const (
	WidgetCombo WidgetKind = iota
	WidgetText
	WidgetButton
	WidgetToggle
)

func (k WidgetKind) String() string {
	switch k {
	case WidgetCombo:
		return "combo"
	case WidgetText:
		return "text"
	case WidgetButton:
		return "button"
	case WidgetToggle:
		return "toggle"
	}
	return "unknown"
}

// Names of the static controls.
const (
	WidgetOrderMode   = "order mode"
	WidgetOrderTitles = "order titles"
	WidgetEditOrder   = "edit order"
	WidgetRefresh     = "refresh"
)

// StaticCount is the number of controls that precede the toggles.
const StaticCount = 4

// Widget is a snapshot of one panel control.
type Widget struct {
	Kind  WidgetKind
	Name  string
	Value string
	On    bool
}

// Toggle is a listed group's on/off control. On is true when the group is
// bypassed.
type Toggle struct {
	Entry   Entry
	On      bool
	Cascade bool
}

// DisplayLabel is the label shown to the user.
func (t Toggle) DisplayLabel() string {
	if t.Cascade {
		return t.Entry.Label + CascadeSuffix
	}
	return t.Entry.Label
}

// Option configures a Panel.
type Option func(*Panel)

// WithRootLabel sets the label used for the root graph.
func WithRootLabel(label string) Option {
	return func(p *Panel) {
		if label != "" {
			p.rootLabel = label
		}
	}
}

// WithInterval sets the minimum time between unforced sync passes.
func WithInterval(d time.Duration) Option {
	return func(p *Panel) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithHooks sets the hooks that receive panel events.
func WithHooks(h observability.PanelHooks) Option {
	return func(p *Panel) {
		if h != nil {
			p.hooks = h
		}
	}
}

// WithResolver sets the resolver toggles go through. By default the panel
// builds one on its own canvas.
func WithResolver(r *bypass.Resolver) Option {
	return func(p *Panel) {
		if r != nil {
			p.resolver = r
		}
	}
}

// Panel is the group listing of one panel node.
type Panel struct {
	root      bypass.Graph
	canvas    bypass.Canvas
	props     Properties
	resolver  *bypass.Resolver
	hooks     observability.PanelHooks
	rootLabel string
	interval  time.Duration

	toggles    []Toggle
	sig        string
	built      bool
	generation int

	structural bool
	lastSync   time.Time

	editor *Editor
}

// New creates a panel over root, persisting into props. Missing properties
// are initialized to auto mode with an empty order string. The panel builds
// its listing immediately; if the graph is not ready yet the listing starts
// empty and the next [Panel.Tick] retries.
func New(root bypass.Graph, canvas bypass.Canvas, props Properties, opts ...Option) *Panel {
	if canvas == nil {
		canvas = bypass.NopCanvas
	}
	if props == nil {
		props = MapProperties{}
	}
	p := &Panel{
		root:      root,
		canvas:    canvas,
		props:     props,
		hooks:     observability.NoopPanelHooks{},
		rootLabel: DefaultRootLabel,
		interval:  DefaultInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.resolver == nil {
		p.resolver = bypass.NewResolver(canvas)
	}

	p.initProperties()
	p.structural = true
	_ = p.Rebuild(true)
	return p
}

func (p *Panel) initProperties() {
	if _, ok := p.props.Property(PropOrderMode); !ok {
		p.props.SetProperty(PropOrderMode, string(OrderAuto))
	}
	if _, ok := p.props.Property(PropOrderTitles); !ok {
		p.props.SetProperty(PropOrderTitles, "")
	}
}

// ===== Properties =====

// OrderMode returns the persisted order mode. An unknown value reads as
// [OrderAuto].
func (p *Panel) OrderMode() OrderMode {
	v, _ := p.props.Property(PropOrderMode)
	if m, err := ParseOrderMode(v); err == nil {
		return m
	}
	return OrderAuto
}

// OrderTitles returns the persisted order string.
func (p *Panel) OrderTitles() string {
	v, _ := p.props.Property(PropOrderTitles)
	return v
}

// SetOrderMode persists the order mode and rebuilds the listing.
func (p *Panel) SetOrderMode(m OrderMode) error {
	if _, err := ParseOrderMode(string(m)); err != nil {
		return err
	}
	p.props.SetProperty(PropOrderMode, string(m))
	p.structural = true
	return p.rebuildAllowNotReady()
}

// SetOrderTitles persists the order string and rebuilds the listing.
func (p *Panel) SetOrderTitles(s string) error {
	p.props.SetProperty(PropOrderTitles, s)
	p.structural = true
	return p.rebuildAllowNotReady()
}

// Configure replaces the property store, as when the panel node is
// deserialized, and rebuilds the listing.
func (p *Panel) Configure(props Properties) error {
	if props != nil {
		p.props = props
	}
	p.initProperties()
	p.structural = true
	return p.rebuildAllowNotReady()
}

// Properties returns the property store.
func (p *Panel) Properties() Properties { return p.props }

// Root returns the graph the panel lists.
func (p *Panel) Root() bypass.Graph { return p.root }

// RootLabel returns the label used for the root graph.
func (p *Panel) RootLabel() string { return p.rootLabel }

// ===== Listing =====

// Entries collects the live entries in auto order.
func (p *Panel) Entries() ([]Entry, error) {
	return Collect(p.root, p.rootLabel)
}

// Rebuild recreates the toggle list when the signature of the live entries
// differs from the last build, or unconditionally when force is set.
//
// When the graph is not ready the toggle list is cleared, the next call
// rebuilds regardless of signature, and [ErrNotReady] is returned.
func (p *Panel) Rebuild(force bool) error {
	entries, err := Collect(p.root, p.rootLabel)
	if err != nil {
		p.toggles = nil
		p.sig = ""
		p.built = false
		return err
	}

	sig := Signature(entries)
	if !force && p.built && sig == p.sig {
		return nil
	}
	p.sig = sig
	p.built = true

	ordered := Reconcile(entries, p.OrderMode(), p.OrderTitles())
	toggles := make([]Toggle, len(ordered))
	for i, e := range ordered {
		toggles[i] = Toggle{
			Entry:   e,
			On:      bypass.IsBypassed(e.Region),
			Cascade: bypass.HasParentMarker(e.Graph, e.Region),
		}
	}
	p.toggles = toggles
	p.generation++

	p.hooks.OnRebuild(len(toggles), force)
	p.canvas.MarkDirty()
	return nil
}

func (p *Panel) rebuildAllowNotReady() error {
	if err := p.Rebuild(true); err != nil && !errors.Is(err, ErrNotReady) {
		return err
	}
	return nil
}

// Refresh re-reads the bypass state of every listed group without
// rebuilding the list. It returns the number of toggles whose value changed.
func (p *Panel) Refresh() int {
	changed := 0
	for i := range p.toggles {
		on := bypass.IsBypassed(p.toggles[i].Entry.Region)
		if on != p.toggles[i].On {
			p.toggles[i].On = on
			changed++
		}
	}
	return changed
}

// RequestRefresh forces a rebuild and flags the next tick to run at once.
func (p *Panel) RequestRefresh() error {
	p.structural = true
	return p.rebuildAllowNotReady()
}

// Tick runs one sync pass when a structural change is pending or at least
// the minimum interval has passed since the previous pass. It reports
// whether the pass ran.
func (p *Panel) Tick(now time.Time) (bool, error) {
	if !p.structural && !p.lastSync.IsZero() && now.Sub(p.lastSync) < p.interval {
		return false, nil
	}
	start := time.Now()
	p.structural = false
	p.lastSync = now

	p.Refresh()
	err := p.Rebuild(false)
	p.hooks.OnSync(len(p.toggles), time.Since(start))
	return true, err
}

// Pending reports whether a structural change is waiting for the next tick.
func (p *Panel) Pending() bool { return p.structural }

// Generation counts completed rebuilds. Toggles from different generations
// are different controls.
func (p *Panel) Generation() int { return p.generation }

// Toggles returns a copy of the toggle list in display order.
func (p *Panel) Toggles() []Toggle {
	out := make([]Toggle, len(p.toggles))
	copy(out, p.toggles)
	return out
}

// Len returns the number of toggles.
func (p *Panel) Len() int { return len(p.toggles) }

// Find returns the index of the first toggle with the given entry label.
func (p *Panel) Find(label string) (int, bool) {
	for i, t := range p.toggles {
		if t.Entry.Label == label {
			return i, true
		}
	}
	return -1, false
}

// Toggle flips the group bound to toggle i. Groups with parent markers
// cascade. Every toggle value is refreshed afterwards.
func (p *Panel) Toggle(i int, on bool) error {
	if i < 0 || i >= len(p.toggles) {
		return errIndex(i, len(p.toggles))
	}
	t := p.toggles[i]
	p.resolver.ToggleRegion(t.Entry.Graph, t.Entry.Region, on)
	p.structural = true
	p.Refresh()
	return nil
}

// Widgets returns the static controls followed by one toggle control per
// listed group.
func (p *Panel) Widgets() []Widget {
	out := make([]Widget, 0, StaticCount+len(p.toggles))
	out = append(out,
		Widget{Kind: WidgetCombo, Name: WidgetOrderMode, Value: string(p.OrderMode())},
		Widget{Kind: WidgetText, Name: WidgetOrderTitles, Value: p.OrderTitles()},
		Widget{Kind: WidgetButton, Name: WidgetEditOrder, Value: "edit"},
		Widget{Kind: WidgetButton, Name: WidgetRefresh, Value: "refresh"},
	)
	for _, t := range p.toggles {
		out = append(out, Widget{Kind: WidgetToggle, Name: t.DisplayLabel(), On: t.On})
	}
	return out
}

// Height is the node height for the current toggle count.
func (p *Panel) Height() int {
	return max(220, 120+len(p.toggles)*28)
}

// ===== Readiness =====

var errEmpty = errors.New("panel: no groups yet")

// WaitReady retries [Collect] with the given policy until it returns at
// least one entry, then rebuilds. A graph that is ready but has no groups
// uses up the attempts and ends with an empty listing and a nil error. A
// graph that never became ready returns a [apperr.NotReadyError].
func (p *Panel) WaitReady(ctx context.Context, policy retry.Policy) error {
	attempts := 0
	err := retry.Do(ctx, policy, func(attempt int) error {
		attempts = attempt
		entries, err := Collect(p.root, p.rootLabel)
		if err == nil && len(entries) == 0 {
			err = errEmpty
		}
		if err == nil {
			return nil
		}
		p.hooks.OnNotReady(attempt, err)
		if errors.Is(err, ErrNotReady) || errors.Is(err, errEmpty) {
			return retry.Retryable(err)
		}
		return err
	})

	rebuildErr := p.Rebuild(true)
	switch {
	case err == nil, errors.Is(err, errEmpty):
		if rebuildErr != nil {
			return &apperr.NotReadyError{Attempts: attempts, Cause: rebuildErr}
		}
		return nil
	case errors.Is(err, ErrNotReady):
		return &apperr.NotReadyError{Attempts: attempts, Cause: err}
	default:
		return err
	}
}
