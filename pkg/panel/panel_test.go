package panel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybs/groupbypass/pkg/bypass"
	apperr "github.com/hybs/groupbypass/pkg/errors"
	"github.com/hybs/groupbypass/pkg/observability"
	"github.com/hybs/groupbypass/pkg/retry"
)

type countingCanvas struct{ dirty int }

func (c *countingCanvas) MarkDirty() { c.dirty++ }

type recordingPanelHooks struct {
	observability.NoopPanelHooks
	rebuilds []int
	syncs    int
	notReady []int
}

func (h *recordingPanelHooks) OnRebuild(entries int, forced bool) {
	h.rebuilds = append(h.rebuilds, entries)
}

func (h *recordingPanelHooks) OnSync(toggles int, d time.Duration) { h.syncs++ }

func (h *recordingPanelHooks) OnNotReady(attempt int, err error) {
	h.notReady = append(h.notReady, attempt)
}

func displayLabels(p *Panel) []string {
	var out []string
	for _, t := range p.Toggles() {
		out = append(out, t.DisplayLabel())
	}
	return out
}

func TestNewInitializesProperties(t *testing.T) {
	props := MapProperties{}
	p := New(threeGroups(), nil, props)

	assert.Equal(t, "auto", props[PropOrderMode])
	assert.Equal(t, "", props[PropOrderTitles])
	assert.Equal(t, 3, p.Len())
	assert.True(t, p.Pending(), "creation flags a structural change")

	kept := MapProperties{PropOrderMode: "custom", PropOrderTitles: "[Main] C"}
	p = New(threeGroups(), nil, kept)
	assert.Equal(t, OrderCustom, p.OrderMode())
	assert.Equal(t, []string{"[Main] C", "[Main] A", "[Main] B"}, displayLabels(p))
}

func TestWidgets(t *testing.T) {
	g := newFakeGraph()
	parent := g.node(1, bypass.RoleParentMarker)
	child := g.node(2, bypass.RoleChildMarker)
	g.connect(parent, child)
	g.group("Switch", parent)
	g.group("Target", child)

	p := New(g, nil, nil)
	w := p.Widgets()
	require.Len(t, w, StaticCount+2)

	assert.Equal(t, Widget{Kind: WidgetCombo, Name: WidgetOrderMode, Value: "auto"}, w[0])
	assert.Equal(t, WidgetText, w[1].Kind)
	assert.Equal(t, WidgetEditOrder, w[2].Name)
	assert.Equal(t, WidgetRefresh, w[3].Name)
	assert.Equal(t, "[Main] Switch (cascade)", w[4].Name)
	assert.Equal(t, "[Main] Target", w[5].Name)
	assert.Equal(t, WidgetToggle, w[5].Kind)
}

func TestStaticWidgetsSurviveRelist(t *testing.T) {
	g := threeGroups()
	p := New(g, nil, nil)
	g.regions = g.regions[:1]

	_, err := p.Tick(time.Now())
	require.NoError(t, err)
	w := p.Widgets()
	assert.Len(t, w, StaticCount+1)
	assert.Equal(t, WidgetOrderMode, w[0].Name)
	assert.Equal(t, p.Len(), len(w)-StaticCount)
}

func TestRebuildSkipsUnchangedSignature(t *testing.T) {
	canvas := &countingCanvas{}
	hooks := &recordingPanelHooks{}
	g := threeGroups()
	p := New(g, canvas, nil, WithHooks(hooks))
	gen := p.Generation()

	require.NoError(t, p.Rebuild(false))
	assert.Equal(t, gen, p.Generation(), "no-op rebuild")

	require.NoError(t, p.Rebuild(true))
	assert.Equal(t, gen+1, p.Generation(), "forced rebuild")

	g.group("D", g.node(4, bypass.RolePlain))
	require.NoError(t, p.Rebuild(false))
	assert.Equal(t, gen+2, p.Generation(), "signature changed")
	assert.Equal(t, 4, p.Len())

	assert.Equal(t, []int{3, 3, 4}, hooks.rebuilds)
	assert.Equal(t, 3, canvas.dirty)
}

func TestTickInterval(t *testing.T) {
	hooks := &recordingPanelHooks{}
	p := New(threeGroups(), nil, nil, WithInterval(time.Second), WithHooks(hooks))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	ran, _ := p.Tick(start)
	assert.True(t, ran, "creation flag runs the first tick")

	ran, _ = p.Tick(start.Add(500 * time.Millisecond))
	assert.False(t, ran, "within interval")

	ran, _ = p.Tick(start.Add(time.Second))
	assert.True(t, ran, "interval elapsed")

	require.NoError(t, p.RequestRefresh())
	ran, _ = p.Tick(start.Add(time.Second + time.Millisecond))
	assert.True(t, ran, "structural change skips the interval")
	assert.Equal(t, 3, hooks.syncs)
}

func TestTickRefreshesValues(t *testing.T) {
	g := threeGroups()
	p := New(g, nil, nil)
	gen := p.Generation()

	g.nodes[1].mode = bypass.ModeBypassed
	_, err := p.Tick(time.Now())
	require.NoError(t, err)

	toggles := p.Toggles()
	assert.False(t, toggles[0].On)
	assert.True(t, toggles[1].On)
	assert.Equal(t, gen, p.Generation(), "value refresh keeps toggle identity")
}

func TestToggleCascades(t *testing.T) {
	g := newFakeGraph()
	parent := g.node(1, bypass.RoleParentMarker)
	c2 := g.node(2, bypass.RoleChildMarker)
	c3 := g.node(3, bypass.RoleChildMarker)
	g.connect(parent, c2)
	g.connect(c2, c3)
	g.group("G1", parent, g.node(11, bypass.RolePlain))
	g.group("G2", c2, g.node(12, bypass.RolePlain))
	g.group("G3", c3, g.node(13, bypass.RolePlain))

	canvas := &countingCanvas{}
	p := New(g, canvas, nil)
	i, ok := p.Find("[Main] G1")
	require.True(t, ok)

	require.NoError(t, p.Toggle(i, true))
	for _, tg := range p.Toggles() {
		assert.True(t, tg.On, tg.Entry.Label)
	}
	assert.True(t, p.Pending())

	require.NoError(t, p.Toggle(i, false))
	for _, tg := range p.Toggles() {
		assert.False(t, tg.On, tg.Entry.Label)
	}

	err := p.Toggle(99, true)
	assert.True(t, apperr.Is(err, apperr.ErrCodeInvalidInput))
}

func TestToggleNestedGraph(t *testing.T) {
	root := newFakeGraph()
	sub := root.container(1, "Detail")
	inner := sub.node(1, bypass.RolePlain)
	sub.group("Face", inner)

	p := New(root, nil, nil)
	i, ok := p.Find("[Detail] Face")
	require.True(t, ok)
	require.NoError(t, p.Toggle(i, true))
	assert.Equal(t, bypass.ModeBypassed, inner.mode)
}

func TestOrderSettings(t *testing.T) {
	props := MapProperties{}
	p := New(threeGroups(), nil, props)

	require.NoError(t, p.SetOrderTitles("[Main] C, [Main] B"))
	assert.Equal(t, []string{"[Main] A", "[Main] B", "[Main] C"}, displayLabels(p), "auto mode ignores titles")

	require.NoError(t, p.SetOrderMode(OrderCustom))
	assert.Equal(t, []string{"[Main] C", "[Main] B", "[Main] A"}, displayLabels(p))
	assert.Equal(t, "custom", props[PropOrderMode])

	err := p.SetOrderMode("bogus")
	assert.True(t, apperr.Is(err, apperr.ErrCodeInvalidOrderMode))
	assert.Equal(t, OrderCustom, p.OrderMode())
}

func TestMalformedModeReadsAsAuto(t *testing.T) {
	p := New(threeGroups(), nil, MapProperties{PropOrderMode: "??", PropOrderTitles: "[Main] C"})
	assert.Equal(t, OrderAuto, p.OrderMode())
	assert.Equal(t, "[Main] A", p.Toggles()[0].Entry.Label)
}

func TestConfigure(t *testing.T) {
	p := New(threeGroups(), nil, nil)
	require.NoError(t, p.Configure(MapProperties{PropOrderMode: "custom", PropOrderTitles: "[Main] B"}))
	assert.Equal(t, "[Main] B", p.Toggles()[0].Entry.Label)
	assert.True(t, p.Pending())
}

func TestNotReadyClearsListing(t *testing.T) {
	g := threeGroups()
	p := New(g, nil, nil)
	require.Equal(t, 3, p.Len())

	g.notReady = true
	err := p.Rebuild(false)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, 0, p.Len())
	assert.Len(t, p.Widgets(), StaticCount)

	g.notReady = false
	require.NoError(t, p.Rebuild(false))
	assert.Equal(t, 3, p.Len())
}

func TestHeight(t *testing.T) {
	p := New(newFakeGraph(), nil, nil)
	assert.Equal(t, 220, p.Height())

	g := newFakeGraph()
	for i := range 5 {
		g.group("G", g.node(bypass.NodeID(i+1), bypass.RolePlain))
	}
	p = New(g, nil, nil)
	assert.Equal(t, 260, p.Height())
}

// loadingGraph becomes ready after a number of readiness checks.
type loadingGraph struct {
	*fakeGraph
	checks int
	after  int
}

func (g *loadingGraph) Ready() bool {
	g.checks++
	return g.checks > g.after
}

func TestWaitReady(t *testing.T) {
	policy := retry.Policy{Attempts: 5, InitialDelay: time.Millisecond}

	t.Run("BecomesReady", func(t *testing.T) {
		g := &loadingGraph{fakeGraph: threeGroups(), after: 3}
		hooks := &recordingPanelHooks{}
		p := New(g, nil, nil, WithHooks(hooks))
		require.Equal(t, 0, p.Len())

		require.NoError(t, p.WaitReady(context.Background(), policy))
		assert.Equal(t, 3, p.Len())
		assert.Equal(t, []int{1, 2}, hooks.notReady)
	})

	t.Run("EmptyGraph", func(t *testing.T) {
		p := New(newFakeGraph(), nil, nil)
		assert.NoError(t, p.WaitReady(context.Background(), policy))
		assert.Equal(t, 0, p.Len())
	})

	t.Run("NeverReady", func(t *testing.T) {
		g := threeGroups()
		g.notReady = true
		p := New(g, nil, nil)

		err := p.WaitReady(context.Background(), policy)
		var nr *apperr.NotReadyError
		require.True(t, errors.As(err, &nr))
		assert.Equal(t, 5, nr.Attempts)
		assert.ErrorIs(t, err, ErrNotReady)
		assert.Equal(t, 0, p.Len())
	})

	t.Run("Cancelled", func(t *testing.T) {
		g := threeGroups()
		g.notReady = true
		p := New(g, nil, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := p.WaitReady(ctx, retry.Policy{Attempts: 3, InitialDelay: time.Hour})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
