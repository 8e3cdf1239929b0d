package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybs/groupbypass/pkg/bypass"
	apperr "github.com/hybs/groupbypass/pkg/errors"
	"github.com/hybs/groupbypass/pkg/observability"
	"github.com/hybs/groupbypass/pkg/panel"
)

const detailID = "6f1c1f8e-2d3b-4d55-9a4a-0b0d1d7d0a11"

func loadFixture(t *testing.T, opts ...Option) *Workflow {
	t.Helper()
	wf, err := Load(filepath.Join("testdata", "cascade.json"), opts...)
	require.NoError(t, err)
	return wf
}

func group(t *testing.T, g *Graph, title string) *Group {
	t.Helper()
	for _, gr := range g.Groups() {
		if got, _ := gr.Title(); got == title {
			return gr
		}
	}
	t.Fatalf("group %q not found", title)
	return nil
}

func memberIDs(r bypass.Region) []bypass.NodeID {
	var out []bypass.NodeID
	for _, n := range bypass.MembersOf(r) {
		out = append(out, n.ID())
	}
	return out
}

func TestLoadStructure(t *testing.T) {
	wf := loadFixture(t)
	root := wf.Root()

	assert.Len(t, root.WorkflowNodes(), 7)
	assert.Len(t, root.Groups(), 3)
	assert.Nil(t, root.Owner())
	assert.True(t, root.Ready())

	n, ok := root.Node(1)
	require.True(t, ok)
	assert.Equal(t, bypass.RoleParentMarker, n.Role())
	assert.Equal(t, []bypass.LinkID{1}, n.OutputLinks(0))
	assert.Nil(t, n.OutputLinks(1))

	target, ok := root.Link(2)
	require.True(t, ok)
	assert.Equal(t, bypass.NodeID(3), target)

	three, _ := root.Node(3)
	assert.Empty(t, three.OutputLinks(0), "null link list")

	note, _ := root.Node(7)
	assert.Equal(t, bypass.ModeMuted, note.Mode())
	assert.Equal(t, "Note", note.Title(), "untitled node falls back to type")

	sampler, _ := root.Node(4)
	assert.Equal(t, "Sampler", sampler.Title())
}

func TestRoleOf(t *testing.T) {
	tests := []struct {
		typ  string
		want bypass.Role
	}{
		{TypeParentMarker, bypass.RoleParentMarker},
		{TypeChildMarker, bypass.RoleChildMarker},
		{TypePanel, bypass.RolePanel},
		{"KSampler", bypass.RolePlain},
		{"", bypass.RolePlain},
	}
	for _, tt := range tests {
		if got := RoleOf(tt.typ); got != tt.want {
			t.Errorf("RoleOf(%q) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestSubgraphViews(t *testing.T) {
	wf := loadFixture(t)
	container, ok := wf.Root().Node(5)
	require.True(t, ok)

	sub := container.(*Node).NestedGraph()
	require.NotNil(t, sub)
	assert.Equal(t, detailID, sub.DefinitionID())
	assert.Same(t, container, sub.Owner())
	assert.Equal(t, "Detail", container.Title(), "container falls back to definition name")

	target, ok := sub.Link(1)
	require.True(t, ok, "object-form link")
	assert.Equal(t, bypass.NodeID(2), target)

	assert.Len(t, wf.Graphs(), 2)
}

func TestGroupMembership(t *testing.T) {
	wf := loadFixture(t)
	root := wf.Root()

	assert.Equal(t, []bypass.NodeID{1, 4}, memberIDs(group(t, root, "G1")))
	assert.Equal(t, []bypass.NodeID{2, 5}, memberIDs(group(t, root, "G2")))
	assert.Equal(t, []bypass.NodeID{3}, memberIDs(group(t, root, "G3")))

	container, _ := root.Node(5)
	sub := container.(*Node).NestedGraph()
	assert.Equal(t, []bypass.NodeID{1}, memberIDs(group(t, sub, "Face")))
}

func TestMembershipFollowsMoves(t *testing.T) {
	wf := loadFixture(t)
	root := wf.Root()
	g1 := group(t, root, "G1")
	require.Len(t, memberIDs(g1), 2)

	n, _ := root.Node(4)
	n.(*Node).raw["pos"] = []any{json.Number("2000"), json.Number("2000")}
	assert.Equal(t, []bypass.NodeID{1}, memberIDs(g1))
}

type recordingHostHooks struct {
	ops []string
}

func (h *recordingHostHooks) OnHostError(op string, err error) { h.ops = append(h.ops, op) }

func TestMalformedBoundingKeepsMembers(t *testing.T) {
	hooks := &recordingHostHooks{}
	wf := loadFixture(t, WithHooks(hooks))
	g1 := group(t, wf.Root(), "G1")
	require.Len(t, memberIDs(g1), 2)

	g1.raw["bounding"] = "broken"
	assert.Error(t, g1.RecomputeMembers())
	assert.Equal(t, []bypass.NodeID{1, 4}, memberIDs(g1))
	assert.NotEmpty(t, hooks.ops)
}

func TestCascadeThroughWorkflow(t *testing.T) {
	wf := loadFixture(t)
	root := wf.Root()
	r := bypass.NewResolver(wf)

	r.ToggleRegion(root, group(t, root, "G1"), true)
	for _, title := range []string{"G1", "G2", "G3"} {
		assert.True(t, bypass.IsBypassed(group(t, root, title)), title)
	}
	container, _ := root.Node(5)
	for _, n := range container.Subgraph().Nodes() {
		assert.Equal(t, bypass.ModeBypassed, n.Mode(), "nested node %d", n.ID())
	}
	note, _ := root.Node(7)
	assert.Equal(t, bypass.ModeMuted, note.Mode(), "nodes outside the cascade keep their mode")
	assert.True(t, wf.Modified())

	r.ToggleRegion(root, group(t, root, "G1"), false)
	for _, title := range []string{"G1", "G2", "G3"} {
		assert.False(t, bypass.IsBypassed(group(t, root, title)), title)
	}
}

func TestPanelProperties(t *testing.T) {
	wf := loadFixture(t)
	require.True(t, wf.HasPanel())
	props := wf.PanelProperties()

	mode, ok := props.Property("order_mode")
	assert.True(t, ok)
	assert.Equal(t, "custom", mode)

	_, ok = props.Property("missing")
	assert.False(t, ok)

	wf.ClearModified()
	props.SetProperty("order_titles", "[Main] G2, [Main] G1")
	assert.True(t, wf.Modified())
	assert.Equal(t, int64(6), int64(props.Node().ID()))

	p := panel.New(wf.Root(), wf, props)
	var labels []string
	for _, tg := range p.Toggles() {
		labels = append(labels, tg.DisplayLabel())
	}
	assert.Equal(t, []string{"[Main] G2", "[Main] G1 (cascade)", "[Main] G3", "[Detail] Face"}, labels)
}

func TestDetachedProperties(t *testing.T) {
	wf, err := Read(strings.NewReader(`{"nodes": [], "groups": []}`))
	require.NoError(t, err)
	assert.False(t, wf.HasPanel())

	props := wf.PanelProperties()
	props.SetProperty("order_mode", "custom")
	v, ok := props.Property("order_mode")
	assert.True(t, ok)
	assert.Equal(t, "custom", v)
	assert.False(t, wf.Modified(), "detached store does not touch the document")
}

func TestNonStringPropertyReadsEmpty(t *testing.T) {
	doc := `{"nodes": [{"id": 1, "type": "HYBS_GroupBypasser_Panel", "properties": {"order_titles": 12}}]}`
	wf, err := Read(strings.NewReader(doc))
	require.NoError(t, err)

	v, ok := wf.PanelProperties().Property("order_titles")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestSaveRoundTrip(t *testing.T) {
	wf := loadFixture(t)
	root := wf.Root()
	bypass.NewResolver(wf).ToggleRegion(root, group(t, root, "G3"), true)

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, wf.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"<keep> & preserve"`)
	assert.Contains(t, string(data), `"Node name for S&R"`)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "extra")
	assert.Equal(t, 0.4, doc["version"])

	again, err := Load(path)
	require.NoError(t, err)
	n, _ := again.Root().Node(3)
	assert.Equal(t, bypass.ModeBypassed, n.Mode())
	n, _ = again.Root().Node(1)
	assert.Equal(t, bypass.ModeEnabled, n.Mode())

	entries, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".groupbypass-*"))
	assert.Empty(t, entries, "temporary file removed")
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"NotJSON", `nodes: none`},
		{"NotObject", `[1, 2, 3]`},
		{"BadNodeID", `{"nodes": [{"id": "x"}]}`},
		{"DuplicateNodeID", `{"nodes": [{"id": 1}, {"id": 1}]}`},
		{"BadLink", `{"nodes": [], "links": [[1, 2]]}`},
		{"BadSubgraphID", `{"definitions": {"subgraphs": [{"id": "not-a-uuid"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
			assert.True(t, apperr.Is(err, apperr.ErrCodeInvalidWorkflow))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, apperr.Is(err, apperr.ErrCodeFileNotFound))
}

func TestRepair(t *testing.T) {
	broken := `{"nodes": [{"id": 1, "type": "KSampler", "pos": [0, 0], "size": [10, 10],},], "groups": [{"title": "A", "bounding": [0, -40, 50, 50]}],}`

	_, err := Read(strings.NewReader(broken))
	require.Error(t, err)

	wf, err := Read(strings.NewReader(broken), WithRepair())
	require.NoError(t, err)
	assert.True(t, wf.Repaired())
	assert.Len(t, wf.Root().Groups(), 1)

	clean, err := Read(strings.NewReader(`{"nodes": []}`), WithRepair())
	require.NoError(t, err)
	assert.False(t, clean.Repaired())
}

func TestNotReadyDocument(t *testing.T) {
	wf, err := Read(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.False(t, wf.Root().Ready())

	_, err = panel.Collect(wf.Root(), "Main")
	assert.ErrorIs(t, err, panel.ErrNotReady)
}

func TestSelfReferencingSubgraph(t *testing.T) {
	doc := `{
	  "nodes": [{"id": 1, "type": "` + detailID + `"}],
	  "definitions": {"subgraphs": [{"id": "` + detailID + `", "name": "Loop",
	    "nodes": [{"id": 1, "type": "` + detailID + `"}]}]}
	}`
	wf, err := Read(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Len(t, wf.Graphs(), 2)
}

func TestWriteEscaping(t *testing.T) {
	wf, err := Read(strings.NewReader(`{"nodes": [], "note": "a < b"}`))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, wf.Write(&buf))
	assert.Contains(t, buf.String(), `"a < b"`)
}

var _ observability.HostHooks = (*recordingHostHooks)(nil)

func TestSharedDefinitionSingleView(t *testing.T) {
	doc := `{
	  "nodes": [
	    {"id": 1, "type": "` + detailID + `", "pos": [0, 0], "size": [100, 100]},
	    {"id": 2, "type": "` + detailID + `", "pos": [300, 0], "size": [100, 100]}
	  ],
	  "definitions": {"subgraphs": [{"id": "` + detailID + `", "name": "Detail",
	    "nodes": [{"id": 1, "type": "KSampler", "pos": [10, 40], "size": [50, 30], "mode": 0}],
	    "groups": [{"title": "Face", "bounding": [0, 0, 200, 200]}]}]}
	}`
	wf, err := Read(strings.NewReader(doc))
	require.NoError(t, err)

	first, _ := wf.Root().Node(1)
	second, _ := wf.Root().Node(2)
	sub := first.(*Node).NestedGraph()
	require.NotNil(t, sub)
	assert.Same(t, sub, second.(*Node).NestedGraph())
	assert.Same(t, first, sub.Owner(), "first container owns the view")
	assert.Len(t, wf.Graphs(), 2)

	entries, err := panel.Collect(wf.Root(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"[Detail] Face"}, panel.Labels(entries))

	reconciled := panel.Reconcile(entries, panel.OrderCustom, "[Detail] Face")
	assert.Len(t, reconciled, 1)
}
