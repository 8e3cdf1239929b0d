package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kaptinlin/jsonrepair"

	"github.com/hybs/groupbypass/pkg/bypass"
	apperr "github.com/hybs/groupbypass/pkg/errors"
	"github.com/hybs/groupbypass/pkg/observability"
)

// ErrMalformed is wrapped by every error caused by document content.
var ErrMalformed = errors.New("workflow: malformed document")

// Option configures how a workflow is read.
type Option func(*Workflow)

// WithRepair lets [Read] repair documents that do not parse as JSON.
func WithRepair() Option {
	return func(w *Workflow) { w.repair = true }
}

// WithHooks sets the hooks that receive host failures.
func WithHooks(h observability.HostHooks) Option {
	return func(w *Workflow) {
		if h != nil {
			w.hooks = h
		}
	}
}

// Workflow is a decoded workflow document.
type Workflow struct {
	doc      map[string]any
	defs     map[string]map[string]any
	views    map[string]*Graph
	root     *Graph
	props    *Properties
	hooks    observability.HostHooks
	repair   bool
	repaired bool
	dirty    int
}

var _ bypass.Canvas = (*Workflow)(nil)

// Read decodes a workflow from r.
//
// Read returns an error wrapping [ErrMalformed] when the document is not a
// JSON object, or when a node, link or subgraph cannot be interpreted. With
// [WithRepair], input that is not valid JSON is first passed through a
// JSON repairer; [Workflow.Repaired] reports whether that happened.
func Read(r io.Reader, opts ...Option) (*Workflow, error) {
	w := &Workflow{hooks: observability.NoopHostHooks{}}
	for _, opt := range opts {
		opt(w)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	doc, err := decode(data)
	if err != nil && w.repair {
		fixed, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr == nil {
			if doc, err = decode([]byte(fixed)); err == nil {
				w.repaired = true
			}
		}
	}
	if err != nil {
		return nil, invalid(err)
	}
	w.doc = doc

	if err := w.index(); err != nil {
		return nil, invalid(err)
	}
	return w, nil
}

func invalid(err error) error {
	return apperr.Wrap(apperr.ErrCodeInvalidWorkflow, fmt.Errorf("%w: %w", ErrMalformed, err), "cannot interpret workflow")
}

func decode(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	doc, ok := asObject(v)
	if !ok {
		return nil, fmt.Errorf("decode: top level is %T, want object", v)
	}
	return doc, nil
}

func (w *Workflow) index() error {
	w.defs = make(map[string]map[string]any)
	w.views = make(map[string]*Graph)
	if defs, ok := asObject(w.doc["definitions"]); ok {
		subs, _ := asArray(defs["subgraphs"])
		for i, s := range subs {
			obj, ok := asObject(s)
			if !ok {
				return fmt.Errorf("definitions.subgraphs[%d]: not an object", i)
			}
			id, _ := asString(obj["id"])
			if !isDefinitionID(id) {
				return fmt.Errorf("definitions.subgraphs[%d]: invalid id %q", i, id)
			}
			w.defs[id] = obj
		}
	}

	root, err := newGraph(w, w.doc, nil, "", make(map[string]bool))
	if err != nil {
		return err
	}
	w.root = root

	if n := findPanel(root, make(map[*Graph]bool)); n != nil {
		w.props = &Properties{node: n}
	} else {
		w.props = &Properties{detached: make(map[string]string)}
	}
	return nil
}

func (w *Workflow) definition(typ string) (map[string]any, bool) {
	if !isDefinitionID(typ) {
		return nil, false
	}
	def, ok := w.defs[typ]
	return def, ok
}

func findPanel(g *Graph, seen map[*Graph]bool) *Node {
	if seen[g] {
		return nil
	}
	seen[g] = true
	for _, n := range g.nodes {
		if n.role == bypass.RolePanel {
			return n
		}
	}
	for _, n := range g.nodes {
		if n.sub != nil {
			if p := findPanel(n.sub, seen); p != nil {
				return p
			}
		}
	}
	return nil
}

// Load reads the workflow file at path.
func Load(path string, opts ...Option) (*Workflow, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "workflow not found: %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, opts...)
}

// Write encodes the document to out, including every field that was read.
func (w *Workflow) Write(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w.doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Save writes the document to path through a temporary file in the same
// directory, so readers never observe a partial file.
func (w *Workflow) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".groupbypass-*.json")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if info, err := os.Stat(path); err == nil {
		_ = tmp.Chmod(info.Mode().Perm())
	}
	if err := w.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// Root returns the root graph.
func (w *Workflow) Root() *Graph { return w.root }

// Graphs returns the root graph and every nested view, depth first. A
// definition used by several containers is listed once.
func (w *Workflow) Graphs() []*Graph {
	var out []*Graph
	seen := make(map[*Graph]bool)
	var walk func(g *Graph)
	walk = func(g *Graph) {
		if seen[g] {
			return
		}
		seen[g] = true
		out = append(out, g)
		for _, n := range g.nodes {
			if n.sub != nil {
				walk(n.sub)
			}
		}
	}
	walk(w.root)
	return out
}

// PanelProperties returns the persisted panel configuration.
func (w *Workflow) PanelProperties() *Properties { return w.props }

// HasPanel reports whether the document contains a panel node.
func (w *Workflow) HasPanel() bool { return !w.props.Detached() }

// Repaired reports whether the document had to be repaired on read.
func (w *Workflow) Repaired() bool { return w.repaired }

// MarkDirty records that the document changed.
func (w *Workflow) MarkDirty() { w.dirty++ }

// Modified reports whether anything changed since the last [Workflow.ClearModified].
func (w *Workflow) Modified() bool { return w.dirty > 0 }

// ClearModified resets the change counter, typically after a save.
func (w *Workflow) ClearModified() { w.dirty = 0 }

// Hooks returns the host hooks of the workflow.
func (w *Workflow) Hooks() observability.HostHooks { return w.hooks }
