package panel

import (
	"slices"

	"github.com/google/uuid"

	apperr "github.com/hybs/groupbypass/pkg/errors"
)

// ErrEditorClosed is returned by operations on an editor that was saved,
// cancelled, or replaced by a newer editor on the same panel.
var ErrEditorClosed = apperr.New(apperr.ErrCodeInvalidInput, "order editor is closed")

// Editor is a reorder session over a panel's entries. Its item list starts
// from [SeedOrder] and is only written back by [Editor.Save] or
// [Editor.Auto].
type Editor struct {
	id     uuid.UUID
	panel  *Panel
	auto   []Entry
	items  []Entry
	closed bool
}

// OpenEditor starts a reorder session. An editor already open on this panel
// is closed first.
func (p *Panel) OpenEditor() (*Editor, error) {
	if p.editor != nil {
		p.editor.closed = true
		p.editor = nil
	}
	entries, err := Collect(p.root, p.rootLabel)
	if err != nil {
		return nil, err
	}
	e := &Editor{
		id:    uuid.New(),
		panel: p,
		auto:  Reconcile(entries, OrderAuto, ""),
		items: SeedOrder(entries, p.OrderTitles()),
	}
	p.editor = e
	return e, nil
}

// ActiveEditor returns the open editor, or nil.
func (p *Panel) ActiveEditor() *Editor { return p.editor }

// ID identifies the session.
func (e *Editor) ID() string { return e.id.String() }

// Closed reports whether the session has ended.
func (e *Editor) Closed() bool { return e.closed }

// Items returns a copy of the current item order.
func (e *Editor) Items() []Entry { return slices.Clone(e.items) }

// Labels returns the labels of the current item order.
func (e *Editor) Labels() []string { return Labels(e.items) }

// Len returns the number of items.
func (e *Editor) Len() int { return len(e.items) }

// Move moves the item at from to position to, shifting the items between.
func (e *Editor) Move(from, to int) error {
	if e.closed {
		return ErrEditorClosed
	}
	n := len(e.items)
	if from < 0 || from >= n {
		return errIndex(from, n)
	}
	if to < 0 || to >= n {
		return errIndex(to, n)
	}
	if from == to {
		return nil
	}
	item := e.items[from]
	e.items = slices.Delete(e.items, from, from+1)
	e.items = slices.Insert(e.items, to, item)
	return nil
}

// MoveUp swaps item i with its predecessor. The first item stays put.
func (e *Editor) MoveUp(i int) error {
	if i == 0 && len(e.items) > 0 && !e.closed {
		return nil
	}
	return e.Move(i, i-1)
}

// MoveDown swaps item i with its successor. The last item stays put.
func (e *Editor) MoveDown(i int) error {
	if i == len(e.items)-1 && !e.closed {
		return nil
	}
	return e.Move(i, i+1)
}

// Reset restores auto order without closing the session.
func (e *Editor) Reset() error {
	if e.closed {
		return ErrEditorClosed
	}
	e.items = slices.Clone(e.auto)
	return nil
}

// Save persists the current order in custom mode, rebuilds the panel and
// closes the session.
func (e *Editor) Save() error {
	if e.closed {
		return ErrEditorClosed
	}
	p := e.panel
	p.props.SetProperty(PropOrderMode, string(OrderCustom))
	p.props.SetProperty(PropOrderTitles, FormatOrder(e.Labels()))
	e.close()
	p.structural = true
	return p.rebuildAllowNotReady()
}

// Auto switches the panel back to auto mode, clears the order string,
// rebuilds the panel and closes the session.
func (e *Editor) Auto() error {
	if e.closed {
		return ErrEditorClosed
	}
	p := e.panel
	p.props.SetProperty(PropOrderMode, string(OrderAuto))
	p.props.SetProperty(PropOrderTitles, "")
	e.close()
	p.structural = true
	return p.rebuildAllowNotReady()
}

// Cancel closes the session without persisting anything.
func (e *Editor) Cancel() {
	e.close()
}

func (e *Editor) close() {
	e.closed = true
	if e.panel.editor == e {
		e.panel.editor = nil
	}
}
