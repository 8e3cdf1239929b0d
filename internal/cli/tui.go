package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hybs/groupbypass/pkg/panel"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	statusErrStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// panelCommand creates the interactive panel command.
func (c *CLI) panelCommand() *cobra.Command {
	var noWatch bool
	var logFile string

	cmd := &cobra.Command{
		Use:   "panel <workflow>",
		Short: "Open the interactive group panel",
		Long: `Open an interactive panel over a workflow file. Groups can be bypassed
and enabled, the order edited, and the file saved. The panel follows
changes made to the file by other programs.

While the panel is open, log output goes to --log-file, or nowhere.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeWorkflow,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openSession(ctx, args[0])
			if err != nil {
				return err
			}

			m := newPanelModel(s, c.cfg.SyncInterval.Duration, func() (*session, error) {
				return c.reopenSession(ctx, s.path)
			})
			if !noWatch {
				w, err := newFileWatcher(s.path, watchDebounce)
				if err != nil {
					c.Logger.Warn("not watching workflow", "err", err)
				} else {
					defer w.Close()
					m.watch = w
				}
			}

			restore, err := c.panelLog(logFile)
			if err != nil {
				return err
			}
			final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			restore()
			if err != nil {
				return err
			}
			if fm, ok := final.(panelModel); ok && fm.s.wf.Modified() {
				printWarning("Unsaved changes to %s were discarded", fm.s.path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not follow changes to the workflow file")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append log output to this file while the panel is open")

	return cmd
}

// panelLog moves log output off the terminal for the lifetime of the
// program: into path when set, otherwise away entirely.
func (c *CLI) panelLog(path string) (restore func(), err error) {
	if path == "" {
		return c.redirectLog(io.Discard), nil
	}
	f, err := tea.LogToFile(path, appName)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	undo := c.redirectLog(f)
	return func() {
		undo()
		f.Close()
	}, nil
}

// =============================================================================
// Messages
// =============================================================================

type tickMsg time.Time

type fileChangedMsg struct{}

type watchErrMsg struct{ err error }

type reloadedMsg struct {
	s   *session
	err error
}

// =============================================================================
// panelModel - Interactive group panel
// =============================================================================

type panelView int

const (
	viewList panelView = iota
	viewEditor
	viewTitles
)

// panelModel is the bubbletea model of the group panel.
type panelModel struct {
	s        *session
	reload   func() (*session, error)
	watch    *fileWatcher
	keys     keyMap
	interval time.Duration

	view     panelView
	cursor   int
	editor   *panel.Editor
	edCursor int
	input    textinput.Model

	stamp       fileStamp
	staleOnDisk bool
	confirmQuit bool
	status      string
	statusErr   bool
}

func newPanelModel(s *session, interval time.Duration, reload func() (*session, error)) panelModel {
	ti := textinput.New()
	ti.Placeholder = "[Main] Group, [Main] Other"
	ti.Prompt = "order: "
	ti.Width = 60

	if interval <= 0 {
		interval = panel.DefaultInterval
	}
	return panelModel{
		s:        s,
		reload:   reload,
		keys:     defaultKeyMap(),
		interval: interval,
		input:    ti,
		stamp:    stampOf(s.path),
	}
}

func (m panelModel) Init() tea.Cmd {
	return tea.Batch(tick(m.interval), m.waitForChange())
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitForChange blocks until the watcher reports a change or a failure.
func (m panelModel) waitForChange() tea.Cmd {
	if m.watch == nil {
		return nil
	}
	w := m.watch
	return func() tea.Msg {
		select {
		case _, ok := <-w.Changes():
			if !ok {
				return nil
			}
			return fileChangedMsg{}
		case err := <-w.Errors():
			return watchErrMsg{err: err}
		}
	}
}

func (m panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if _, err := m.s.panel.Tick(time.Time(msg)); err != nil && m.view == viewList {
			m.setError(err)
		}
		m.clampCursor()
		return m, tick(m.interval)

	case fileChangedMsg:
		return m.fileChanged()

	case watchErrMsg:
		m.setError(msg.err)
		return m, m.waitForChange()

	case reloadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.s = msg.s
		m.stamp = stampOf(m.s.path)
		m.staleOnDisk = false
		m.view = viewList
		m.editor = nil
		m.clampCursor()
		m.setStatus("Reloaded %s", m.s.path)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case viewEditor:
			return m.updateEditor(msg)
		case viewTitles:
			return m.updateTitles(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m panelModel) fileChanged() (tea.Model, tea.Cmd) {
	next := m.waitForChange()
	stamp := stampOf(m.s.path)
	if stamp == m.stamp {
		// Our own save.
		return m, next
	}
	m.stamp = stamp
	if m.s.wf.Modified() {
		m.staleOnDisk = true
		m.setStatus("%s changed on disk; R reloads and drops unsaved changes", m.s.path)
		return m, next
	}
	return m, tea.Batch(next, m.reloadCmd())
}

func (m panelModel) reloadCmd() tea.Cmd {
	reload := m.reload
	return func() tea.Msg {
		s, err := reload()
		return reloadedMsg{s: s, err: err}
	}
}

func (m panelModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.s.panel
	if !key.Matches(msg, m.keys.Quit) {
		m.confirmQuit = false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.s.wf.Modified() && !m.confirmQuit && msg.String() != "ctrl+c" {
			m.confirmQuit = true
			m.setStatus("Unsaved changes; press q again to quit without saving")
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < p.Len()-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Toggle):
		if p.Len() == 0 {
			return m, nil
		}
		t := p.Toggles()[m.cursor]
		if err := p.Toggle(m.cursor, !t.On); err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("%s %s", t.DisplayLabel(), stateText(!t.On))

	case key.Matches(msg, m.keys.Refresh):
		if err := p.RequestRefresh(); err != nil {
			m.setError(err)
			return m, nil
		}
		m.clampCursor()
		m.setStatus("Refreshed %d groups", p.Len())

	case key.Matches(msg, m.keys.Mode):
		next := panel.OrderCustom
		if p.OrderMode() == panel.OrderCustom {
			next = panel.OrderAuto
		}
		if err := p.SetOrderMode(next); err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("Order mode %s", next)

	case key.Matches(msg, m.keys.Edit):
		e, err := p.OpenEditor()
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.editor = e
		m.edCursor = 0
		m.view = viewEditor
		m.setStatus("Editing order, session %s", shortID(e.ID()))

	case key.Matches(msg, m.keys.Titles):
		m.input.SetValue(p.OrderTitles())
		m.input.CursorEnd()
		m.view = viewTitles
		m.status = ""
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Save):
		out, err := m.s.save("")
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.stamp = stampOf(out)
		m.staleOnDisk = false
		m.setStatus("Saved %s", out)

	case key.Matches(msg, m.keys.Reload):
		return m, m.reloadCmd()
	}
	return m, nil
}

func (m panelModel) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.editor
	var err error

	switch {
	case key.Matches(msg, m.keys.Cancel):
		e.Cancel()
		m.leaveEditor("Order unchanged")
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		if err = e.Save(); err == nil {
			m.leaveEditor("Order saved to the panel (custom)")
			return m, nil
		}

	case key.Matches(msg, m.keys.Auto):
		if err = e.Auto(); err == nil {
			m.leaveEditor("Order reset to auto")
			return m, nil
		}

	case key.Matches(msg, m.keys.Reset):
		err = e.Reset()

	case key.Matches(msg, m.keys.MoveUp):
		if err = e.MoveUp(m.edCursor); err == nil && m.edCursor > 0 {
			m.edCursor--
		}

	case key.Matches(msg, m.keys.MoveDown):
		if err = e.MoveDown(m.edCursor); err == nil && m.edCursor < e.Len()-1 {
			m.edCursor++
		}

	case key.Matches(msg, m.keys.Up):
		if m.edCursor > 0 {
			m.edCursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.edCursor < e.Len()-1 {
			m.edCursor++
		}
	}

	if err != nil {
		m.setError(err)
	}
	return m, nil
}

func (m *panelModel) leaveEditor(status string) {
	m.editor = nil
	m.view = viewList
	m.clampCursor()
	m.setStatus("%s", status)
}

func (m panelModel) updateTitles(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.view = viewList
		return m, nil
	case tea.KeyEnter:
		m.input.Blur()
		m.view = viewList
		if err := m.s.panel.SetOrderTitles(strings.TrimSpace(m.input.Value())); err != nil {
			m.setError(err)
			return m, nil
		}
		m.clampCursor()
		m.setStatus("Order titles updated")
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *panelModel) clampCursor() {
	n := m.s.panel.Len()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *panelModel) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *panelModel) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

// =============================================================================
// View
// =============================================================================

func (m panelModel) View() string {
	var b strings.Builder
	p := m.s.panel

	title := "Groups"
	if m.s.wf.Modified() {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(m.s.path))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("order %s", p.OrderMode())))
	if t := p.OrderTitles(); t != "" {
		b.WriteString(listDimStyle.Render(": " + t))
	}
	b.WriteString("\n\n")

	switch m.view {
	case viewEditor:
		m.viewEditor(&b)
	case viewTitles:
		m.viewList(&b)
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("enter apply  esc cancel"))
	default:
		m.viewList(&b)
		b.WriteString("\n")
		b.WriteString(helpLine(m.keys.listHelp()))
	}

	if m.status != "" {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString(statusErrStyle.Render(iconError + " " + m.status))
		} else {
			b.WriteString(listDimStyle.Render(iconInfo + " " + m.status))
		}
	}
	b.WriteString("\n")
	return b.String()
}

func (m panelModel) viewList(b *strings.Builder) {
	toggles := m.s.panel.Toggles()
	if len(toggles) == 0 {
		b.WriteString(listDimStyle.Render("  No groups"))
		b.WriteString("\n")
		return
	}
	for i, t := range toggles {
		cursor := "  "
		style := listNormalStyle
		if i == m.cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		label := t.DisplayLabel()
		if t.On {
			label = StyleBypassed.Render(label)
		} else {
			label = style.Render(label)
		}
		b.WriteString(cursor + stateIcon(t.On) + " " + label + "\n")
	}
}

func (m panelModel) viewEditor(b *strings.Builder) {
	b.WriteString(StyleHighlight.Render("Edit order"))
	b.WriteString(" " + listDimStyle.Render(shortID(m.editor.ID())))
	b.WriteString("\n")
	for i, label := range m.editor.Labels() {
		line := fmt.Sprintf("%2d. %s", i+1, label)
		if i == m.edCursor {
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpLine(m.keys.editorHelp()))
}

// helpLine renders bindings as "key action" pairs.
func helpLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return listDimStyle.Render(strings.Join(parts, "  "))
}

// shortID abbreviates an editor session id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
