package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hybs/groupbypass/pkg/bypass"
	apperr "github.com/hybs/groupbypass/pkg/errors"
	"github.com/hybs/groupbypass/pkg/observability"
	"github.com/hybs/groupbypass/pkg/panel"
	"github.com/hybs/groupbypass/pkg/workflow"
)

// session is one loaded workflow file with its panel.
type session struct {
	path     string
	wf       *workflow.Workflow
	panel    *panel.Panel
	resolver *bypass.Resolver
}

// openSession loads the workflow at path and waits until its groups can be
// listed, showing a spinner while it waits.
func (c *CLI) openSession(ctx context.Context, path string) (*session, error) {
	return c.loadSession(ctx, path, true)
}

// reopenSession is openSession without the spinner, for callers that own
// the terminal.
func (c *CLI) reopenSession(ctx context.Context, path string) (*session, error) {
	return c.loadSession(ctx, path, false)
}

func (c *CLI) loadSession(ctx context.Context, path string, spinner bool) (*session, error) {
	if err := apperr.ValidateWorkflowPath(path); err != nil {
		return nil, err
	}
	prog := newProgress(c.Logger)
	hooks := c.hooks()

	opts := []workflow.Option{workflow.WithHooks(hooks.Host)}
	if c.repair {
		opts = append(opts, workflow.WithRepair())
	}
	wf, err := workflow.Load(path, opts...)
	if err != nil {
		return nil, err
	}
	if wf.Repaired() {
		c.Logger.Warn("workflow was repaired while loading", "path", path)
	}
	if !wf.HasPanel() {
		c.Logger.Debug("no panel node, order changes are not persisted", "path", path)
	}

	panelHooks := hooks.Panel
	var spin *Spinner
	if spinner {
		spin = newSpinnerWithContext(ctx, "Waiting for "+path)
		panelHooks = waitHooks{PanelHooks: hooks.Panel, spin: spin, path: path}
	}
	resolver := bypass.NewResolver(wf, bypass.WithHooks(hooks.Cascade))
	p := panel.New(wf.Root(), wf, wf.PanelProperties(),
		panel.WithRootLabel(c.cfg.RootLabel),
		panel.WithInterval(c.cfg.SyncInterval.Duration),
		panel.WithHooks(panelHooks),
		panel.WithResolver(resolver),
	)

	if spin != nil {
		spin.Start()
	}
	err = p.WaitReady(ctx, c.cfg.RetryPolicy())
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// Loading touches nothing the user asked to change.
	wf.ClearModified()
	prog.done(fmt.Sprintf("Loaded %d groups", p.Len()))

	return &session{path: path, wf: wf, panel: p, resolver: resolver}, nil
}

// save writes the workflow to out, or back to its own file when out is empty.
func (s *session) save(out string) (string, error) {
	if out == "" {
		out = s.path
	} else if err := apperr.ValidateWorkflowPath(out); err != nil {
		return "", err
	}
	if err := s.wf.Save(out); err != nil {
		return "", err
	}
	s.wf.ClearModified()
	return out, nil
}

// toggleIndex resolves a group reference to a toggle index. A reference is
// either a display label, a plain label, or a 1-based position.
func (s *session) toggleIndex(ref string) (int, error) {
	if i, ok := s.panel.Find(ref); ok {
		return i, nil
	}
	for i, t := range s.panel.Toggles() {
		if t.DisplayLabel() == ref {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= s.panel.Len() {
		return n - 1, nil
	}
	return -1, apperr.New(apperr.ErrCodeGroupNotFound, "no group %q", ref)
}

// waitHooks reports readiness retries on the spinner as well as the log.
type waitHooks struct {
	observability.PanelHooks
	spin *Spinner
	path string
}

func (h waitHooks) OnNotReady(attempt int, err error) {
	h.spin.SetMessage(fmt.Sprintf("Waiting for %s (attempt %d)", h.path, attempt+1))
	h.PanelHooks.OnNotReady(attempt, err)
}
