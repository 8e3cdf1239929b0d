package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixture is the shared cascade workflow: G1 holds the parent marker, G2 and
// G3 hold chained child markers, G2 also holds a container whose subgraph
// has the group Face. The panel stores custom order "[Main] G3".
const fixture = "../../pkg/workflow/testdata/cascade.json"

// copyFixture copies the cascade workflow into a temp dir and returns its path.
func copyFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(fixture)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "cascade.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// newTestCLI returns a quiet CLI that never reads the user's config.
func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return New(io.Discard, LogInfo)
}

// writeWorkflow writes content as a workflow file and returns its path.
func writeWorkflow(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func openFixture(t *testing.T) *session {
	t.Helper()
	s, err := newTestCLI(t).openSession(context.Background(), copyFixture(t))
	require.NoError(t, err)
	return s
}

func labelsOf(s *session) []string {
	toggles := s.panel.Toggles()
	out := make([]string, len(toggles))
	for i, tg := range toggles {
		out[i] = tg.DisplayLabel()
	}
	return out
}

func statesOf(s *session) []bool {
	toggles := s.panel.Toggles()
	out := make([]bool, len(toggles))
	for i, tg := range toggles {
		out[i] = tg.On
	}
	return out
}
