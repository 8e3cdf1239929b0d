package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hybs/groupbypass/pkg/panel"
)

// groupJSON is the machine-readable form of one toggle, shared with the
// HTTP API.
type groupJSON struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Display  string `json:"display"`
	Graph    string `json:"graph"`
	Bypassed bool   `json:"bypassed"`
	Cascade  bool   `json:"cascade"`
}

func toGroupJSON(p *panel.Panel) []groupJSON {
	toggles := p.Toggles()
	out := make([]groupJSON, len(toggles))
	for i, t := range toggles {
		out[i] = groupJSON{
			Index:    i,
			Label:    t.Entry.Label,
			Display:  t.DisplayLabel(),
			Graph:    panel.GraphLabel(t.Entry.Graph, p.RootLabel()),
			Bypassed: t.On,
			Cascade:  t.Cascade,
		}
	}
	return out
}

// groupsCommand creates the groups command for listing panel entries.
func (c *CLI) groupsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:               "groups <workflow>",
		Short:             "List the groups of a workflow in panel order",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeWorkflow,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(os.Stdout, toGroupJSON(s.panel))
			}

			printKeyValue("Workflow", s.path)
			printKeyValue("Order", s.panel.OrderMode().String())
			printGroups(os.Stdout, s.panel.Toggles())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print groups as JSON")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
