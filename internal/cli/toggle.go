package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hybs/groupbypass/pkg/bypass"
	apperr "github.com/hybs/groupbypass/pkg/errors"
	"github.com/hybs/groupbypass/pkg/panel"
)

// toggleOpts holds the command-line flags for the toggle command.
type toggleOpts struct {
	on     bool   // bypass the group
	off    bool   // enable the group
	dryRun bool   // print the affected groups without changing anything
	output string // write here instead of back to the input file
}

// toggleCommand creates the toggle command for bypassing or enabling a group.
func (c *CLI) toggleCommand() *cobra.Command {
	var opts toggleOpts

	cmd := &cobra.Command{
		Use:   "toggle <workflow> <group>",
		Short: "Bypass or enable one group",
		Long: `Bypass (--on) or enable (--off) one group of a workflow.

The group is named by its label as shown by "groups" (for example
"[Main] Upscale") or by its 1-based position. A group holding a parent
marker node cascades to every group holding a child marker reachable from it.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completeGroups,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.on == opts.off {
				return apperr.New(apperr.ErrCodeInvalidInput, "exactly one of --on or --off is required")
			}
			s, err := c.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			i, err := s.toggleIndex(args[1])
			if err != nil {
				return err
			}
			if opts.dryRun {
				printPlan(s, i, opts.on)
				return nil
			}
			return c.runToggle(s, i, &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.on, "on", false, "bypass the group")
	cmd.Flags().BoolVar(&opts.off, "off", false, "enable the group")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "show the groups that would change")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output workflow file (default: overwrite input)")
	cmd.MarkFlagsMutuallyExclusive("on", "off")

	return cmd
}

func (c *CLI) runToggle(s *session, i int, opts *toggleOpts) error {
	label := s.panel.Toggles()[i].DisplayLabel()
	if err := s.panel.Toggle(i, opts.on); err != nil {
		return err
	}
	out, err := s.save(opts.output)
	if err != nil {
		return err
	}

	printSuccess("%s is now %s", label, stateText(opts.on))
	printFile(out)
	printGroups(os.Stdout, s.panel.Toggles())
	return nil
}

// planFor returns the groups a toggle of entry would set.
func planFor(r *bypass.Resolver, e panel.Entry) []bypass.Region {
	parents := bypass.ParentMarkersIn(e.Graph, e.Region)
	if len(parents) == 0 {
		return []bypass.Region{e.Region}
	}
	var out []bypass.Region
	seen := make(map[bypass.Region]bool)
	for _, p := range parents {
		for _, rg := range r.Plan(e.Graph, p) {
			if !seen[rg] {
				seen[rg] = true
				out = append(out, rg)
			}
		}
	}
	return out
}

func printPlan(s *session, i int, on bool) {
	t := s.panel.Toggles()[i]
	regions := planFor(s.resolver, t.Entry)
	graph := panel.GraphLabel(t.Entry.Graph, s.panel.RootLabel())

	printInfo("Toggling %s would set %d group(s) to %s:", t.DisplayLabel(), len(regions), stateText(on))
	for _, rg := range regions {
		printDetail("%s %s", stateIcon(on), panel.FormatLabel(graph, bypass.RegionTitle(rg)))
	}
}
