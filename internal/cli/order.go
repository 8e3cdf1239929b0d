package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	apperr "github.com/hybs/groupbypass/pkg/errors"
	"github.com/hybs/groupbypass/pkg/panel"
)

// orderCommand creates the order command for the panel's persisted order.
func (c *CLI) orderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Show or change the group order of the panel",
	}

	cmd.AddCommand(c.orderShowCommand())
	cmd.AddCommand(c.orderSetCommand())
	cmd.AddCommand(c.orderAutoCommand())

	return cmd
}

// orderShowCommand creates the "order show" subcommand.
func (c *CLI) orderShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "show <workflow>",
		Short:             "Print the order mode, the order string and the resulting order",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeWorkflow,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printKeyValue("Mode", s.panel.OrderMode().String())
			printKeyValue("Titles", s.panel.OrderTitles())
			for i, t := range s.panel.Toggles() {
				printDetail("%2d. %s", i+1, t.Entry.Label)
			}
			return nil
		},
	}
}

// orderSetCommand creates the "order set" subcommand.
func (c *CLI) orderSetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "set <workflow> <labels>...",
		Short: "Switch to custom order with the given labels first",
		Long: `Switch the panel to custom order. Labels are given either as one
comma-separated string ("[Main] B, [Main] C") or as separate arguments.
Groups that are not listed keep their automatic order after the listed ones.`,
		Args:              cobra.MinimumNArgs(2),
		ValidArgsFunction: c.completeGroups,
		RunE: func(cmd *cobra.Command, args []string) error {
			labels, err := orderLabels(args[1:])
			if err != nil {
				return err
			}
			s, err := c.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			warnUnknownLabels(s.panel, labels)

			if err := s.panel.SetOrderTitles(panel.FormatOrder(labels)); err != nil {
				return err
			}
			if err := s.panel.SetOrderMode(panel.OrderCustom); err != nil {
				return err
			}
			return c.finishOrder(s, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output workflow file (default: overwrite input)")

	return cmd
}

// orderAutoCommand creates the "order auto" subcommand.
func (c *CLI) orderAutoCommand() *cobra.Command {
	var output string
	var keep bool

	cmd := &cobra.Command{
		Use:               "auto <workflow>",
		Short:             "Switch back to automatic order",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeWorkflow,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := s.panel.SetOrderMode(panel.OrderAuto); err != nil {
				return err
			}
			if !keep {
				if err := s.panel.SetOrderTitles(""); err != nil {
					return err
				}
			}
			return c.finishOrder(s, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output workflow file (default: overwrite input)")
	cmd.Flags().BoolVar(&keep, "keep-titles", false, "keep the order string for a later switch to custom")

	return cmd
}

func (c *CLI) finishOrder(s *session, output string) error {
	if !s.wf.HasPanel() {
		return apperr.New(apperr.ErrCodePanelNotFound, "%s has no panel node to store the order in", s.path)
	}
	out, err := s.save(output)
	if err != nil {
		return err
	}
	printSuccess("Order mode is %s", s.panel.OrderMode())
	printFile(out)
	printGroups(os.Stdout, s.panel.Toggles())
	return nil
}

// orderLabels reads labels from a single comma-separated argument or from
// one argument per label.
func orderLabels(args []string) ([]string, error) {
	if len(args) == 1 {
		labels := panel.ParseOrder(args[0])
		if len(labels) == 0 {
			return nil, apperr.New(apperr.ErrCodeInvalidInput, "no labels in %q", args[0])
		}
		return labels, nil
	}

	seen := make(map[string]bool, len(args))
	labels := make([]string, 0, len(args))
	for _, a := range args {
		a = strings.TrimSpace(a)
		if err := apperr.ValidateLabel(a); err != nil {
			return nil, err
		}
		if !seen[a] {
			seen[a] = true
			labels = append(labels, a)
		}
	}
	return labels, nil
}

func warnUnknownLabels(p *panel.Panel, labels []string) {
	known := make(map[string]bool, p.Len())
	for _, t := range p.Toggles() {
		known[t.Entry.Label] = true
	}
	var unknown []string
	for _, l := range labels {
		if !known[l] {
			unknown = append(unknown, fmt.Sprintf("%q", l))
		}
	}
	if len(unknown) > 0 {
		printWarning("No group matches %s", strings.Join(unknown, ", "))
	}
}
