package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hybs/groupbypass/pkg/panel"
	"github.com/hybs/groupbypass/pkg/workflow"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for groupbypass.

Bash:
  $ source <(groupbypass completion bash)

Zsh:
  $ groupbypass completion zsh > "${fpath[1]}/_groupbypass"

Fish:
  $ groupbypass completion fish | source

PowerShell:
  PS> groupbypass completion powershell | Out-String | Invoke-Expression

Workflow arguments complete to .json files and the group argument of
"toggle" completes to the labels found in the workflow.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeWorkflow completes the first argument to workflow files.
func completeWorkflow(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// completeGroups completes the workflow file, then the group labels in it.
// Completion runs without a config file, so labels use the default root
// label unless --root-label was given.
func (c *CLI) completeGroups(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return completeWorkflow(cmd, args, toComplete)
	case 1:
		wf, err := workflow.Load(args[0], workflow.WithRepair())
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		label := c.cfg.RootLabel
		if c.rootLabel != "" {
			label = c.rootLabel
		}
		return groupLabels(wf, label), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// groupLabels returns the entry labels of wf in panel order.
func groupLabels(wf *workflow.Workflow, rootLabel string) []string {
	entries, err := panel.Collect(wf.Root(), rootLabel)
	if err != nil {
		return nil
	}
	props := wf.PanelProperties()
	mode, _ := props.Property(panel.PropOrderMode)
	titles, _ := props.Property(panel.PropOrderTitles)
	return panel.Labels(panel.Reconcile(entries, panel.OrderMode(mode), titles))
}
