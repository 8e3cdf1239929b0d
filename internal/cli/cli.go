package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hybs/groupbypass/internal/config"
	"github.com/hybs/groupbypass/pkg/buildinfo"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "groupbypass"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	logOut io.Writer

	configPath string
	rootLabel  string
	repair     bool
	cfg        config.Config
}

// New creates a new CLI instance with a default logger and the built-in
// configuration. The configuration file is read when a command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		logOut: w,
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// redirectLog sends log output to w until the returned func is called.
func (c *CLI) redirectLog(w io.Writer) (restore func()) {
	c.Logger.SetOutput(w)
	return func() { c.Logger.SetOutput(c.logOut) }
}

// Config returns the effective configuration.
func (c *CLI) Config() config.Config {
	return c.cfg
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Groupbypass lists and bypasses ComfyUI node groups",
		Long: `Groupbypass works on saved ComfyUI workflow files. It lists node groups,
toggles their bypass state with cascades driven by parent and child marker
nodes, and keeps the group order of the panel node.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/groupbypass/config.toml)")
	flags.StringVar(&c.rootLabel, "root-label", "", "label of the root graph in group labels")
	flags.BoolVar(&c.repair, "repair", false, "repair workflow files that are not valid JSON")

	// Register all subcommands
	root.AddCommand(c.groupsCommand())
	root.AddCommand(c.toggleCommand())
	root.AddCommand(c.orderCommand())
	root.AddCommand(c.panelCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration file and applies flag overrides.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	path := c.configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			c.Logger.Debug("no config path", "err", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("root-label") {
		cfg.RootLabel = c.rootLabel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "path", path, "root_label", cfg.RootLabel)
	return nil
}
