package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	apperr "github.com/hybs/groupbypass/pkg/errors"
	"github.com/hybs/groupbypass/pkg/render/nodelink"
)

const (
	formatDOT = "dot" // Graphviz source
	formatSVG = "svg" // laid out by the embedded Graphviz
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (or base path for multiple formats), "-" for stdout
	formats  []string // output formats: "dot", "svg"
	detailed bool     // show node ids, types and modes in labels
}

// renderCommand creates the render command for exporting a workflow graph.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <workflow>",
		Short: "Export a workflow as a Graphviz diagram",
		Long: `Export a workflow as a node-link diagram. Every graph becomes a cluster,
every group a nested cluster, and bypassed nodes are drawn dashed.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeWorkflow,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			for _, f := range opts.formats {
				if err := apperr.ValidateFormat(f); err != nil {
					return err
				}
			}
			if opts.output == "-" && len(opts.formats) > 1 {
				return apperr.New(apperr.ErrCodeInvalidInput, "stdout output takes a single format")
			}

			s, err := c.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.runRender(s, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file (single format), base path (multiple), or "-" for stdout`)
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node ids, types and modes")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension, it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if apperr.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath returns where one format is written.
func outputPath(output, input, format string, single bool) string {
	if single && output != "" {
		return output
	}
	return basePath(output, input) + "." + format
}

func (c *CLI) runRender(s *session, opts *renderOpts) error {
	dot := nodelink.ToDOT(s.wf, nodelink.Options{Detailed: opts.detailed, RootLabel: c.cfg.RootLabel})
	single := len(opts.formats) == 1

	for _, format := range opts.formats {
		data, err := renderFormat(dot, format)
		if err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		c.Logger.Debugf("Generated %s: %d bytes", format, len(data))

		if opts.output == "-" {
			_, err := os.Stdout.Write(data)
			return err
		}
		path := outputPath(opts.output, s.path, format, single)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

func renderFormat(dot, format string) ([]byte, error) {
	switch format {
	case formatDOT:
		return []byte(dot), nil
	case formatSVG:
		return nodelink.RenderSVG(dot)
	}
	return nil, apperr.New(apperr.ErrCodeUnsupported, "format %q", format)
}
