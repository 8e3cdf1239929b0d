package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/goccy/go-graphviz"

	"github.com/hybs/groupbypass/pkg/bypass"
	"github.com/hybs/groupbypass/pkg/panel"
	"github.com/hybs/groupbypass/pkg/workflow"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the node id, type and mode to node labels.
	// When false, only the title is shown.
	Detailed bool
	// RootLabel names the root graph cluster. Defaults to "Main".
	RootLabel string
}

const bypassColor = "#b58cd9"

// ToDOT converts a workflow to Graphviz DOT format.
func ToDOT(wf *workflow.Workflow, opts Options) string {
	rootLabel := opts.RootLabel
	if rootLabel == "" {
		rootLabel = panel.DefaultRootLabel
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")

	graphs := wf.Graphs()
	for gi, g := range graphs {
		writeGraph(&buf, gi, g, panel.GraphLabel(g, rootLabel), opts.Detailed)
	}

	buf.WriteString("\n")
	for gi, g := range graphs {
		writeEdges(&buf, gi, g)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeKey(gi int, id bypass.NodeID) string {
	return fmt.Sprintf("g%d_n%d", gi, id)
}

func writeGraph(buf *bytes.Buffer, gi int, g *workflow.Graph, label string, detailed bool) {
	fmt.Fprintf(buf, "\n  subgraph cluster_g%d {\n", gi)
	fmt.Fprintf(buf, "    label=%s;\n", dotQuote("["+label+"]"))
	buf.WriteString("    style=\"rounded\";\n    color=\"#888888\";\n")

	placed := make(map[bypass.NodeID]bool)
	for ri, gr := range g.Groups() {
		fmt.Fprintf(buf, "    subgraph cluster_g%d_r%d {\n", gi, ri)
		fmt.Fprintf(buf, "      label=%s;\n", dotQuote(bypass.RegionTitle(gr)))
		buf.WriteString("      style=\"rounded,filled\";\n")
		if bypass.IsBypassed(gr) {
			fmt.Fprintf(buf, "      fillcolor=%q;\n", "#efe6f7")
		} else {
			fmt.Fprintf(buf, "      fillcolor=%q;\n", "#eef3f8")
		}
		for _, m := range bypass.MembersOf(gr) {
			if placed[m.ID()] {
				continue
			}
			placed[m.ID()] = true
			fmt.Fprintf(buf, "      %s;\n", nodeKey(gi, m.ID()))
		}
		buf.WriteString("    }\n")
	}

	for _, n := range g.WorkflowNodes() {
		fmt.Fprintf(buf, "    %s [%s];\n", nodeKey(gi, n.ID()), strings.Join(fmtAttrs(n, detailed), ", "))
	}
	buf.WriteString("  }\n")
}

func writeEdges(buf *bytes.Buffer, gi int, g *workflow.Graph) {
	for _, n := range g.WorkflowNodes() {
		for slot := range n.Outputs() {
			for _, t := range bypass.LinkedSuccessors(g, n, slot) {
				attrs := ""
				if slot == 0 && n.Role().IsMarker() {
					attrs = fmt.Sprintf(" [color=%q, penwidth=2]", bypassColor)
				}
				fmt.Fprintf(buf, "  %s -> %s%s;\n", nodeKey(gi, n.ID()), nodeKey(gi, t.ID()), attrs)
			}
		}
	}
}

func fmtLabel(n *workflow.Node, detailed bool) string {
	if !detailed {
		return n.Title()
	}
	return fmt.Sprintf("%s\n#%d %s\n%s", n.Title(), n.ID(), n.Type(), n.Mode())
}

func fmtAttrs(n *workflow.Node, detailed bool) []string {
	attrs := []string{"label=" + dotQuote(fmtLabel(n, detailed))}
	switch n.Role() {
	case bypass.RoleParentMarker:
		attrs = append(attrs, "shape=invhouse")
	case bypass.RoleChildMarker:
		attrs = append(attrs, "shape=house")
	case bypass.RolePanel:
		attrs = append(attrs, "shape=note")
	case bypass.RolePlain:
	}
	switch n.Mode() {
	case bypass.ModeBypassed:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", fmt.Sprintf("fillcolor=%q", bypassColor))
	case bypass.ModeMuted:
		attrs = append(attrs, "fillcolor=lightgrey", "fontcolor=\"#555555\"")
	}
	return attrs
}

// dotQuote quotes s as a DOT string. Quotes and backslashes are escaped,
// newlines become centred line breaks, and other control characters are
// dropped. Everything else is passed through as UTF-8.
func dotQuote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteByte(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
