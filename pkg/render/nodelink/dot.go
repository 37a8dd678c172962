package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/scenemap/pkg/render"
	"github.com/matzehuels/scenemap/pkg/scene"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds each node's handle below its title.
	Detailed bool
	// IncludeUnconnected keeps roots with no connections in their subtree.
	// By default they are left out, as in the interactive view.
	IncludeUnconnected bool
}

// ToDOT converts a forest to Graphviz DOT format.
//
// Every root becomes a cluster holding the root and its descendants, linked
// by light structural edges. Connections are drawn as bold edges between
// clusters. Node IDs are forest indices, so the output is stable for a given
// forest.
func ToDOT(f *scene.Forest, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.2;\n")

	drawn := make(map[*scene.Node]bool)
	for _, r := range f.Roots() {
		if !opts.IncludeUnconnected && !r.HasOutputsRecursive() && !r.HasInputsRecursive() {
			continue
		}
		buf.WriteString("\n")
		writeCluster(&buf, r, opts, drawn)
	}

	buf.WriteString("\n")
	for _, e := range f.Edges() {
		if drawn[e.From] && drawn[e.To] {
			fmt.Fprintf(&buf, "  %s -> %s [penwidth=2];\n", nodeID(e.From), nodeID(e.To))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeCluster(buf *bytes.Buffer, r *scene.Node, opts Options, drawn map[*scene.Node]bool) {
	fmt.Fprintf(buf, "  subgraph \"cluster_%d\" {\n", r.Index)
	buf.WriteString("    style=\"rounded,dashed\";\n")
	buf.WriteString("    color=grey;\n")
	r.Walk(func(n *scene.Node) bool {
		fmt.Fprintf(buf, "    %s [%s];\n", nodeID(n), strings.Join(fmtAttrs(n, opts.Detailed), ", "))
		drawn[n] = true
		return true
	})
	r.Walk(func(n *scene.Node) bool {
		for _, c := range n.Children {
			fmt.Fprintf(buf, "    %s -> %s [color=grey, arrowhead=none, style=dashed];\n", nodeID(n), nodeID(c))
		}
		return true
	})
	buf.WriteString("  }\n")
}

func nodeID(n *scene.Node) string { return fmt.Sprintf("%q", "n"+strconv.Itoa(n.Index)) }

func fmtLabel(n *scene.Node, detailed bool) string {
	if !detailed {
		return n.Title
	}
	return n.Title + "\n" + string(n.Context)
}

func fmtAttrs(n *scene.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	switch n.Kind {
	case scene.KindRoot:
		attrs = append(attrs, "fillcolor=lightsteelblue", "fontsize=16")
	case scene.KindField:
		attrs = append(attrs, "shape=plaintext", "style=\"\"")
	}
	if n.Reference && len(n.Connections) == 0 {
		attrs = append(attrs, "fontcolor=grey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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

// normalizeViewBox replaces Graphviz's point-based svg tag with one whose
// width and height match the viewBox.
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

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion at the given scale.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
