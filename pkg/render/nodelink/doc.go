// Package nodelink renders a scene forest as a Graphviz node-link diagram.
//
// # Overview
//
// Where the interactive view shows a handful of pinned roots at a time, the
// node-link diagram shows the whole forest at once: one cluster per root with
// its components and fields, and every resolved connection as an edge
// between clusters. It is useful for documentation and for scenes too large
// to explore root by root.
//
// # Usage
//
//	dot := nodelink.ToDOT(forest, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Options
//
//   - Detailed: adds node handles to labels
//   - IncludeUnconnected: keeps roots without any connection
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
