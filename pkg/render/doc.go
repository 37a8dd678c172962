// Package render turns scene views into visual outputs.
//
// # Overview
//
//   - [sink]: SVG drawing of a serialized view frame (boxes and bezier
//     connections), the same picture the interactive view shows
//   - [nodelink]: Graphviz diagram of the whole forest
//   - Format conversion (SVG to PDF/PNG) in this package
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). Both renderers use them.
//
//	svg := sink.RenderSVG(frame)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// When the tool is missing the functions return an UNSUPPORTED coded error.
//
// [sink]: github.com/matzehuels/scenemap/pkg/render/sink
// [nodelink]: github.com/matzehuels/scenemap/pkg/render/nodelink
package render
