// Package sink renders serialized frames to SVG.
//
// [RenderSVG] draws one [graph.Frame]: a background grid, a box per rendered
// node filled by depth, and every routed connection as a cubic bezier with a
// shadow stroke and a two-stroke arrowhead. Connection colours follow the
// route direction relative to the focused root; routes redirected through a
// collapsed ancestor are dashed.
//
//	svg := sink.RenderSVG(graph.FromFrame(v.Frame(), 16),
//	    sink.WithTheme(sink.LightTheme),
//	    sink.WithInteraction(),
//	)
//
// For PDF or PNG output pass the SVG to render.ToPDF or render.ToPNG.
package sink
