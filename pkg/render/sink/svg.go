package sink

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/scenemap/pkg/graph"
	"github.com/matzehuels/scenemap/pkg/view"
)

const routeInteractionCSS = `
    .node { transition: stroke-width 0.2s ease; }
    .node.highlight { stroke-width: 3; }
    .route { transition: opacity 0.2s ease; }
    .route.dim { opacity: 0.15; }`

const routeInteractionJS = `
    function highlight(idx) {
      document.querySelectorAll('.route').forEach(r => {
        const hit = r.dataset.from === idx || r.dataset.to === idx;
        r.classList.toggle('dim', !hit);
      });
      document.querySelectorAll('.node').forEach(n => n.classList.toggle('highlight', n.dataset.index === idx));
    }
    function clearHighlight() {
      document.querySelectorAll('.route').forEach(r => r.classList.remove('dim'));
      document.querySelectorAll('.node').forEach(n => n.classList.remove('highlight'));
    }
    document.querySelectorAll('.node').forEach(el => {
      el.addEventListener('mouseenter', () => highlight(el.dataset.index));
      el.addEventListener('mouseleave', clearHighlight);
    });`

const (
	fontSizeRoot  = 12.0
	fontSizeChild = 11.0
	textPadding   = 8.0
	loopReach     = 30.0
	loopSpread    = 6.0
)

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	theme       Theme
	grid        bool
	interactive bool
	title       string
}

func WithTheme(t Theme) SVGOption      { return func(r *svgRenderer) { r.theme = t } }
func WithoutGrid() SVGOption           { return func(r *svgRenderer) { r.grid = false } }
func WithInteraction() SVGOption       { return func(r *svgRenderer) { r.interactive = true } }
func WithTitle(title string) SVGOption { return func(r *svgRenderer) { r.title = title } }

// RenderSVG draws a frame: background grid, node boxes, then every routed
// connection on top with a shadow stroke and an arrowhead.
func RenderSVG(f graph.Frame, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		f.Width, f.Height, f.Width, f.Height)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escapeXML(r.title))
	}

	fmt.Fprintf(&buf, `  <rect class="background" width="100%%" height="100%%" fill="%s"/>`+"\n", r.theme.Background)
	if r.grid {
		renderGrid(&buf, r.theme, f.Width, f.Height)
	}
	for _, n := range f.Nodes {
		renderNode(&buf, r.theme, n)
	}
	for _, rt := range f.Routes {
		renderRoute(&buf, r.theme, rt)
	}
	if r.interactive {
		renderInteraction(&buf)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{theme: DarkTheme, grid: true}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func renderGrid(buf *bytes.Buffer, t Theme, w, h float64) {
	if t.GridStep <= 0 {
		return
	}
	fmt.Fprintf(buf, `  <g class="grid" stroke="%s" stroke-width="1">`+"\n", t.Grid)
	for x := t.GridStep; x < w; x += t.GridStep {
		fmt.Fprintf(buf, `    <line x1="%.1f" y1="0" x2="%.1f" y2="%.1f"/>`+"\n", x, x, h)
	}
	for y := t.GridStep; y < h; y += t.GridStep {
		fmt.Fprintf(buf, `    <line x1="0" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", y, w, y)
	}
	buf.WriteString("  </g>\n")
}

func renderNode(buf *bytes.Buffer, t Theme, n graph.FrameNode) {
	border := t.Border
	if n.Focused {
		border = t.FocusBorder
	}
	rc := n.Rect
	fmt.Fprintf(buf, `  <rect id="node-%d" class="node depth-%d" data-index="%d" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="3" fill="%s" stroke="%s" stroke-width="1"/>`+"\n",
		n.Index, n.Depth, n.Index, rc.X, rc.Y, rc.W, rc.H, t.boxFill(n.Depth), border)

	size := fontSizeChild
	if n.Depth == 0 {
		size = fontSizeRoot
	}
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-family="sans-serif" font-size="%.0f" fill="%s" dominant-baseline="middle">%s</text>`+"\n",
		rc.X+textPadding, rc.Y+rc.H/2, size, t.Text, escapeXML(label(n, size)))
}

// label prefixes a disclosure marker on non-leaves and truncates to the box.
func label(n graph.FrameNode, size float64) string {
	s := n.Title
	switch {
	case n.Leaf:
	case n.Expanded:
		s = "▾ " + s
	default:
		s = "▸ " + s
	}
	return truncate(s, n.Rect.W-2*textPadding, size)
}

func renderRoute(buf *bytes.Buffer, t Theme, rt graph.Route) {
	color := t.routeColor(rt)
	d := curvePath(rt.Curve)
	if rt.From == rt.To {
		d = loopPath(rt.Curve)
	}
	dash := ""
	if rt.Collapsed {
		dash = ` stroke-dasharray="6 3"`
	}

	fmt.Fprintf(buf, `  <g class="route %s" data-from="%d" data-to="%d" fill="none">`+"\n", rt.Direction, rt.From, rt.To)
	fmt.Fprintf(buf, `    <path d="%s" stroke="%s" stroke-width="4" stroke-opacity="0.5"/>`+"\n", d, t.Shadow)
	fmt.Fprintf(buf, `    <path d="%s" stroke="%s" stroke-width="2"%s/>`+"\n", d, color, dash)
	e, a := rt.Curve.End, rt.Curve.Arrow
	fmt.Fprintf(buf, `    <path d="M%.1f,%.1f L%.1f,%.1f M%.1f,%.1f L%.1f,%.1f" stroke="%s" stroke-width="2"/>`+"\n",
		e.X, e.Y, a[0].X, a[0].Y, e.X, e.Y, a[1].X, a[1].Y, color)
	buf.WriteString("  </g>\n")
}

func curvePath(c view.Bezier) string {
	return fmt.Sprintf("M%.1f,%.1f C%.1f,%.1f %.1f,%.1f %.1f,%.1f",
		c.Start.X, c.Start.Y, c.C1.X, c.C1.Y, c.C2.X, c.C2.Y, c.End.X, c.End.Y)
}

// loopPath draws a self connection as a small loop leaving and re-entering
// the side of the box the curve starts on.
func loopPath(c view.Bezier) string {
	s := c.Start
	side := 1.0
	if c.Arrow[0].X > c.End.X {
		side = -1
	}
	reach := s.X + loopReach*side
	return fmt.Sprintf("M%.1f,%.1f C%.1f,%.1f %.1f,%.1f %.1f,%.1f",
		s.X, s.Y-loopSpread, reach, s.Y-3*loopSpread, reach, s.Y+3*loopSpread, c.End.X, c.End.Y)
}

func renderInteraction(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", routeInteractionCSS)
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", routeInteractionJS)
}
