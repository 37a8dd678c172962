package pipeline

import (
	"context"

	"github.com/matzehuels/scenemap/pkg/errors"
	"github.com/matzehuels/scenemap/pkg/graph"
	"github.com/matzehuels/scenemap/pkg/render"
	"github.com/matzehuels/scenemap/pkg/render/nodelink"
	"github.com/matzehuels/scenemap/pkg/render/sink"
	"github.com/matzehuels/scenemap/pkg/view"
)

// renderer draws one view. The frame and the SVG are computed at most once
// and shared between formats.
type renderer struct {
	view *view.View
	name string
	opts Options

	frame *graph.Frame
	svg   []byte
}

func (r *renderer) render(ctx context.Context, format string) ([]byte, error) {
	switch format {
	case graph.FormatSVG:
		return r.SVG(), nil
	case graph.FormatJSON:
		return graph.MarshalFrame(r.Frame())
	case graph.FormatDOT:
		return []byte(r.DOT()), nil
	case graph.FormatPNG:
		return render.ToPNG(ctx, r.SVG(), r.opts.Scale)
	case graph.FormatPDF:
		return render.ToPDF(ctx, r.SVG())
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
	}
}

// Frame returns the serialized frame of the view.
func (r *renderer) Frame() graph.Frame {
	if r.frame == nil {
		f := graph.FromFrame(r.view.Frame(), r.opts.Margin)
		r.frame = &f
	}
	return *r.frame
}

// SVG returns the frame drawn with the configured theme.
func (r *renderer) SVG() []byte {
	if r.svg == nil {
		r.svg = sink.RenderSVG(r.Frame(), r.opts.SVGOptions(r.name)...)
	}
	return r.svg
}

// DOT returns the whole forest as a clustered node-link graph.
func (r *renderer) DOT() string {
	return nodelink.ToDOT(r.view.Forest(), nodelink.Options{
		Detailed:           r.opts.Detailed,
		IncludeUnconnected: r.view.Toggles().Roots,
	})
}
