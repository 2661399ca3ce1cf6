// Package vectorsource renders the vector subset of a Lottie document with
// the gg library. It needs no browser and is fully deterministic.
package vectorsource

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/lottie2apng/pkg/lottie"
	"github.com/user/lottie2apng/pkg/ports"
)

// ErrClosed is returned when seeking a closed source.
var ErrClosed = errors.New("vector source closed")

// Factory opens vector sources for one document.
type Factory struct {
	doc    *lottie.Document
	logger ports.Logger
}

// New creates a Factory for doc.
func New(doc *lottie.Document, logger ports.Logger) *Factory {
	return &Factory{doc: doc, logger: logger.WithComponent("vector")}
}

// Open implements ports.RasterSourceFactory.
func (f *Factory) Open(ctx context.Context, width, height, scale int) (ports.RasterSource, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", width, height)
	}
	if f.doc.Width <= 0 || f.doc.Height <= 0 {
		return nil, fmt.Errorf("invalid document size %dx%d", f.doc.Width, f.doc.Height)
	}
	for _, u := range f.doc.Unsupported {
		f.logger.Warn("Vector renderer skips unsupported feature: %s", u)
	}
	f.logger.Debug("Opened vector source at %dx%d (scale %d)", width, height, scale)
	return &Source{
		doc:    f.doc,
		width:  width,
		height: height,
		sx:     float64(width) / float64(f.doc.Width),
		sy:     float64(height) / float64(f.doc.Height),
	}, nil
}

// Source renders frames of a document at a fixed size.
type Source struct {
	doc           *lottie.Document
	width, height int
	sx, sy        float64
	closed        bool
}

// SeekAndRender implements ports.RasterSource. The returned buffer holds
// straight alpha.
func (s *Source) SeekAndRender(ctx context.Context, offset int) ([]byte, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dc := gg.NewContext(s.width, s.height)
	dc.Scale(s.sx, s.sy)
	frame := s.doc.InPoint + float64(offset)
	for i := len(s.doc.Layers) - 1; i >= 0; i-- {
		s.renderLayer(dc, &s.doc.Layers[i], frame)
	}

	out := image.NewNRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(out, out.Bounds(), dc.Image(), image.Point{}, draw.Src)
	return out.Pix, nil
}

// Close implements ports.RasterSource.
func (s *Source) Close() error {
	s.closed = true
	return nil
}

func (s *Source) renderLayer(dc *gg.Context, l *lottie.Layer, frame float64) {
	if !l.Drawable() || !l.Visible(frame) {
		return
	}
	if l.HasMask || l.MatteMode != 0 {
		return
	}

	dc.Push()
	defer dc.Pop()
	for _, p := range s.doc.ParentChain(l) {
		applyTransform(dc, p.Transform.At(p.LocalFrame(frame)))
	}
	local := l.LocalFrame(frame)
	tv := l.Transform.At(local)
	applyTransform(dc, tv)
	if tv.Opacity <= 0 {
		return
	}

	switch l.Type {
	case lottie.LayerSolid:
		dc.ClearPath()
		dc.DrawRectangle(0, 0, l.SolidWidth, l.SolidHeight)
		dc.SetColor(lottie.NRGBA(lottie.SolidColor(l.SolidColor), tv.Opacity))
		dc.Fill()
	case lottie.LayerShape:
		renderGroup(dc, l.Shapes, local, tv.Opacity)
	}
}

func applyTransform(dc *gg.Context, tv lottie.TransformValues) {
	dc.Translate(tv.Position[0], tv.Position[1])
	if tv.Rotation != 0 {
		dc.Rotate(gg.Radians(tv.Rotation))
	}
	dc.Scale(tv.Scale[0], tv.Scale[1])
	dc.Translate(-tv.Anchor[0], -tv.Anchor[1])
}

// groupTransform returns the group's tr item, if any.
func groupTransform(items []lottie.ShapeItem) (lottie.Transform, bool) {
	for _, it := range items {
		if it.Type == lottie.ShapeTransform {
			return it.Transform, true
		}
	}
	return lottie.Transform{}, false
}

// renderGroup paints a shape list. Items earlier in the list are on top,
// and a paint item applies to the geometry that precedes it.
func renderGroup(dc *gg.Context, items []lottie.ShapeItem, frame, opacity float64) {
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if it.Hidden {
			continue
		}
		switch {
		case it.Type == lottie.ShapeGroup:
			dc.Push()
			op := opacity
			if tr, ok := groupTransform(it.Items); ok {
				tv := tr.At(frame)
				applyTransform(dc, tv)
				op *= tv.Opacity
			}
			if op > 0 {
				renderGroup(dc, it.Items, frame, op)
			}
			dc.Pop()
		case it.IsPaint():
			dc.ClearPath()
			addGeometry(dc, items[:i], frame)
			paint(dc, it, frame, opacity)
		}
	}
}

// addGeometry appends the paths of items, including nested groups, to the
// current path.
func addGeometry(dc *gg.Context, items []lottie.ShapeItem, frame float64) {
	for _, it := range items {
		if it.Hidden {
			continue
		}
		switch it.Type {
		case lottie.ShapeRect:
			p := it.Position.Vec2(frame, [2]float64{})
			sz := it.Size.Vec2(frame, [2]float64{})
			x, y := p[0]-sz[0]/2, p[1]-sz[1]/2
			r := math.Min(it.Roundness.Scalar(frame, 0), math.Min(sz[0], sz[1])/2)
			if r > 0 {
				dc.DrawRoundedRectangle(x, y, sz[0], sz[1], r)
			} else {
				dc.DrawRectangle(x, y, sz[0], sz[1])
			}
		case lottie.ShapeEllipse:
			p := it.Position.Vec2(frame, [2]float64{})
			sz := it.Size.Vec2(frame, [2]float64{})
			dc.DrawEllipse(p[0], p[1], sz[0]/2, sz[1]/2)
		case lottie.ShapePath:
			addPath(dc, it.Path.At(frame))
		case lottie.ShapeGroup:
			// Pop keeps the path built under the group's matrix.
			dc.Push()
			if tr, ok := groupTransform(it.Items); ok {
				applyTransform(dc, tr.At(frame))
			}
			addGeometry(dc, it.Items, frame)
			dc.Pop()
		}
	}
}

func addPath(dc *gg.Context, p lottie.PathData) {
	n := len(p.Vertices)
	if n == 0 {
		return
	}
	v, in, out := p.Vertices, p.In, p.Out
	dc.NewSubPath()
	dc.MoveTo(v[0][0], v[0][1])
	for i := 1; i < n; i++ {
		dc.CubicTo(v[i-1][0]+out[i-1][0], v[i-1][1]+out[i-1][1],
			v[i][0]+in[i][0], v[i][1]+in[i][1],
			v[i][0], v[i][1])
	}
	if p.Closed {
		dc.CubicTo(v[n-1][0]+out[n-1][0], v[n-1][1]+out[n-1][1],
			v[0][0]+in[0][0], v[0][1]+in[0][1],
			v[0][0], v[0][1])
		dc.ClosePath()
	}
}

func paint(dc *gg.Context, it lottie.ShapeItem, frame, opacity float64) {
	alpha := opacity * it.Opacity.Scalar(frame, 100) / 100
	if alpha <= 0 {
		dc.ClearPath()
		return
	}
	dc.SetColor(lottie.NRGBA(lottie.ColorAt(it.Color, frame), alpha))

	if it.Type == lottie.ShapeFill {
		if it.FillRule == lottie.FillRuleEvenOdd {
			dc.SetFillRule(gg.FillRuleEvenOdd)
		} else {
			dc.SetFillRule(gg.FillRuleWinding)
		}
		dc.Fill()
		return
	}
	// gg strokes in device space.
	dc.SetLineWidth(it.Width.Scalar(frame, 1) * deviceScale(dc))
	dc.Stroke()
}

// deviceScale is the area scale factor of the current matrix.
func deviceScale(dc *gg.Context) float64 {
	x0, y0 := dc.TransformPoint(0, 0)
	x1, y1 := dc.TransformPoint(1, 0)
	x2, y2 := dc.TransformPoint(0, 1)
	det := (x1-x0)*(y2-y0) - (y1-y0)*(x2-x0)
	return math.Sqrt(math.Abs(det))
}

var (
	_ ports.RasterSourceFactory = (*Factory)(nil)
	_ ports.RasterSource        = (*Source)(nil)
)
