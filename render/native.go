package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"

	"github.com/tsawler/figura/model"
	"github.com/tsawler/figura/reader"
)

// Page is what a renderer needs to know about a page.
type Page struct {
	// Index is the 0-based page index.
	Index int
	// Box is the visible page area.
	Box model.Box
	// Display holds the painted elements, in paint order.
	Display model.DisplayList
}

// Rasterizer renders a region of a page to a flattened image.
type Rasterizer interface {
	Render(ctx context.Context, page *Page, box model.Box) (image.Image, error)
}

// Native replays a page's display list with pure Go rasterization. Glyphs
// are filled from their font outlines; smooth shadings are drawn from the
// colors at the ends of their axis.
type Native struct {
	policy Policy
}

// Ensure Native implements Rasterizer
var _ Rasterizer = (*Native)(nil)

// NewNative creates a native renderer.
func NewNative(policy Policy) *Native {
	return &Native{policy: policy}
}

// minStrokePixels keeps hairlines visible.
const minStrokePixels = 1.0

// Render draws everything painted inside box onto a white canvas.
func (n *Native) Render(ctx context.Context, page *Page, box model.Box) (image.Image, error) {
	if err := n.policy.Check(page.Index, box); err != nil {
		return nil, err
	}
	scale, w, h := n.policy.Scale(box)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	c := canvas{dst: dst, box: box, scale: scale}
	for _, item := range page.Display.Within(box) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch {
		case item.Path != nil:
			c.path(item.Path)
		case item.Image != nil:
			if err := c.image(item.Image); err != nil {
				return nil, imageFailure(page.Index, box, item.Image, err)
			}
		case item.Text != nil:
			if err := c.text(item.Text); err != nil {
				return nil, &RasterizationFailure{Page: page.Index, Box: box, Err: err}
			}
		case item.Shade != nil:
			c.shade(item.Box, item.Shade)
		}
	}
	return dst, nil
}

// imageFailure classifies an image that could not be drawn. Images over
// the decode limits exhaust a resource; anything else is a rendering
// failure.
func imageFailure(page int, box model.Box, p *model.ImagePaint, err error) error {
	switch {
	case errors.Is(err, reader.ErrImageTooLarge):
		w, h := p.Bitmap.Size()
		return &ResourceExhaustion{Page: page, Box: box, Pixels: int64(w) * int64(h), Limit: reader.MaxImagePixels, Err: err}
	case errors.Is(err, reader.ErrStreamTooLarge):
		return &ResourceExhaustion{Page: page, Box: box, Err: err}
	}
	return &RasterizationFailure{Page: page, Box: box, Err: err}
}

// canvas maps page space onto an image whose top-left corner is the
// top-left corner of box.
type canvas struct {
	dst   *image.RGBA
	box   model.Box
	scale float64
}

func (c canvas) pixel(p model.Point) (float32, float32) {
	return float32((p.X - c.box.X0) * c.scale), float32((c.box.Y1 - p.Y) * c.scale)
}

func (c canvas) path(p *model.PathPaint) {
	b := c.dst.Bounds()

	if p.Fill {
		z := vector.NewRasterizer(b.Dx(), b.Dy())
		for _, sp := range p.Subpaths {
			if len(sp) < 3 {
				continue
			}
			x, y := c.pixel(sp[0])
			z.MoveTo(x, y)
			for _, pt := range sp[1:] {
				x, y := c.pixel(pt)
				z.LineTo(x, y)
			}
			z.ClosePath()
		}
		z.Draw(c.dst, b, image.NewUniform(p.FillColor), image.Point{})
	}

	if p.Stroke {
		width := math.Max(p.LineWidth*c.scale, minStrokePixels)
		z := vector.NewRasterizer(b.Dx(), b.Dy())
		for _, sp := range p.Subpaths {
			if len(sp) == 1 {
				c.dot(z, sp[0], width)
				continue
			}
			for i := 1; i < len(sp); i++ {
				c.segment(z, sp[i-1], sp[i], width)
			}
		}
		z.Draw(c.dst, b, image.NewUniform(p.StrokeColor), image.Point{})
	}
}

// segment adds a stroked line segment as a quad.
func (c canvas) segment(z *vector.Rasterizer, a, b model.Point, width float64) {
	ax, ay := c.pixel(a)
	bx, by := c.pixel(b)
	dx, dy := float64(bx-ax), float64(by-ay)
	length := math.Hypot(dx, dy)
	if length == 0 {
		c.dot(z, a, width)
		return
	}
	nx := float32(-dy / length * width / 2)
	ny := float32(dx / length * width / 2)

	z.MoveTo(ax+nx, ay+ny)
	z.LineTo(bx+nx, by+ny)
	z.LineTo(bx-nx, by-ny)
	z.LineTo(ax-nx, ay-ny)
	z.ClosePath()
}

func (c canvas) dot(z *vector.Rasterizer, p model.Point, width float64) {
	x, y := c.pixel(p)
	r := float32(width / 2)
	z.MoveTo(x-r, y-r)
	z.LineTo(x+r, y-r)
	z.LineTo(x+r, y+r)
	z.LineTo(x-r, y+r)
	z.ClosePath()
}

// image draws a bitmap through its placement: the unit square in image
// space maps to the page through the placement matrix, with image row 0
// at the top of the square.
func (c canvas) image(p *model.ImagePaint) error {
	src, err := p.Bitmap.Image()
	if err != nil {
		return err
	}
	sb := src.Bounds()
	if sb.Empty() {
		return nil
	}

	w, h := float64(sb.Dx()), float64(sb.Dy())
	m := p.Placement
	s := c.scale
	aff := f64.Aff3{
		s * m[0] / w, -s * m[2] / h, s * (m[2] + m[4] - c.box.X0),
		-s * m[1] / w, s * m[3] / h, s * (c.box.Y1 - m[3] - m[5]),
	}
	// Transform maps from the bounds origin; shift sources that do not
	// start at (0, 0).
	aff[2] -= aff[0]*float64(sb.Min.X) + aff[1]*float64(sb.Min.Y)
	aff[5] -= aff[3]*float64(sb.Min.X) + aff[4]*float64(sb.Min.Y)

	draw.ApproxBiLinear.Transform(c.dst, aff, src, sb, draw.Over, nil)
	return nil
}

// curveSteps is the number of line segments a glyph curve is flattened to.
const curveSteps = 8

// text fills or strokes glyph outlines, each mapped to the page through
// its glyph matrix.
func (c canvas) text(t *model.TextPaint) error {
	b := c.dst.Bounds()
	var fill, stroke *vector.Rasterizer
	if t.Fill {
		fill = vector.NewRasterizer(b.Dx(), b.Dy())
	}
	width := math.Max(t.LineWidth*c.scale, minStrokePixels)
	if t.Stroke {
		stroke = vector.NewRasterizer(b.Dx(), b.Dy())
	}

	for _, g := range t.Glyphs {
		o, err := t.Face.Outline(g.Code)
		if err != nil {
			return err
		}
		for _, contour := range flattenOutline(o, g.Matrix) {
			if fill != nil && len(contour) > 2 {
				x, y := c.pixel(contour[0])
				fill.MoveTo(x, y)
				for _, pt := range contour[1:] {
					x, y := c.pixel(pt)
					fill.LineTo(x, y)
				}
				fill.ClosePath()
			}
			if stroke != nil {
				for i := 1; i < len(contour); i++ {
					c.segment(stroke, contour[i-1], contour[i], width)
				}
			}
		}
	}

	if fill != nil {
		fill.Draw(c.dst, b, image.NewUniform(t.FillColor), image.Point{})
	}
	if stroke != nil {
		stroke.Draw(c.dst, b, image.NewUniform(t.StrokeColor), image.Point{})
	}
	return nil
}

// flattenOutline maps an outline through m into closed page-space
// polylines. Each contour repeats its first point at the end.
func flattenOutline(o model.Outline, m model.Matrix) [][]model.Point {
	var (
		contours [][]model.Point
		cur      []model.Point
	)
	closeContour := func() {
		if len(cur) > 1 {
			contours = append(contours, append(cur, cur[0]))
		}
		cur = nil
	}
	for _, seg := range o {
		switch seg.Op {
		case model.SegmentMoveTo:
			closeContour()
			cur = []model.Point{m.Transform(seg.Pts[0])}
		case model.SegmentLineTo:
			cur = append(cur, m.Transform(seg.Pts[0]))
		case model.SegmentQuadTo, model.SegmentCubeTo:
			if len(cur) == 0 {
				continue
			}
			start := cur[len(cur)-1]
			p1, p2 := m.Transform(seg.Pts[0]), m.Transform(seg.Pts[1])
			p3 := p2
			if seg.Op == model.SegmentCubeTo {
				p3 = m.Transform(seg.Pts[2])
			}
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				if seg.Op == model.SegmentQuadTo {
					cur = append(cur, quadPoint(start, p1, p2, t))
				} else {
					cur = append(cur, cubicPoint(start, p1, p2, p3, t))
				}
			}
		}
	}
	closeContour()
	return contours
}

func quadPoint(p0, p1, p2 model.Point, t float64) model.Point {
	u := 1 - t
	return model.Point{
		X: u*u*p0.X + 2*u*t*p1.X + t*t*p2.X,
		Y: u*u*p0.Y + 2*u*t*p1.Y + t*t*p2.Y,
	}
}

func cubicPoint(p0, p1, p2, p3 model.Point, t float64) model.Point {
	u := 1 - t
	return model.Point{
		X: u*u*u*p0.X + 3*u*u*t*p1.X + 3*u*t*t*p2.X + t*t*t*p3.X,
		Y: u*u*u*p0.Y + 3*u*u*t*p1.Y + 3*u*t*t*p2.Y + t*t*t*p3.Y,
	}
}

// shade fills the pixels of box with a shading.
func (c canvas) shade(box model.Box, s *model.ShadePaint) {
	x0, y0 := c.pixel(model.Point{X: box.X0, Y: box.Y1})
	x1, y1 := c.pixel(model.Point{X: box.X1, Y: box.Y0})
	r := image.Rect(int(math.Floor(float64(x0))), int(math.Floor(float64(y0))),
		int(math.Ceil(float64(x1))), int(math.Ceil(float64(y1)))).Intersect(c.dst.Bounds())

	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			p := model.Point{
				X: c.box.X0 + (float64(px)+0.5)/c.scale,
				Y: c.box.Y1 - (float64(py)+0.5)/c.scale,
			}
			t, ok := shadeParam(s, p)
			if !ok {
				continue
			}
			c.dst.SetRGBA(px, py, blend(s.From, s.To, t))
		}
	}
}

// shadeParam returns the position of p along the shading, from 0 at From
// to 1 at To, clamped.
func shadeParam(s *model.ShadePaint, p model.Point) (float64, bool) {
	var t float64
	switch s.Kind {
	case model.ShadeFlat:
		return 0, true
	case model.ShadeAxial:
		dx, dy := s.End.X-s.Start.X, s.End.Y-s.Start.Y
		den := dx*dx + dy*dy
		if den == 0 {
			return 0, true
		}
		t = ((p.X-s.Start.X)*dx + (p.Y-s.Start.Y)*dy) / den
	case model.ShadeRadial:
		// Largest t with |p - C(t)| = R(t), where the center C and radius
		// R move linearly from the start circle to the end circle.
		cdx, cdy := s.End.X-s.Start.X, s.End.Y-s.Start.Y
		pdx, pdy := p.X-s.Start.X, p.Y-s.Start.Y
		dr := s.R1 - s.R0
		a := cdx*cdx + cdy*cdy - dr*dr
		b := pdx*cdx + pdy*cdy + s.R0*dr
		c := pdx*pdx + pdy*pdy - s.R0*s.R0
		if math.Abs(a) < 1e-9 {
			if b == 0 {
				return 0, false
			}
			t = c / (2 * b)
		} else {
			disc := b*b - a*c
			if disc < 0 {
				return 0, false
			}
			root := math.Sqrt(disc)
			t = (b + root) / a
			if s.R0+t*dr < 0 {
				t = (b - root) / a
			}
		}
		if s.R0+t*dr < 0 {
			return 0, false
		}
	}
	return math.Max(0, math.Min(1, t)), true
}

func blend(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xff}
}
