package graphicsstate

import (
	"github.com/tsawler/figura/model"
)

// PathSegmentType defines the type of path segment
type PathSegmentType int

const (
	// PathMoveTo starts a new subpath
	PathMoveTo PathSegmentType = iota
	// PathLineTo draws a line to a point
	PathLineTo
	// PathCurveTo draws a cubic Bézier curve
	PathCurveTo
	// PathClosePath closes the current subpath
	PathClosePath
)

// curveSteps is the number of line segments a cubic curve is flattened to.
const curveSteps = 16

// PathSegment represents a single segment of a path
type PathSegment struct {
	Type PathSegmentType

	// For MoveTo and LineTo: single point
	// For CurveTo: control point 1, control point 2, end point
	Points []model.Point
}

// Path is a path under construction, in user space.
type Path struct {
	Segments []PathSegment

	CurrentPoint    model.Point
	SubpathStart    model.Point
	HasCurrentPoint bool
}

// NewPath creates a new empty path
func NewPath() *Path {
	return &Path{}
}

// MoveTo starts a new subpath at the specified point (m operator)
func (p *Path) MoveTo(x, y float64) {
	pt := model.Point{X: x, Y: y}
	p.Segments = append(p.Segments, PathSegment{Type: PathMoveTo, Points: []model.Point{pt}})
	p.CurrentPoint = pt
	p.SubpathStart = pt
	p.HasCurrentPoint = true
}

// LineTo appends a line segment from current point to (x, y) (l operator)
func (p *Path) LineTo(x, y float64) {
	if !p.HasCurrentPoint {
		p.MoveTo(x, y)
		return
	}

	pt := model.Point{X: x, Y: y}
	p.Segments = append(p.Segments, PathSegment{Type: PathLineTo, Points: []model.Point{pt}})
	p.CurrentPoint = pt
}

// CurveTo appends a cubic Bézier curve (c operator)
func (p *Path) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	if !p.HasCurrentPoint {
		p.MoveTo(x1, y1)
	}

	p.Segments = append(p.Segments, PathSegment{
		Type:   PathCurveTo,
		Points: []model.Point{{X: x1, Y: y1}, {X: x2, Y: y2}, {X: x3, Y: y3}},
	})
	p.CurrentPoint = model.Point{X: x3, Y: y3}
}

// CurveToV appends a curve whose first control point is the current point
// (v operator)
func (p *Path) CurveToV(x2, y2, x3, y3 float64) {
	if !p.HasCurrentPoint {
		return
	}
	p.CurveTo(p.CurrentPoint.X, p.CurrentPoint.Y, x2, y2, x3, y3)
}

// CurveToY appends a curve whose second control point is the end point
// (y operator)
func (p *Path) CurveToY(x1, y1, x3, y3 float64) {
	if !p.HasCurrentPoint {
		return
	}
	p.CurveTo(x1, y1, x3, y3, x3, y3)
}

// ClosePath closes the current subpath (h operator)
func (p *Path) ClosePath() {
	if !p.HasCurrentPoint {
		return
	}
	p.Segments = append(p.Segments, PathSegment{Type: PathClosePath})
	p.CurrentPoint = p.SubpathStart
}

// Rectangle appends a rectangle as a complete subpath (re operator)
func (p *Path) Rectangle(x, y, width, height float64) {
	p.MoveTo(x, y)
	p.LineTo(x+width, y)
	p.LineTo(x+width, y+height)
	p.LineTo(x, y+height)
	p.ClosePath()
}

// Clear resets the path
func (p *Path) Clear() {
	p.Segments = p.Segments[:0]
	p.HasCurrentPoint = false
}

// IsEmpty returns true if the path has no segments
func (p *Path) IsEmpty() bool {
	return len(p.Segments) == 0
}

// Flatten maps the path through ctm and replaces curves with line
// segments. It returns one point list per subpath and whether each subpath
// was closed. Subpaths with a single point are kept: a stroked zero-length
// subpath still paints a dot.
func (p *Path) Flatten(ctm model.Matrix) (subpaths [][]model.Point, closed []bool) {
	var cur []model.Point
	isClosed := false

	flush := func() {
		if len(cur) > 0 {
			subpaths = append(subpaths, cur)
			closed = append(closed, isClosed)
		}
		cur = nil
		isClosed = false
	}

	for _, seg := range p.Segments {
		switch seg.Type {
		case PathMoveTo:
			flush()
			cur = []model.Point{ctm.Transform(seg.Points[0])}
		case PathLineTo:
			cur = append(cur, ctm.Transform(seg.Points[0]))
		case PathCurveTo:
			if len(cur) == 0 {
				continue
			}
			p0 := cur[len(cur)-1]
			p1 := ctm.Transform(seg.Points[0])
			p2 := ctm.Transform(seg.Points[1])
			p3 := ctm.Transform(seg.Points[2])
			for i := 1; i <= curveSteps; i++ {
				cur = append(cur, bezier(p0, p1, p2, p3, float64(i)/curveSteps))
			}
		case PathClosePath:
			if len(cur) > 0 {
				start := cur[0]
				isClosed = true
				flush()
				// A segment after h continues from the subpath start.
				cur = []model.Point{start}
			}
		}
	}
	if len(cur) > 1 || (len(cur) == 1 && len(subpaths) == 0) {
		flush()
	}

	return subpaths, closed
}

// Bounds returns the page-space bounding box of the path under ctm.
func (p *Path) Bounds(ctm model.Matrix) (model.Box, bool) {
	subpaths, _ := p.Flatten(ctm)
	var pts []model.Point
	for _, sp := range subpaths {
		pts = append(pts, sp...)
	}
	if len(pts) == 0 {
		return model.Box{}, false
	}
	return model.BoxFromPoints(pts...), true
}

func bezier(p0, p1, p2, p3 model.Point, t float64) model.Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return model.Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}
