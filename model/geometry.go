package model

import (
	"fmt"
	"math"
)

// Point represents a 2D point
type Point struct {
	X, Y float64
}

// Distance calculates the Euclidean distance to another point
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Box is an axis-aligned rectangle in page user space. X0,Y0 is the
// lower-left corner and X1,Y1 the upper-right corner.
type Box struct {
	X0, Y0, X1, Y1 float64
}

// NewBox creates a box from any two opposite corners.
func NewBox(x0, y0, x1, y1 float64) Box {
	return Box{
		X0: math.Min(x0, x1),
		Y0: math.Min(y0, y1),
		X1: math.Max(x0, x1),
		Y1: math.Max(y0, y1),
	}
}

// BoxFromPoints returns the smallest box containing all points.
// It returns the zero Box when points is empty.
func BoxFromPoints(points ...Point) Box {
	if len(points) == 0 {
		return Box{}
	}

	b := Box{X0: points[0].X, Y0: points[0].Y, X1: points[0].X, Y1: points[0].Y}
	for _, p := range points[1:] {
		b.X0 = math.Min(b.X0, p.X)
		b.Y0 = math.Min(b.Y0, p.Y)
		b.X1 = math.Max(b.X1, p.X)
		b.Y1 = math.Max(b.Y1, p.Y)
	}
	return b
}

// Width returns the horizontal extent.
func (b Box) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent.
func (b Box) Height() float64 {
	return b.Y1 - b.Y0
}

// Area returns the area, or 0 for an invalid box.
func (b Box) Area() float64 {
	if !b.IsValid() {
		return 0
	}
	return b.Width() * b.Height()
}

// IsValid reports whether the box has positive width and height.
func (b Box) IsValid() bool {
	return b.X0 < b.X1 && b.Y0 < b.Y1
}

// Center returns the center point.
func (b Box) Center() Point {
	return Point{X: (b.X0 + b.X1) / 2, Y: (b.Y0 + b.Y1) / 2}
}

// Diagonal returns the length of the box diagonal.
func (b Box) Diagonal() float64 {
	return math.Hypot(b.Width(), b.Height())
}

// AspectRatio returns width / height, or 0 for a box without height.
func (b Box) AspectRatio() float64 {
	if b.Height() <= 0 {
		return 0
	}
	return b.Width() / b.Height()
}

// LongSide returns the larger of width and height.
func (b Box) LongSide() float64 {
	return math.Max(b.Width(), b.Height())
}

// ShortSide returns the smaller of width and height.
func (b Box) ShortSide() float64 {
	return math.Min(b.Width(), b.Height())
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(other Box) Box {
	return Box{
		X0: math.Min(b.X0, other.X0),
		Y0: math.Min(b.Y0, other.Y0),
		X1: math.Max(b.X1, other.X1),
		Y1: math.Max(b.Y1, other.Y1),
	}
}

// Intersects reports whether the boxes share any point, edges included.
func (b Box) Intersects(other Box) bool {
	return b.X0 <= other.X1 && other.X0 <= b.X1 &&
		b.Y0 <= other.Y1 && other.Y0 <= b.Y1
}

// Intersect returns the overlapping part of two boxes. The result is not
// valid when the boxes do not overlap.
func (b Box) Intersect(other Box) Box {
	return Box{
		X0: math.Max(b.X0, other.X0),
		Y0: math.Max(b.Y0, other.Y0),
		X1: math.Min(b.X1, other.X1),
		Y1: math.Min(b.Y1, other.Y1),
	}
}

// IntersectionArea returns the area shared by both boxes.
func (b Box) IntersectionArea(other Box) float64 {
	return b.Intersect(other).Area()
}

// IoU returns intersection area over union area, in [0, 1].
func (b Box) IoU(other Box) float64 {
	inter := b.IntersectionArea(other)
	if inter == 0 {
		return 0
	}
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// ContainedFraction returns the fraction of b's area that lies inside other.
func (b Box) ContainedFraction(other Box) float64 {
	area := b.Area()
	if area == 0 {
		return 0
	}
	return b.IntersectionArea(other) / area
}

// Contains reports whether other lies entirely inside b.
func (b Box) Contains(other Box) bool {
	return other.X0 >= b.X0 && other.Y0 >= b.Y0 && other.X1 <= b.X1 && other.Y1 <= b.Y1
}

// Gap returns the distance between the closest edges of two boxes, or 0
// when they touch or overlap.
func (b Box) Gap(other Box) float64 {
	dx := math.Max(0, math.Max(other.X0-b.X1, b.X0-other.X1))
	dy := math.Max(0, math.Max(other.Y0-b.Y1, b.Y0-other.Y1))
	return math.Hypot(dx, dy)
}

// Expand grows the box by margin on every side.
func (b Box) Expand(margin float64) Box {
	return Box{X0: b.X0 - margin, Y0: b.Y0 - margin, X1: b.X1 + margin, Y1: b.Y1 + margin}
}

// Thicken widens any dimension thinner than min around its center, so
// hairlines and zero-width segments still have an area.
func (b Box) Thicken(min float64) Box {
	if w := b.Width(); w < min {
		pad := (min - w) / 2
		b.X0 -= pad
		b.X1 += pad
	}
	if h := b.Height(); h < min {
		pad := (min - h) / 2
		b.Y0 -= pad
		b.Y1 += pad
	}
	return b
}

// EdgesWithin reports whether every edge of b is within tol of the matching
// edge of other.
func (b Box) EdgesWithin(other Box, tolX, tolY float64) bool {
	return math.Abs(b.X0-other.X0) <= tolX && math.Abs(b.X1-other.X1) <= tolX &&
		math.Abs(b.Y0-other.Y0) <= tolY && math.Abs(b.Y1-other.Y1) <= tolY
}

// String formats the box as [x0 y0 x1 y1].
func (b Box) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2f %.2f]", b.X0, b.Y0, b.X1, b.Y1)
}

// ReadingLess orders boxes top-to-bottom, then left-to-right. Remaining
// coordinates break ties so the order is total.
func ReadingLess(a, b Box) bool {
	if a.Y1 != b.Y1 {
		return a.Y1 > b.Y1
	}
	if a.X0 != b.X0 {
		return a.X0 < b.X0
	}
	if a.Y0 != b.Y0 {
		return a.Y0 > b.Y0
	}
	return a.X1 < b.X1
}

// Matrix represents a 2D affine transformation [a b c d e f], mapping
// (x, y) to (a*x + c*y + e, b*x + d*y + f).
type Matrix [6]float64

// Identity returns an identity matrix
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translate creates a translation matrix
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scale creates a scaling matrix
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Transform applies the matrix to a point.
func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Multiply returns the matrix that applies m first and then other.
// A PDF "cm" operand M updates the CTM as M.Multiply(CTM).
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[1]*other[2],
		m[0]*other[1] + m[1]*other[3],
		m[2]*other[0] + m[3]*other[2],
		m[2]*other[1] + m[3]*other[3],
		m[4]*other[0] + m[5]*other[2] + other[4],
		m[4]*other[1] + m[5]*other[3] + other[5],
	}
}

// Determinant returns ad - bc.
func (m Matrix) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert returns the inverse matrix. ok is false for a singular matrix.
func (m Matrix) Invert() (inv Matrix, ok bool) {
	det := m.Determinant()
	if math.Abs(det) < 1e-12 {
		return Matrix{}, false
	}
	return Matrix{
		m[3] / det,
		-m[1] / det,
		-m[2] / det,
		m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, true
}

// TransformBox returns the page-space bounds of b after transformation.
func (m Matrix) TransformBox(b Box) Box {
	return BoxFromPoints(
		m.Transform(Point{X: b.X0, Y: b.Y0}),
		m.Transform(Point{X: b.X1, Y: b.Y0}),
		m.Transform(Point{X: b.X1, Y: b.Y1}),
		m.Transform(Point{X: b.X0, Y: b.Y1}),
	)
}

// ScaleFactor returns the mean length scaling of the matrix, used to map a
// user-space line width into page space.
func (m Matrix) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m.Determinant()))
}

// IsIdentity returns true if the matrix is an identity matrix
func (m Matrix) IsIdentity() bool {
	return m[0] == 1 && m[1] == 0 && m[2] == 0 && m[3] == 1 && m[4] == 0 && m[5] == 0
}
