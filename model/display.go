package model

import "image/color"

// PathPaint is a painted path with geometry already in page space.
type PathPaint struct {
	// Subpaths are flattened polylines. Closed subpaths repeat their first
	// point at the end.
	Subpaths    [][]Point
	Closed      []bool
	Fill        bool
	Stroke      bool
	EvenOdd     bool
	FillColor   color.RGBA
	StrokeColor color.RGBA
	// LineWidth is the stroke width in page units.
	LineWidth float64
}

// ImagePaint is a bitmap drawn through a placement matrix.
type ImagePaint struct {
	Bitmap    Bitmap
	Placement Matrix
}

// SegmentOp is the kind of an outline segment.
type SegmentOp uint8

const (
	SegmentMoveTo SegmentOp = iota
	SegmentLineTo
	SegmentQuadTo
	SegmentCubeTo
)

// Segment is one step of an outline. MoveTo and LineTo use Pts[0], QuadTo
// uses Pts[0:2] and CubeTo all three points. The last point is the new
// current point.
type Segment struct {
	Op  SegmentOp
	Pts [3]Point
}

// Outline is a glyph shape made of closed contours, each starting with a
// MoveTo. It is filled with the non-zero rule.
type Outline []Segment

// Face supplies glyph outlines for the character codes of one font.
// Implementations are safe for concurrent use.
type Face interface {
	// Outline returns the glyph for code in glyph space, where one unit is
	// one text space unit of a font at size 1. A code with no glyph yields
	// an empty outline.
	Outline(code uint32) (Outline, error)
}

// GlyphPaint places one glyph. Matrix maps glyph space to page space.
type GlyphPaint struct {
	Code   uint32
	Matrix Matrix
}

// TextPaint is a run of glyphs shown by one text operator.
type TextPaint struct {
	Face   Face
	Glyphs []GlyphPaint
	Fill   bool
	Stroke bool
	// FillColor and StrokeColor follow the text rendering mode.
	FillColor   color.RGBA
	StrokeColor color.RGBA
	// LineWidth is the stroke width in page units.
	LineWidth float64
}

// ShadeKind is the geometry of a smooth shading.
type ShadeKind uint8

const (
	// ShadeFlat fills with From.
	ShadeFlat ShadeKind = iota
	// ShadeAxial blends From to To along the line Start-End.
	ShadeAxial
	// ShadeRadial blends From to To between the circles (Start, R0) and
	// (End, R1).
	ShadeRadial
)

// ShadePaint is a smooth shading filling its item's box. Geometry is in
// page space. Colors are held at the end values beyond the axis.
type ShadePaint struct {
	Kind       ShadeKind
	From, To   color.RGBA
	Start, End Point
	R0, R1     float64
}

// DisplayItem is a single painted element. Exactly one of Path, Image,
// Text and Shade is set.
type DisplayItem struct {
	Box   Box
	Path  *PathPaint
	Image *ImagePaint
	Text  *TextPaint
	Shade *ShadePaint
}

// DisplayList holds the painted elements of a page in paint order.
type DisplayList []DisplayItem

// Within returns the items whose bounds intersect box, preserving order.
func (d DisplayList) Within(box Box) DisplayList {
	var out DisplayList
	for _, item := range d {
		if item.Box.Intersects(box) {
			out = append(out, item)
		}
	}
	return out
}
