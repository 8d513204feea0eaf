package model

import (
	"image"
)

// Kind tags the payload carried by a Candidate.
type Kind int

const (
	// KindRaster is one placement of a bitmap image.
	KindRaster Kind = iota
	// KindVector is a cluster of painted path primitives.
	KindVector
)

func (k Kind) String() string {
	switch k {
	case KindRaster:
		return "raster"
	case KindVector:
		return "vector"
	default:
		return "unknown"
	}
}

// Bitmap is decodable pixel data shared by every placement that draws it.
// Implementations decode at most once and are safe for concurrent use.
type Bitmap interface {
	// ID identifies the underlying image resource within its document.
	ID() string
	// Size returns the pixel dimensions declared by the image.
	Size() (width, height int)
	// Image returns the decoded image.
	Image() (image.Image, error)
}

// RasterCandidate is a single placement of a bitmap on a page. The Bitmap
// is shared and not owned by the candidate.
type RasterCandidate struct {
	Bitmap Bitmap
	// Placement maps the unit square onto page space (the CTM in effect
	// when the image was painted).
	Placement Matrix
	Box       Box
}

// EffectiveDPI returns the resolution of the bitmap as placed on the page,
// using the larger of the two axis resolutions.
func (r RasterCandidate) EffectiveDPI() float64 {
	if r.Bitmap == nil || !r.Box.IsValid() {
		return 0
	}
	w, h := r.Bitmap.Size()
	dx := float64(w) / (r.Box.Width() / 72)
	dy := float64(h) / (r.Box.Height() / 72)
	if dx > dy {
		return dx
	}
	return dy
}

// PaintOp describes how a path was painted.
type PaintOp int

const (
	PaintStroke PaintOp = iota
	PaintFill
	PaintFillStroke
)

func (p PaintOp) String() string {
	switch p {
	case PaintStroke:
		return "stroke"
	case PaintFill:
		return "fill"
	case PaintFillStroke:
		return "fill-stroke"
	default:
		return "unknown"
	}
}

// VectorPrimitive is one painted path, reduced to its page-space bounds.
type VectorPrimitive struct {
	Box Box
	Op  PaintOp
	// Seq is the position of the painting operator in content order.
	Seq int
}

// VectorCluster is a connected group of primitives.
type VectorCluster struct {
	Members []VectorPrimitive
	Box     Box
}

// Candidate is a provisional figure region on one page.
type Candidate struct {
	Kind Kind
	// Page is the 0-based page index.
	Page int
	Box  Box
	// Seq orders candidates of a page in content order.
	Seq int

	Raster  *RasterCandidate
	Cluster *VectorCluster
}

// NewRasterCandidate wraps a raster placement as a candidate.
func NewRasterCandidate(page, seq int, r RasterCandidate) Candidate {
	return Candidate{Kind: KindRaster, Page: page, Box: r.Box, Seq: seq, Raster: &r}
}

// NewVectorCandidate wraps a vector cluster as a candidate. Seq is the
// lowest member sequence number.
func NewVectorCandidate(page int, c VectorCluster) Candidate {
	seq := 0
	for i, m := range c.Members {
		if i == 0 || m.Seq < seq {
			seq = m.Seq
		}
	}
	return Candidate{Kind: KindVector, Page: page, Box: c.Box, Seq: seq, Cluster: &c}
}

// FigureRegion is a merged region on one page together with every
// candidate it absorbed.
type FigureRegion struct {
	Page    int
	Box     Box
	Sources []Candidate
}

// Kinds returns the distinct source kinds in ascending order.
func (r FigureRegion) Kinds() []Kind {
	var hasRaster, hasVector bool
	for _, s := range r.Sources {
		switch s.Kind {
		case KindRaster:
			hasRaster = true
		case KindVector:
			hasVector = true
		}
	}
	var kinds []Kind
	if hasRaster {
		kinds = append(kinds, KindRaster)
	}
	if hasVector {
		kinds = append(kinds, KindVector)
	}
	return kinds
}

// FigureRecord is an extracted figure. Records are not modified after
// they are produced.
type FigureRecord struct {
	// Page is the 1-based page number.
	Page        int
	Box         Box
	Image       image.Image
	Fingerprint string
	Kinds       []Kind
}

// PixelSize returns the dimensions of the rendered image.
func (r FigureRecord) PixelSize() (int, int) {
	if r.Image == nil {
		return 0, 0
	}
	b := r.Image.Bounds()
	return b.Dx(), b.Dy()
}
