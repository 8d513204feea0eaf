package render

import (
	"math"

	"github.com/tsawler/figura/model"
)

// Policy decides the output resolution of a region.
type Policy struct {
	// DPI is the target resolution.
	// Default: 150
	DPI float64

	// MinDPI is the lowest resolution the dimension cap may push a region
	// to. Regions that would fall below it ignore the cap.
	// Default: 72
	MinDPI float64

	// MaxDimension caps the larger pixel dimension.
	// Default: 2000
	MaxDimension int

	// MaxPixels is the hard limit on width*height.
	// Default: 40,000,000
	MaxPixels int64
}

// DefaultPolicy returns the default resolution policy
func DefaultPolicy() Policy {
	return Policy{
		DPI:          150,
		MinDPI:       72,
		MaxDimension: 2000,
		MaxPixels:    40_000_000,
	}
}

// Scale returns the page-unit to pixel scale for box and the resulting
// image size. The target DPI is lowered so the larger side fits
// MaxDimension, but never below MinDPI.
func (p Policy) Scale(box model.Box) (scale float64, width, height int) {
	scale = p.DPI / 72
	long := box.LongSide()
	if p.MaxDimension > 0 && long*scale > float64(p.MaxDimension) {
		capped := float64(p.MaxDimension) / long
		if floor := p.MinDPI / 72; capped < floor {
			capped = floor
		}
		scale = math.Min(scale, capped)
	}
	width = int(math.Ceil(box.Width()*scale - 1e-9))
	height = int(math.Ceil(box.Height()*scale - 1e-9))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return scale, width, height
}

// Check returns a *ResourceExhaustion when the image for box would exceed
// MaxPixels.
func (p Policy) Check(page int, box model.Box) error {
	_, w, h := p.Scale(box)
	pixels := int64(w) * int64(h)
	if p.MaxPixels > 0 && pixels > p.MaxPixels {
		return &ResourceExhaustion{Page: page, Box: box, Pixels: pixels, Limit: p.MaxPixels}
	}
	return nil
}
