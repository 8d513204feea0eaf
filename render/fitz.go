//go:build fitz

package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"

	"github.com/tsawler/figura/model"
)

// FitzEnabled reports whether the MuPDF renderer is compiled in.
const FitzEnabled = true

// Fitz renders regions with MuPDF. MuPDF documents are not safe for
// concurrent use, so renders are serialized.
type Fitz struct {
	policy Policy

	mu  sync.Mutex
	doc *fitz.Document

	// last page rendered, reused when several regions share a page
	lastPage  int
	lastDPI   float64
	lastImage image.Image
}

// Ensure Fitz implements Rasterizer
var _ Rasterizer = (*Fitz)(nil)

// NewFitz opens path with MuPDF.
func NewFitz(path string, policy Policy) (*Fitz, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with MuPDF: %w", err)
	}
	return &Fitz{policy: policy, doc: doc, lastPage: -1}, nil
}

// Render draws the whole page at the region's scale and crops box out of
// it.
func (f *Fitz) Render(ctx context.Context, page *Page, box model.Box) (image.Image, error) {
	if err := f.policy.Check(page.Index, box); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scale, w, h := f.policy.Scale(box)
	dpi := scale * 72

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.doc == nil {
		return nil, &RasterizationFailure{Page: page.Index, Box: box, Err: fmt.Errorf("renderer closed")}
	}
	if page.Index >= f.doc.NumPage() {
		return nil, &RasterizationFailure{Page: page.Index, Box: box, Err: fmt.Errorf("page out of range")}
	}

	if f.lastPage != page.Index || f.lastDPI != dpi {
		img, err := f.doc.ImageDPI(page.Index, dpi)
		if err != nil {
			return nil, &RasterizationFailure{Page: page.Index, Box: box, Err: err}
		}
		f.lastPage, f.lastDPI, f.lastImage = page.Index, dpi, img
	}

	src := f.lastImage
	sb := src.Bounds()
	x := sb.Min.X + int(math.Floor((box.X0-page.Box.X0)*scale))
	y := sb.Min.Y + int(math.Floor((page.Box.Y1-box.Y1)*scale))

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), src, image.Point{X: x, Y: y}, draw.Over)
	return out, nil
}

// Close releases the MuPDF document.
func (f *Fitz) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc == nil {
		return nil
	}
	err := f.doc.Close()
	f.doc = nil
	f.lastImage = nil
	return err
}
