//go:build !fitz

package render

import (
	"context"
	"image"

	"github.com/tsawler/figura/model"
)

// FitzEnabled reports whether the MuPDF renderer is compiled in.
const FitzEnabled = false

// Fitz is unavailable without the fitz build tag.
type Fitz struct{}

// NewFitz always fails in builds without the fitz tag.
func NewFitz(path string, policy Policy) (*Fitz, error) {
	return nil, ErrFitzNotEnabled
}

// Render always fails in builds without the fitz tag.
func (f *Fitz) Render(ctx context.Context, page *Page, box model.Box) (image.Image, error) {
	return nil, ErrFitzNotEnabled
}

// Close does nothing.
func (f *Fitz) Close() error { return nil }
