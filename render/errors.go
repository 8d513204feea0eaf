package render

import (
	"errors"
	"fmt"

	"github.com/tsawler/figura/model"
)

// ErrFitzNotEnabled is returned by NewFitz in builds without the fitz tag.
var ErrFitzNotEnabled = errors.New("MuPDF renderer not enabled: build with -tags fitz")

// RasterizationFailure means a region could not be drawn, typically
// because an image in it failed to decode.
type RasterizationFailure struct {
	Page int
	Box  model.Box
	Err  error
}

func (e *RasterizationFailure) Error() string {
	return fmt.Sprintf("page %d: rendering %v failed: %v", e.Page+1, e.Box, e.Err)
}

func (e *RasterizationFailure) Unwrap() error { return e.Err }

// ResourceExhaustion means a region would need more pixels than allowed,
// or an element in it is over a decoding limit. Err is set in the second
// case.
type ResourceExhaustion struct {
	Page   int
	Box    model.Box
	Pixels int64
	Limit  int64
	Err    error
}

func (e *ResourceExhaustion) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("page %d: region %v: %v", e.Page+1, e.Box, e.Err)
	}
	return fmt.Sprintf("page %d: region %v needs %d pixels, limit is %d", e.Page+1, e.Box, e.Pixels, e.Limit)
}

func (e *ResourceExhaustion) Unwrap() error { return e.Err }
