package graphicsstate

import (
	"fmt"
	"image/color"

	"github.com/tsawler/figura/model"
)

// GraphicsState holds the parts of the PDF graphics state that decide where
// and how paths and images land on the page.
type GraphicsState struct {
	// Current Transformation Matrix, user space to page space
	CTM model.Matrix

	// Line width in user space
	LineWidth float64

	StrokeColor color.RGBA
	FillColor   color.RGBA

	// ClipBox bounds the clipping path in page space when Clipped is set.
	ClipBox model.Box
	Clipped bool

	Text TextState

	// Set by W or W*; applied after the next painting operator
	pendingClip bool

	stack []snapshot
}

type snapshot struct {
	ctm         model.Matrix
	lineWidth   float64
	strokeColor color.RGBA
	fillColor   color.RGBA
	clipBox     model.Box
	clipped     bool
	text        TextState
}

var black = color.RGBA{A: 0xff}

// NewGraphicsState creates a new graphics state with default values
func NewGraphicsState() *GraphicsState {
	return NewGraphicsStateWithCTM(model.Identity())
}

// NewGraphicsStateWithCTM starts from an initial transformation, as used
// for form XObjects drawn inside a page.
func NewGraphicsStateWithCTM(ctm model.Matrix) *GraphicsState {
	return &GraphicsState{
		CTM:         ctm,
		LineWidth:   1.0,
		StrokeColor: black,
		FillColor:   black,
		Text:        newTextState(),
	}
}

// Save pushes the current graphics state onto the stack (q operator)
func (gs *GraphicsState) Save() {
	gs.stack = append(gs.stack, snapshot{
		ctm:         gs.CTM,
		lineWidth:   gs.LineWidth,
		strokeColor: gs.StrokeColor,
		fillColor:   gs.FillColor,
		clipBox:     gs.ClipBox,
		clipped:     gs.Clipped,
		text:        gs.Text,
	})
}

// Restore pops a graphics state from the stack (Q operator)
func (gs *GraphicsState) Restore() error {
	if len(gs.stack) == 0 {
		return fmt.Errorf("graphics state stack underflow")
	}

	saved := gs.stack[len(gs.stack)-1]
	gs.stack = gs.stack[:len(gs.stack)-1]

	gs.CTM = saved.ctm
	gs.LineWidth = saved.lineWidth
	gs.StrokeColor = saved.strokeColor
	gs.FillColor = saved.fillColor
	gs.ClipBox = saved.clipBox
	gs.Clipped = saved.clipped

	// The text matrices are not part of the saved state.
	tm, tlm := gs.Text.TextMatrix, gs.Text.TextLineMatrix
	gs.Text = saved.text
	gs.Text.TextMatrix, gs.Text.TextLineMatrix = tm, tlm
	return nil
}

// Depth returns the number of saved states.
func (gs *GraphicsState) Depth() int {
	return len(gs.stack)
}

// Transform concatenates m onto the CTM (cm operator). The new matrix maps
// through m first and then through the previous CTM.
func (gs *GraphicsState) Transform(m model.Matrix) {
	gs.CTM = m.Multiply(gs.CTM)
}

// SetLineWidth sets the line width (w operator)
func (gs *GraphicsState) SetLineWidth(width float64) {
	if width < 0 {
		width = 0
	}
	gs.LineWidth = width
}

// PageLineWidth returns the line width scaled into page space.
func (gs *GraphicsState) PageLineWidth() float64 {
	return gs.LineWidth * gs.CTM.ScaleFactor()
}

// SetStrokeColor sets the stroking color from 1 (gray), 3 (RGB) or 4 (CMYK)
// components (G, RG, K, SC, SCN). Other counts leave the color unchanged.
func (gs *GraphicsState) SetStrokeColor(components ...float64) {
	if c, ok := toRGBA(components); ok {
		gs.StrokeColor = c
	}
}

// SetFillColor is the non-stroking counterpart of SetStrokeColor.
func (gs *GraphicsState) SetFillColor(components ...float64) {
	if c, ok := toRGBA(components); ok {
		gs.FillColor = c
	}
}

// Clip records a pending W or W* operator.
func (gs *GraphicsState) Clip() {
	gs.pendingClip = true
}

// TakeClip reports and clears a pending clip. Clipping paths bound what is
// visible but are not themselves painted.
func (gs *GraphicsState) TakeClip() bool {
	c := gs.pendingClip
	gs.pendingClip = false
	return c
}

// IntersectClip narrows the clip region to b, a page-space box. Only the
// bounds of clipping paths are tracked.
func (gs *GraphicsState) IntersectClip(b model.Box) {
	if gs.Clipped {
		b = gs.ClipBox.Intersect(b)
	}
	gs.ClipBox = b
	gs.Clipped = true
}

// Visible clips a page-space box to the current clip region. ok is false
// when nothing of b remains visible.
func (gs *GraphicsState) Visible(b model.Box) (model.Box, bool) {
	if gs.Clipped {
		b = b.Intersect(gs.ClipBox)
	}
	return b, b.IsValid()
}

// Fork returns a copy of the state with an empty save stack and ctm as its
// CTM, for painting a form XObject.
func (gs *GraphicsState) Fork(ctm model.Matrix) *GraphicsState {
	f := *gs
	f.CTM = ctm
	f.stack = nil
	f.pendingClip = false
	return &f
}

func toRGBA(c []float64) (color.RGBA, bool) {
	switch len(c) {
	case 1:
		g := unit(c[0])
		return color.RGBA{R: g, G: g, B: g, A: 0xff}, true
	case 3:
		return color.RGBA{R: unit(c[0]), G: unit(c[1]), B: unit(c[2]), A: 0xff}, true
	case 4:
		r, g, b := cmykToRGB(c[0], c[1], c[2], c[3])
		return color.RGBA{R: unit(r), G: unit(g), B: unit(b), A: 0xff}, true
	}
	return color.RGBA{}, false
}

func cmykToRGB(c, m, y, k float64) (r, g, b float64) {
	return (1 - c) * (1 - k), (1 - m) * (1 - k), (1 - y) * (1 - k)
}

// unit converts a 0..1 component to 0..255, clamping out-of-range values.
func unit(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xff
	}
	return uint8(v*255 + 0.5)
}
