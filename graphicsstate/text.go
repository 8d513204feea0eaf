package graphicsstate

import "github.com/tsawler/figura/model"

// FontMetrics measures the glyphs of the current font.
type FontMetrics interface {
	Codes(s []byte) []uint32
	// Width is the advance of code in text space units at font size 1.
	Width(code uint32) float64
	WordSpace(code uint32) bool
}

// TextState holds the text state parameters and, inside BT/ET, the text
// matrices.
type TextState struct {
	FontName string
	Font     FontMetrics
	FontSize float64

	CharSpacing float64
	WordSpacing float64
	// Horizontal scaling in percent
	HorizontalScaling float64
	Leading           float64
	RenderingMode     int
	Rise              float64

	TextMatrix     model.Matrix
	TextLineMatrix model.Matrix
}

func newTextState() TextState {
	return TextState{
		HorizontalScaling: 100,
		TextMatrix:        model.Identity(),
		TextLineMatrix:    model.Identity(),
	}
}

// Fills reports whether the rendering mode fills glyphs.
func (ts TextState) Fills() bool {
	switch ts.RenderingMode {
	case 0, 2, 4, 6:
		return true
	}
	return false
}

// Strokes reports whether the rendering mode strokes glyph outlines.
func (ts TextState) Strokes() bool {
	switch ts.RenderingMode {
	case 1, 2, 5, 6:
		return true
	}
	return false
}

// SetFont sets the font and size (Tf operator)
func (gs *GraphicsState) SetFont(name string, f FontMetrics, size float64) {
	gs.Text.FontName = name
	gs.Text.Font = f
	gs.Text.FontSize = size
}

// SetCharSpacing sets character spacing (Tc operator)
func (gs *GraphicsState) SetCharSpacing(spacing float64) {
	gs.Text.CharSpacing = spacing
}

// SetWordSpacing sets word spacing (Tw operator)
func (gs *GraphicsState) SetWordSpacing(spacing float64) {
	gs.Text.WordSpacing = spacing
}

// SetHorizontalScaling sets horizontal scaling (Tz operator)
func (gs *GraphicsState) SetHorizontalScaling(scale float64) {
	gs.Text.HorizontalScaling = scale
}

// SetLeading sets text leading (TL operator)
func (gs *GraphicsState) SetLeading(leading float64) {
	gs.Text.Leading = leading
}

// SetRenderingMode sets text rendering mode (Tr operator)
func (gs *GraphicsState) SetRenderingMode(mode int) {
	gs.Text.RenderingMode = mode
}

// SetTextRise sets text rise (Ts operator)
func (gs *GraphicsState) SetTextRise(rise float64) {
	gs.Text.Rise = rise
}

// BeginText resets the text matrices (BT operator)
func (gs *GraphicsState) BeginText() {
	gs.Text.TextMatrix = model.Identity()
	gs.Text.TextLineMatrix = model.Identity()
}

// SetTextMatrix sets the text matrix (Tm operator)
func (gs *GraphicsState) SetTextMatrix(m model.Matrix) {
	gs.Text.TextMatrix = m
	gs.Text.TextLineMatrix = m
}

// TranslateText starts a new line offset from the current one (Td
// operator).
func (gs *GraphicsState) TranslateText(tx, ty float64) {
	gs.Text.TextLineMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextLineMatrix)
	gs.Text.TextMatrix = gs.Text.TextLineMatrix
}

// TranslateTextSetLeading translates text and sets leading (TD operator)
func (gs *GraphicsState) TranslateTextSetLeading(tx, ty float64) {
	gs.SetLeading(-ty)
	gs.TranslateText(tx, ty)
}

// NextLine moves to next line (T* operator)
func (gs *GraphicsState) NextLine() {
	gs.TranslateText(0, -gs.Text.Leading)
}

// GlyphMatrix is the text rendering matrix: it maps glyph space at font
// size 1 to page space for the next glyph.
func (gs *GraphicsState) GlyphMatrix() model.Matrix {
	t := &gs.Text
	th := t.HorizontalScaling / 100
	params := model.Matrix{t.FontSize * th, 0, 0, t.FontSize, 0, t.Rise}
	return params.Multiply(t.TextMatrix).Multiply(gs.CTM)
}

// Advance moves the text matrix past a shown glyph of the given width.
// Word spacing is added when wordSpace is set.
func (gs *GraphicsState) Advance(width float64, wordSpace bool) {
	t := &gs.Text
	tx := width*t.FontSize + t.CharSpacing
	if wordSpace {
		tx += t.WordSpacing
	}
	gs.moveText(tx * t.HorizontalScaling / 100)
}

// Kern applies a number from a TJ array, in thousandths of text space
// units. Positive values move left.
func (gs *GraphicsState) Kern(adjust float64) {
	t := &gs.Text
	gs.moveText(-adjust / 1000 * t.FontSize * t.HorizontalScaling / 100)
}

func (gs *GraphicsState) moveText(tx float64) {
	gs.Text.TextMatrix = model.Translate(tx, 0).Multiply(gs.Text.TextMatrix)
}
