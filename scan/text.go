package scan

import (
	"github.com/tsawler/figura/contentstream"
	"github.com/tsawler/figura/model"
	"github.com/tsawler/figura/reader"
)

// Text is drawn into the display list so figure crops keep their labels,
// but glyphs never become vector primitives: running text must not form
// figure clusters.

func (in *interpreter) setFont(op contentstream.Operation) error {
	name, ok1 := op.Name(0)
	size, ok2 := op.Number(1)
	if !ok1 || !ok2 {
		return errOperands
	}
	f, err := in.scanner.doc.Font(in.resources, name)
	if err != nil {
		in.gs.SetFont(name, nil, size)
		return err
	}
	in.gs.SetFont(name, f, size)
	return nil
}

func (in *interpreter) textParam(operator string, v float64) {
	switch operator {
	case "Tc":
		in.gs.SetCharSpacing(v)
	case "Tw":
		in.gs.SetWordSpacing(v)
	case "Tz":
		in.gs.SetHorizontalScaling(v)
	case "TL":
		in.gs.SetLeading(v)
	case "Ts":
		in.gs.SetTextRise(v)
	case "Tr":
		in.gs.SetRenderingMode(int(v))
	}
}

func (in *interpreter) currentFont() (*reader.Font, error) {
	f, ok := in.gs.Text.Font.(*reader.Font)
	if !ok || f == nil {
		return nil, errNoFont
	}
	return f, nil
}

// show draws a string and advances the text matrix past it.
func (in *interpreter) show(s []byte) error {
	f, err := in.currentFont()
	if err != nil {
		return err
	}
	ts := in.gs.Text
	visible := ts.Fills() || ts.Strokes()

	var (
		glyphs []model.GlyphPaint
		box    model.Box
	)
	for _, code := range f.Codes(s) {
		width := f.Width(code)
		if visible {
			trm := in.gs.GlyphMatrix()
			if f.Type3 != nil {
				if err := in.type3Glyph(f.Type3, code, trm); err != nil {
					return err
				}
			} else {
				g := f.Glyphs
				gb := trm.TransformBox(model.Box{X0: 0, Y0: g.Descent(), X1: width, Y1: g.Ascent()})
				if len(glyphs) == 0 {
					box = gb
				} else {
					box = box.Union(gb)
				}
				glyphs = append(glyphs, model.GlyphPaint{Code: code, Matrix: trm})
			}
		}
		in.gs.Advance(width, f.WordSpace(code))
	}
	if len(glyphs) == 0 {
		return nil
	}

	lineWidth := in.gs.PageLineWidth()
	if ts.Strokes() {
		box = box.Expand(lineWidth / 2)
	}
	box, ok := in.gs.Visible(box.Thicken(hairline))
	if !ok {
		return nil
	}
	in.res.Display = append(in.res.Display, model.DisplayItem{
		Box: box,
		Text: &model.TextPaint{
			Face:        f.Glyphs,
			Glyphs:      glyphs,
			Fill:        ts.Fills(),
			Stroke:      ts.Strokes(),
			FillColor:   in.gs.FillColor,
			StrokeColor: in.gs.StrokeColor,
			LineWidth:   lineWidth,
		},
	})
	return nil
}

// showArray runs a TJ array: strings are shown, numbers move the text
// position back by thousandths of an em.
func (in *interpreter) showArray(op contentstream.Operation) error {
	arr, ok := op.Array(0)
	if !ok {
		return errOperands
	}
	for _, e := range arr {
		if b, ok := contentstream.ToBytes(e); ok {
			if err := in.show(b); err != nil {
				return err
			}
			continue
		}
		if v, ok := contentstream.ToFloat(e); ok {
			in.gs.Kern(v)
		}
	}
	return nil
}

// type3Glyph runs a Type 3 glyph procedure with glyph space mapped
// through the font matrix and the text rendering matrix.
func (in *interpreter) type3Glyph(t *reader.Type3Font, code uint32, trm model.Matrix) error {
	g, ok, err := t.Glyph(code)
	if err != nil || !ok {
		return err
	}
	return in.runForm(g, t.Matrix.Multiply(trm), true)
}
