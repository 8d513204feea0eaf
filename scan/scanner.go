package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog"

	"github.com/tsawler/figura/contentstream"
	"github.com/tsawler/figura/graphicsstate"
	"github.com/tsawler/figura/model"
	"github.com/tsawler/figura/reader"
)

// DefaultMaxFormDepth bounds form XObject nesting.
const DefaultMaxFormDepth = 8

// hairline is the thickness given to zero-width primitives so that they
// still have an area.
const hairline = 0.5

// checkEvery is how many operators run between context checks.
const checkEvery = 512

var (
	errOperands     = errors.New("bad operands")
	errFormDepth    = errors.New("form XObject nesting too deep")
	errFormCycle    = errors.New("form XObject draws itself")
	errUnknownXType = errors.New("unsupported XObject subtype")
	errNoFont       = errors.New("text shown without a font")
)

// Result is everything found on one page.
type Result struct {
	// Page is the 0-based page index.
	Page int
	// PageBox is the visible page area (the crop box).
	PageBox model.Box

	// Rasters holds one candidate per image placement, in content order.
	Rasters []model.Candidate
	// Primitives holds the painted paths, in content order.
	Primitives []model.VectorPrimitive
	// Display records every painted element for rendering.
	Display model.DisplayList

	// Problems lists operators that were skipped.
	Problems []*UnsupportedPrimitiveError
}

// Scanner interprets page content streams.
type Scanner struct {
	doc          *reader.Document
	maxFormDepth int
	logger       zerolog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMaxFormDepth sets the form XObject nesting limit.
func WithMaxFormDepth(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxFormDepth = n
		}
	}
}

// WithLogger sets the logger skipped operators are reported to.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scanner) {
		s.logger = l
	}
}

// New creates a scanner for doc.
func New(doc *reader.Document, opts ...Option) *Scanner {
	s := &Scanner{
		doc:          doc,
		maxFormDepth: DefaultMaxFormDepth,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanPage interprets the page at the given 0-based index. A page whose
// content cannot be read or tokenized at all returns a *MalformedPageError.
// Individual bad operators are skipped and listed in Result.Problems.
func (s *Scanner) ScanPage(ctx context.Context, index int) (*Result, error) {
	page, err := s.doc.Page(index)
	if err != nil {
		return nil, &MalformedPageError{Page: index, Err: err}
	}

	res := &Result{Page: index, PageBox: page.CropBox()}

	resources, err := page.Resources()
	if err != nil {
		return nil, &MalformedPageError{Page: index, Err: err}
	}

	content, err := s.doc.PageContent(page)
	if err != nil {
		if len(bytes.TrimSpace(content)) == 0 {
			return nil, &MalformedPageError{Page: index, Err: err}
		}
		res.problem(s.logger, &UnsupportedPrimitiveError{Page: index, Err: err})
	}

	ops, err := contentstream.Parse(content)
	if err != nil {
		if len(ops) == 0 {
			return nil, &MalformedPageError{Page: index, Err: err}
		}
		res.parseProblems(s.logger, err, func(e error) error { return e })
	}

	gs := graphicsstate.NewGraphicsState()
	gs.IntersectClip(res.PageBox)

	in := &interpreter{
		scanner:   s,
		ctx:       ctx,
		res:       res,
		gs:        gs,
		path:      graphicsstate.NewPath(),
		resources: resources,
		seq:       new(int),
		active:    map[int]bool{},
	}
	if err := in.run(ops); err != nil {
		return nil, err
	}

	return res, nil
}

// parseProblems records each token the content stream parser skipped.
func (r *Result) parseProblems(logger zerolog.Logger, err error, wrap func(error) error) {
	var perrs contentstream.ParseErrors
	if !errors.As(err, &perrs) {
		return
	}
	for _, pe := range perrs {
		r.problem(logger, &UnsupportedPrimitiveError{Page: r.Page, Offset: pe.Offset, Err: wrap(pe.Err)})
	}
}

func (r *Result) problem(logger zerolog.Logger, e *UnsupportedPrimitiveError) {
	r.Problems = append(r.Problems, e)
	logger.Debug().
		Int("page", e.Page+1).
		Str("op", e.Operator).
		Int("offset", e.Offset).
		Err(e.Err).
		Msg("skipped operator")
}

// interpreter runs one content stream: the page itself or a form.
type interpreter struct {
	scanner   *Scanner
	ctx       context.Context
	res       *Result
	gs        *graphicsstate.GraphicsState
	path      *graphicsstate.Path
	resources types.Dict
	depth     int
	// glyph is set inside Type 3 glyph procedures, whose marks are
	// drawn but never become candidates.
	glyph bool

	// seq counts painting operators across the page and its forms.
	seq *int
	// active holds the object numbers of the forms being drawn.
	active map[int]bool
}

func (in *interpreter) run(ops []contentstream.Operation) error {
	for i, op := range ops {
		if i%checkEvery == 0 {
			if err := in.ctx.Err(); err != nil {
				return err
			}
		}
		if err := in.process(op); err != nil {
			if ctxErr := in.ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			in.res.problem(in.scanner.logger, &UnsupportedPrimitiveError{
				Page:     in.res.Page,
				Operator: op.Operator,
				Offset:   op.Offset,
				Err:      err,
			})
		}
	}
	return nil
}

func (in *interpreter) process(op contentstream.Operation) error {
	switch op.Operator {
	// Graphics state
	case "q":
		in.gs.Save()
	case "Q":
		return in.gs.Restore()
	case "cm":
		v, ok := op.Numbers()
		if !ok || len(v) != 6 {
			return errOperands
		}
		in.gs.Transform(model.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]})
	case "w":
		w, ok := op.Number(0)
		if !ok {
			return errOperands
		}
		in.gs.SetLineWidth(w)
	case "gs":
		return in.extGState(op)

	// Color
	case "G", "RG", "K", "SC", "SCN":
		in.gs.SetStrokeColor(numericPrefix(op)...)
	case "g", "rg", "k", "sc", "scn":
		in.gs.SetFillColor(numericPrefix(op)...)
	case "CS":
		in.gs.SetStrokeColor(0)
	case "cs":
		in.gs.SetFillColor(0)

	// Path construction
	case "m", "l":
		v, ok := op.Numbers()
		if !ok || len(v) != 2 {
			return errOperands
		}
		if op.Operator == "m" {
			in.path.MoveTo(v[0], v[1])
		} else {
			in.path.LineTo(v[0], v[1])
		}
	case "c":
		v, ok := op.Numbers()
		if !ok || len(v) != 6 {
			return errOperands
		}
		in.path.CurveTo(v[0], v[1], v[2], v[3], v[4], v[5])
	case "v", "y":
		v, ok := op.Numbers()
		if !ok || len(v) != 4 {
			return errOperands
		}
		if op.Operator == "v" {
			in.path.CurveToV(v[0], v[1], v[2], v[3])
		} else {
			in.path.CurveToY(v[0], v[1], v[2], v[3])
		}
	case "h":
		in.path.ClosePath()
	case "re":
		v, ok := op.Numbers()
		if !ok || len(v) != 4 {
			return errOperands
		}
		in.path.Rectangle(v[0], v[1], v[2], v[3])

	// Clipping
	case "W", "W*":
		in.gs.Clip()

	// Path painting
	case "S":
		in.paint(model.PaintStroke, false, false)
	case "s":
		in.path.ClosePath()
		in.paint(model.PaintStroke, false, false)
	case "f", "F":
		in.paint(model.PaintFill, false, false)
	case "f*":
		in.paint(model.PaintFill, true, false)
	case "B":
		in.paint(model.PaintFillStroke, false, false)
	case "B*":
		in.paint(model.PaintFillStroke, true, false)
	case "b":
		in.path.ClosePath()
		in.paint(model.PaintFillStroke, false, false)
	case "b*":
		in.path.ClosePath()
		in.paint(model.PaintFillStroke, true, false)
	case "n":
		in.paint(model.PaintFill, false, true)

	// Shading fills the clip region.
	case "sh":
		name, ok := op.Name(0)
		if !ok {
			return errOperands
		}
		return in.shade(name)

	// Text
	case "BT":
		in.gs.BeginText()
	case "ET", "d0", "d1":
	case "Tf":
		return in.setFont(op)
	case "Tc", "Tw", "Tz", "TL", "Ts", "Tr":
		v, ok := op.Number(0)
		if !ok {
			return errOperands
		}
		in.textParam(op.Operator, v)
	case "Td", "TD":
		v, ok := op.Numbers()
		if !ok || len(v) != 2 {
			return errOperands
		}
		if op.Operator == "Td" {
			in.gs.TranslateText(v[0], v[1])
		} else {
			in.gs.TranslateTextSetLeading(v[0], v[1])
		}
	case "Tm":
		v, ok := op.Numbers()
		if !ok || len(v) != 6 {
			return errOperands
		}
		in.gs.SetTextMatrix(model.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]})
	case "T*":
		in.gs.NextLine()
	case "Tj", "'":
		b, ok := op.Bytes(0)
		if !ok {
			return errOperands
		}
		if op.Operator == "'" {
			in.gs.NextLine()
		}
		return in.show(b)
	case `"`:
		aw, ok1 := op.Number(0)
		ac, ok2 := op.Number(1)
		b, ok3 := op.Bytes(2)
		if !ok1 || !ok2 || !ok3 {
			return errOperands
		}
		in.gs.SetWordSpacing(aw)
		in.gs.SetCharSpacing(ac)
		in.gs.NextLine()
		return in.show(b)
	case "TJ":
		return in.showArray(op)

	// External objects
	case "Do":
		name, ok := op.Name(0)
		if !ok {
			return errOperands
		}
		return in.xobject(name)
	case "BI":
		if op.InlineImage == nil {
			return errOperands
		}
		return in.inlineImage(op.InlineImage)
	}

	// Marked content and compatibility operators paint nothing.
	return nil
}

// numericPrefix returns the leading numeric operands. SCN with a pattern
// name yields the components before the name.
func numericPrefix(op contentstream.Operation) []float64 {
	var out []float64
	for _, o := range op.Operands {
		v, ok := contentstream.ToFloat(o)
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

func (in *interpreter) extGState(op contentstream.Operation) error {
	name, ok := op.Name(0)
	if !ok {
		return errOperands
	}
	entry, err := in.scanner.doc.Resource(in.resources, "ExtGState", name)
	if err != nil {
		return err
	}
	dict, err := in.scanner.doc.ResolveDict(entry)
	if err != nil || dict == nil {
		return fmt.Errorf("invalid ExtGState /%s", name)
	}
	if lw, ok := dict.Find("LW"); ok {
		if w, ok := in.scanner.doc.Number(lw); ok {
			in.gs.SetLineWidth(w)
		}
	}
	return nil
}

func (in *interpreter) nextSeq() int {
	*in.seq++
	return *in.seq
}

// paint ends the current path. A pending clip is applied after painting;
// noPaint is the n operator.
func (in *interpreter) paint(op model.PaintOp, evenOdd, noPaint bool) {
	defer in.path.Clear()

	ctm := in.gs.CTM
	bounds, ok := in.path.Bounds(ctm)
	clip := in.gs.TakeClip()

	if ok && !noPaint {
		stroke := op == model.PaintStroke || op == model.PaintFillStroke
		fill := op == model.PaintFill || op == model.PaintFillStroke

		box := bounds
		width := in.gs.PageLineWidth()
		if stroke {
			box = box.Expand(width / 2)
		}
		box = box.Thicken(hairline)

		if visible, ok := in.gs.Visible(box); ok {
			if !in.glyph {
				in.res.Primitives = append(in.res.Primitives, model.VectorPrimitive{Box: visible, Op: op, Seq: in.nextSeq()})
			}

			subpaths, closed := in.path.Flatten(ctm)
			for i, sp := range subpaths {
				if closed[i] && len(sp) > 1 {
					subpaths[i] = append(sp, sp[0])
				}
			}
			in.res.Display = append(in.res.Display, model.DisplayItem{
				Box: visible,
				Path: &model.PathPaint{
					Subpaths:    subpaths,
					Closed:      closed,
					Fill:        fill,
					Stroke:      stroke,
					EvenOdd:     evenOdd,
					FillColor:   in.gs.FillColor,
					StrokeColor: in.gs.StrokeColor,
					LineWidth:   width,
				},
			})
		}
	}

	if clip && ok {
		in.gs.IntersectClip(bounds)
	}
}

// shade records an sh operator as a filled primitive covering the clip
// region and draws the shading there.
func (in *interpreter) shade(name string) error {
	box, ok := in.gs.Visible(in.res.PageBox)
	if !ok {
		return nil
	}
	if !in.glyph {
		in.res.Primitives = append(in.res.Primitives, model.VectorPrimitive{Box: box, Op: model.PaintFill, Seq: in.nextSeq()})
	}

	sh, err := in.scanner.doc.Shading(in.resources, name)
	if err != nil {
		return fmt.Errorf("shading /%s: %w", name, err)
	}
	ctm := in.gs.CTM
	paint := &model.ShadePaint{Kind: model.ShadeFlat, From: opaque(sh.From), To: opaque(sh.To)}
	switch {
	case sh.Type == 2 && len(sh.Coords) == 4:
		paint.Kind = model.ShadeAxial
		paint.Start = ctm.Transform(model.Point{X: sh.Coords[0], Y: sh.Coords[1]})
		paint.End = ctm.Transform(model.Point{X: sh.Coords[2], Y: sh.Coords[3]})
	case sh.Type == 3 && len(sh.Coords) == 6:
		paint.Kind = model.ShadeRadial
		scale := ctm.ScaleFactor()
		paint.Start = ctm.Transform(model.Point{X: sh.Coords[0], Y: sh.Coords[1]})
		paint.R0 = sh.Coords[2] * scale
		paint.End = ctm.Transform(model.Point{X: sh.Coords[3], Y: sh.Coords[4]})
		paint.R1 = sh.Coords[5] * scale
	}
	in.res.Display = append(in.res.Display, model.DisplayItem{Box: box, Shade: paint})
	return nil
}

func opaque(c color.NRGBA) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

func (in *interpreter) xobject(name string) error {
	x, err := in.scanner.doc.XObject(in.resources, name)
	if err != nil {
		return err
	}

	switch x.Kind {
	case reader.XObjectImage:
		in.placeImage(x.Image)
		return nil
	case reader.XObjectForm:
		return in.form(x.Form)
	}
	return fmt.Errorf("%w: /%s", errUnknownXType, x.Subtype)
}

func (in *interpreter) inlineImage(img *contentstream.InlineImage) error {
	seq := *in.seq + 1
	id := fmt.Sprintf("inline-%d-%d", in.res.Page, seq)
	r, err := in.scanner.doc.NewInlineImage(img.Dict, img.Data, in.resources, id)
	if err != nil {
		return err
	}
	in.placeImage(r)
	return nil
}

// placeImage records one placement of a bitmap: the CTM maps the unit
// square onto the page.
func (in *interpreter) placeImage(img *reader.ImageResource) {
	ctm := in.gs.CTM
	box := ctm.TransformBox(model.Box{X0: 0, Y0: 0, X1: 1, Y1: 1})
	visible, ok := in.gs.Visible(box)
	if !ok {
		return
	}

	if !in.glyph {
		seq := in.nextSeq()
		in.res.Rasters = append(in.res.Rasters, model.NewRasterCandidate(in.res.Page, seq, model.RasterCandidate{
			Bitmap:    img,
			Placement: ctm,
			Box:       visible,
		}))
	}
	in.res.Display = append(in.res.Display, model.DisplayItem{
		Box:   visible,
		Image: &model.ImagePaint{Bitmap: img, Placement: ctm},
	})
}

// form draws a form XObject in a forked graphics state.
func (in *interpreter) form(f *reader.Form) error {
	return in.runForm(f, f.Matrix.Multiply(in.gs.CTM), in.glyph)
}

// runForm interprets a form's content with ctm mapping form space to the
// page. Parse errors in the form are recorded and the rest still runs.
func (in *interpreter) runForm(f *reader.Form, ctm model.Matrix, glyph bool) error {
	if in.depth+1 > in.scanner.maxFormDepth {
		return errFormDepth
	}
	if f.ObjectNumber > 0 {
		if in.active[f.ObjectNumber] {
			return errFormCycle
		}
		in.active[f.ObjectNumber] = true
		defer delete(in.active, f.ObjectNumber)
	}

	ops, err := contentstream.Parse(f.Content)
	if err != nil {
		if len(ops) == 0 && len(bytes.TrimSpace(f.Content)) > 0 {
			return err
		}
		in.res.parseProblems(in.scanner.logger, err, func(e error) error {
			return fmt.Errorf("form %d: %w", f.ObjectNumber, e)
		})
	}

	gs := in.gs.Fork(ctm)
	if f.HasBBox {
		gs.IntersectClip(ctm.TransformBox(f.BBox))
	}

	resources := f.Resources
	if resources == nil {
		resources = in.resources
	}

	sub := &interpreter{
		scanner:   in.scanner,
		ctx:       in.ctx,
		res:       in.res,
		gs:        gs,
		path:      graphicsstate.NewPath(),
		resources: resources,
		depth:     in.depth + 1,
		glyph:     glyph,
		seq:       in.seq,
		active:    in.active,
	}
	return sub.run(ops)
}
