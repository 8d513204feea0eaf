package font

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/tsawler/figura/model"
)

// Font descriptor flags used to pick a fallback face.
const (
	FlagFixedPitch = 1 << 0
	FlagItalic     = 1 << 6
	FlagForceBold  = 1 << 18
)

// Descriptor holds the parts of a PDF font dictionary needed to measure
// and draw its glyphs.
type Descriptor struct {
	Subtype  string // Type1, TrueType, Type0, MMType1
	BaseFont string
	Flags    int

	// Simple fonts.
	FirstChar    int
	Widths       []float64
	MissingWidth float64
	Encoding     string         // base encoding name
	Differences  map[int]string // code to glyph name

	// Type 0 fonts. Codes are two-byte CIDs.
	Composite    bool
	CIDWidths    map[uint32]float64
	DefaultWidth float64
	CIDToGID     []byte // nil is the identity mapping

	ToUnicode []byte
	// Program is an embedded TrueType or OpenType font program.
	Program []byte
}

// Font measures and outlines the glyphs of one PDF font. It is safe for
// concurrent use.
type Font struct {
	name      string
	desc      Descriptor
	enc       Encoding
	toUnicode *CMap
	std       *metrics

	face     *sfnt.Font
	embedded bool
	ascent   float64
	descent  float64

	mu       sync.Mutex
	buf      sfnt.Buffer
	outlines map[uint32]model.Outline
}

// outlineScale is the ppem outlines are loaded at. Coordinates are divided
// by it to get glyph space units of one em.
const outlineScale = 1000

// New builds a Font. An embedded program sfnt cannot read is replaced by
// the fallback face, so New never fails.
func New(desc Descriptor) *Font {
	f := &Font{
		name:     desc.BaseFont,
		desc:     desc,
		enc:      NamedEncoding(desc.Encoding),
		outlines: make(map[uint32]model.Outline),
	}
	f.enc.Apply(desc.Differences)
	if len(desc.ToUnicode) > 0 {
		f.toUnicode = ParseCMap(desc.ToUnicode)
	}
	if desc.DefaultWidth == 0 {
		f.desc.DefaultWidth = 1000
	}
	if len(desc.Program) > 0 {
		if face, err := sfnt.Parse(desc.Program); err == nil {
			f.face = face
			f.embedded = true
		}
	}
	if f.face == nil {
		f.std = standardMetrics(stripSubset(desc.BaseFont))
		f.face = fallbackFace(desc.BaseFont, desc.Flags)
	}
	f.ascent, f.descent = 0.9, -0.25
	if f.face != nil {
		if m, err := f.face.Metrics(&f.buf, fixed.I(outlineScale), xfont.HintingNone); err == nil && m.Ascent > 0 {
			f.ascent = float64(m.Ascent) / 64 / outlineScale
			f.descent = -float64(m.Descent) / 64 / outlineScale
		}
	}
	return f
}

// Name returns the font's base name.
func (f *Font) Name() string { return f.name }

// Embedded reports whether glyphs come from the font's own program.
func (f *Font) Embedded() bool { return f.embedded }

// Composite reports whether codes are two bytes wide.
func (f *Font) Composite() bool { return f.desc.Composite }

// Codes splits a shown string into character codes.
func (f *Font) Codes(b []byte) []uint32 {
	if !f.desc.Composite {
		out := make([]uint32, len(b))
		for i, c := range b {
			out[i] = uint32(c)
		}
		return out
	}
	out := make([]uint32, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		out = append(out, uint32(b[i])<<8|uint32(b[i+1]))
	}
	return out
}

// WordSpace reports whether word spacing applies after code.
func (f *Font) WordSpace(code uint32) bool {
	return !f.desc.Composite && code == ' '
}

// Width returns the advance of code in text space units at font size 1.
func (f *Font) Width(code uint32) float64 {
	d := &f.desc
	if d.Composite {
		if w, ok := d.CIDWidths[code]; ok {
			return w / 1000
		}
		return d.DefaultWidth / 1000
	}
	if i := int(code) - d.FirstChar; i >= 0 && i < len(d.Widths) {
		return d.Widths[i] / 1000
	}
	if d.MissingWidth > 0 {
		return d.MissingWidth / 1000
	}
	if w, ok := f.std.width(f.Rune(code)); ok {
		return w / 1000
	}
	if adv, ok := f.advance(code); ok {
		return adv
	}
	return 0.5
}

// Ascent and Descent bound glyphs vertically, in text space units at font
// size 1. Descent is negative.
func (f *Font) Ascent() float64  { return f.ascent }
func (f *Font) Descent() float64 { return f.descent }

// Rune returns the character code stands for, or 0 when unknown.
func (f *Font) Rune(code uint32) rune {
	if text, ok := f.toUnicode.Lookup(code); ok {
		for _, r := range text {
			return r
		}
	}
	if f.desc.Composite || code > 0xff {
		return 0
	}
	return f.enc[code]
}

// Outline returns the glyph of code in glyph space: text space at font
// size 1, y up. Codes without a glyph give an empty outline.
func (f *Font) Outline(code uint32) (model.Outline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.outlines[code]; ok {
		return o, nil
	}
	var out model.Outline
	if gid := f.glyphIndex(code); gid != 0 {
		segs, err := f.face.LoadGlyph(&f.buf, gid, fixed.I(outlineScale), nil)
		if err != nil && !errors.Is(err, sfnt.ErrNotFound) {
			return nil, fmt.Errorf("font %s: glyph %d: %w", f.name, gid, err)
		}
		out = convertSegments(segs)
	}
	f.outlines[code] = out
	return out, nil
}

// glyphIndex must be called with f.mu held.
func (f *Font) glyphIndex(code uint32) sfnt.GlyphIndex {
	if f.face == nil {
		return 0
	}
	if f.embedded && f.desc.Composite {
		gid := code
		if m := f.desc.CIDToGID; m != nil {
			i := int(code) * 2
			if i+1 >= len(m) {
				return 0
			}
			gid = uint32(m[i])<<8 | uint32(m[i+1])
		}
		if int(gid) >= f.face.NumGlyphs() {
			return 0
		}
		return sfnt.GlyphIndex(gid)
	}

	candidates := make([]rune, 0, 3)
	if r := f.Rune(code); r != 0 {
		candidates = append(candidates, r)
	}
	if f.embedded {
		// Symbolic TrueType subsets map codes into the 0xF000 page of a
		// (3,0) cmap, or directly.
		candidates = append(candidates, 0xF000|rune(code), rune(code))
	}
	for _, r := range candidates {
		if gid, err := f.face.GlyphIndex(&f.buf, r); err == nil && gid != 0 {
			return gid
		}
	}
	return 0
}

func (f *Font) advance(code uint32) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gid := f.glyphIndex(code)
	if gid == 0 {
		return 0, false
	}
	adv, err := f.face.GlyphAdvance(&f.buf, gid, fixed.I(outlineScale), xfont.HintingNone)
	if err != nil {
		return 0, false
	}
	return float64(adv) / 64 / outlineScale, true
}

// convertSegments flips sfnt's y-down pixel coordinates into y-up glyph
// space.
func convertSegments(segs sfnt.Segments) model.Outline {
	if len(segs) == 0 {
		return nil
	}
	out := make(model.Outline, len(segs))
	for i, s := range segs {
		var seg model.Segment
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			seg.Op = model.SegmentMoveTo
		case sfnt.SegmentOpLineTo:
			seg.Op = model.SegmentLineTo
		case sfnt.SegmentOpQuadTo:
			seg.Op = model.SegmentQuadTo
		case sfnt.SegmentOpCubeTo:
			seg.Op = model.SegmentCubeTo
		}
		for j, p := range s.Args {
			seg.Pts[j] = model.Point{
				X: float64(p.X) / 64 / outlineScale,
				Y: -float64(p.Y) / 64 / outlineScale,
			}
		}
		out[i] = seg
	}
	return out
}

// stripSubset removes the "ABCDEF+" prefix of a subset font name.
func stripSubset(name string) string {
	if len(name) > 7 && name[6] == '+' && strings.ToUpper(name[:6]) == name[:6] {
		return name[7:]
	}
	return name
}

var goFonts = [8][]byte{
	goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF,
	gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF,
}

var goFaces [8]func() (*sfnt.Font, error)

func init() {
	for i := range goFonts {
		ttf := goFonts[i]
		goFaces[i] = sync.OnceValues(func() (*sfnt.Font, error) { return sfnt.Parse(ttf) })
	}
}

// fallbackFace picks the Go font closest in weight, slant and pitch.
func fallbackFace(baseFont string, flags int) *sfnt.Font {
	name := strings.ToLower(stripSubset(baseFont))
	hasAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(name, w) {
				return true
			}
		}
		return false
	}
	i := 0
	if flags&FlagForceBold != 0 || hasAny("bold", "black", "heavy", "semibold", "demi") {
		i |= 1
	}
	if flags&FlagItalic != 0 || hasAny("italic", "oblique") {
		i |= 2
	}
	if flags&FlagFixedPitch != 0 || hasAny("courier", "mono", "consol") {
		i |= 4
	}
	face, err := goFaces[i]()
	if err != nil {
		return nil
	}
	return face
}
