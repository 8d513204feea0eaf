package reader

import (
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/figura/font"
	"github.com/tsawler/figura/model"
)

// fontKey identifies a cached font by object number.
type fontKey int

// Font is a resolved /Font resource. Exactly one of Glyphs and Type3 is
// set.
type Font struct {
	BaseFont string
	Subtype  string
	Glyphs   *font.Font
	Type3    *Type3Font
}

// Codes splits a shown string into character codes.
func (f *Font) Codes(b []byte) []uint32 {
	if f.Glyphs != nil {
		return f.Glyphs.Codes(b)
	}
	out := make([]uint32, len(b))
	for i, c := range b {
		out[i] = uint32(c)
	}
	return out
}

// Width returns the advance of code in text space units at font size 1.
func (f *Font) Width(code uint32) float64 {
	if f.Glyphs != nil {
		return f.Glyphs.Width(code)
	}
	return f.Type3.Width(code)
}

// WordSpace reports whether word spacing applies after code.
func (f *Font) WordSpace(code uint32) bool {
	if f.Glyphs != nil {
		return f.Glyphs.WordSpace(code)
	}
	return code == ' '
}

// Type3Font draws glyphs with content streams.
type Type3Font struct {
	// Matrix maps glyph space to text space.
	Matrix    model.Matrix
	Resources types.Dict
	FirstChar int
	Widths    []float64

	doc   *Document
	procs map[uint32]types.Object

	mu     sync.Mutex
	glyphs map[uint32]*Form
}

// Width returns the advance of code in text space units at font size 1.
func (t *Type3Font) Width(code uint32) float64 {
	i := int(code) - t.FirstChar
	if i < 0 || i >= len(t.Widths) {
		return 0
	}
	return t.Matrix.Transform(model.Point{X: t.Widths[i]}).X - t.Matrix.Transform(model.Point{}).X
}

// Glyph returns the glyph procedure of code as a form in glyph space. The
// second result is false when the font has no procedure for code.
func (t *Type3Font) Glyph(code uint32) (*Form, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if g, ok := t.glyphs[code]; ok {
		return g, g != nil, nil
	}
	proc, ok := t.procs[code]
	if !ok {
		t.glyphs[code] = nil
		return nil, false, nil
	}
	s, err := t.doc.Stream(proc)
	if err != nil {
		return nil, false, fmt.Errorf("glyph %d: %w", code, err)
	}
	g := &Form{
		ObjectNumber: s.ObjectNumber,
		Matrix:       model.Identity(),
		Resources:    t.Resources,
		Content:      s.Data,
	}
	t.glyphs[code] = g
	return g, true, nil
}

// Font resolves the named entry of the resource dictionary's /Font
// category. Fonts are cached per object.
func (d *Document) Font(resources types.Dict, name string) (*Font, error) {
	entry, err := d.Resource(resources, "Font", name)
	if err != nil {
		return nil, err
	}
	key := fontKey(objectNumber(entry))
	if key > 0 {
		d.mu.Lock()
		f, ok := d.fonts[key]
		d.mu.Unlock()
		if ok {
			return f, nil
		}
	}

	dict, err := d.ResolveDict(entry)
	if err != nil || dict == nil {
		return nil, fmt.Errorf("font /%s: invalid font dictionary", name)
	}
	f, err := d.newFont(dict)
	if err != nil {
		return nil, fmt.Errorf("font /%s: %w", name, err)
	}

	if key > 0 {
		d.mu.Lock()
		if cached, ok := d.fonts[key]; ok {
			f = cached
		} else {
			d.fonts[key] = f
		}
		d.mu.Unlock()
	}
	return f, nil
}

func (d *Document) newFont(dict types.Dict) (*Font, error) {
	f := &Font{
		BaseFont: d.name(dict["BaseFont"]),
		Subtype:  d.name(dict["Subtype"]),
	}
	if f.Subtype == "Type3" {
		t3, err := d.type3(dict)
		if err != nil {
			return nil, err
		}
		f.Type3 = t3
		return f, nil
	}

	desc := font.Descriptor{Subtype: f.Subtype, BaseFont: f.BaseFont}
	if obj, ok := dict.Find("ToUnicode"); ok {
		if s, err := d.Stream(obj); err == nil {
			desc.ToUnicode = s.Data
		}
	}

	if f.Subtype == "Type0" {
		d.compositeFont(dict, &desc)
	} else {
		desc.FirstChar, _ = d.Int(dict["FirstChar"])
		desc.Widths, _ = d.Numbers(dict["Widths"])
		desc.Encoding, desc.Differences = d.encoding(dict["Encoding"])
		d.fontDescriptor(dict["FontDescriptor"], &desc)
	}

	f.Glyphs = font.New(desc)
	return f, nil
}

// compositeFont fills desc from a Type 0 font and its descendant. Codes
// are read as two-byte CIDs, which is what the Identity-H encoding writers
// use for embedded subsets.
func (d *Document) compositeFont(dict types.Dict, desc *font.Descriptor) {
	desc.Composite = true
	arr, err := d.Resolve(dict["DescendantFonts"])
	if err != nil {
		return
	}
	fonts, ok := arr.(types.Array)
	if !ok || len(fonts) == 0 {
		return
	}
	cid, err := d.ResolveDict(fonts[0])
	if err != nil || cid == nil {
		return
	}

	if dw, ok := d.Number(cid["DW"]); ok {
		desc.DefaultWidth = dw
	}
	desc.CIDWidths = d.cidWidths(cid["W"])

	if m, ok := cid.Find("CIDToGIDMap"); ok && d.name(m) == "" {
		if s, err := d.Stream(m); err == nil {
			desc.CIDToGID = s.Data
		}
	}
	d.fontDescriptor(cid["FontDescriptor"], desc)
}

// cidWidths reads a /W array: "c [w1 w2 ...]" lists widths from c on,
// "c1 c2 w" gives every CID in the range the same width.
func (d *Document) cidWidths(obj types.Object) map[uint32]float64 {
	resolved, err := d.Resolve(obj)
	if err != nil {
		return nil
	}
	arr, ok := resolved.(types.Array)
	if !ok {
		return nil
	}
	widths := make(map[uint32]float64)
	for i := 0; i < len(arr); {
		first, ok := d.Int(arr[i])
		if !ok || i+1 >= len(arr) {
			break
		}
		if list, ok := d.Numbers(arr[i+1]); ok {
			for j, w := range list {
				widths[uint32(first+j)] = w
			}
			i += 2
			continue
		}
		if i+2 >= len(arr) {
			break
		}
		last, ok1 := d.Int(arr[i+1])
		w, ok2 := d.Number(arr[i+2])
		if !ok1 || !ok2 || last < first || last-first > 0xffff {
			break
		}
		for c := first; c <= last; c++ {
			widths[uint32(c)] = w
		}
		i += 3
	}
	return widths
}

// fontDescriptor reads flags, the missing width and an embedded program
// sfnt can parse: FontFile2 (TrueType) or an OpenType FontFile3. Type 1
// and bare CFF programs are left to the fallback face.
func (d *Document) fontDescriptor(obj types.Object, desc *font.Descriptor) {
	fd, err := d.ResolveDict(obj)
	if err != nil || fd == nil {
		return
	}
	desc.Flags, _ = d.Int(fd["Flags"])
	desc.MissingWidth, _ = d.Number(fd["MissingWidth"])

	program, ok := fd.Find("FontFile2")
	if !ok {
		ff3, found := fd.Find("FontFile3")
		if !found {
			return
		}
		sd, _, err := d.streamDict(ff3)
		if err != nil || d.name(sd.Dict["Subtype"]) != "OpenType" {
			return
		}
		program = ff3
	}
	if s, err := d.Stream(program); err == nil {
		desc.Program = s.Data
	}
}

// encoding reads a simple font's /Encoding: a name, or a dictionary with
// a /BaseEncoding and /Differences.
func (d *Document) encoding(obj types.Object) (string, map[int]string) {
	resolved, err := d.Resolve(obj)
	if err != nil {
		return "", nil
	}
	switch v := resolved.(type) {
	case types.Name:
		return string(v), nil
	case types.Dict:
		return d.name(v["BaseEncoding"]), d.differences(v["Differences"])
	}
	return "", nil
}

func (d *Document) differences(obj types.Object) map[int]string {
	resolved, err := d.Resolve(obj)
	if err != nil {
		return nil
	}
	arr, ok := resolved.(types.Array)
	if !ok {
		return nil
	}
	diffs := make(map[int]string)
	code := 0
	for _, e := range arr {
		e, _ = d.Resolve(e)
		switch v := e.(type) {
		case types.Integer:
			code = int(v)
		case types.Name:
			diffs[code] = string(v)
			code++
		}
	}
	return diffs
}

func (d *Document) type3(dict types.Dict) (*Type3Font, error) {
	t := &Type3Font{
		Matrix: model.Matrix{0.001, 0, 0, 0.001, 0, 0},
		doc:    d,
		procs:  make(map[uint32]types.Object),
		glyphs: make(map[uint32]*Form),
	}
	if v, ok := d.Numbers(dict["FontMatrix"]); ok && len(v) == 6 {
		t.Matrix = model.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
	}
	t.FirstChar, _ = d.Int(dict["FirstChar"])
	t.Widths, _ = d.Numbers(dict["Widths"])
	if res, err := d.ResolveDict(dict["Resources"]); err == nil {
		t.Resources = res
	}

	procs, err := d.ResolveDict(dict["CharProcs"])
	if err != nil || procs == nil {
		return nil, fmt.Errorf("type 3 font without /CharProcs")
	}
	enc, _ := d.ResolveDict(dict["Encoding"])
	for code, glyph := range d.differences(enc["Differences"]) {
		if proc, ok := procs.Find(glyph); ok && code >= 0 {
			t.procs[uint32(code)] = proc
		}
	}
	return t, nil
}

// name resolves obj to a name, or "".
func (d *Document) name(obj types.Object) string {
	resolved, err := d.Resolve(obj)
	if err != nil {
		return ""
	}
	if n, ok := resolved.(types.Name); ok {
		return string(n)
	}
	return ""
}

func objectNumber(obj types.Object) int {
	switch v := obj.(type) {
	case types.IndirectRef:
		return v.ObjectNumber.Value()
	case *types.IndirectRef:
		if v != nil {
			return v.ObjectNumber.Value()
		}
	}
	return 0
}
