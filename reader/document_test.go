package reader

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"sync"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/figura/internal/pdftest"
	"github.com/tsawler/figura/model"
)

func openDoc(t *testing.T, d *pdftest.Doc) *Document {
	t.Helper()
	doc, err := OpenBytes(d.Bytes())
	require.NoError(t, err)
	t.Cleanup(func() { doc.Close() })
	return doc
}

func TestOpen(t *testing.T) {
	d := pdftest.NewDoc()
	d.AddPage(pdftest.Page{Content: "0 0 m 10 10 l S"})
	path := pdftest.WriteFile(t, d.Bytes())

	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()

	assert.NotNil(t, doc.file)
	assert.Equal(t, 1, doc.PageCount())
	assert.NoError(t, doc.Close())
	assert.Nil(t, doc.file)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open("/nonexistent/file.pdf")
	assert.Error(t, err)
}

func TestOpenGarbage(t *testing.T) {
	_, err := OpenBytes([]byte("this is not a PDF"))
	assert.Error(t, err)
}

func TestPageContentJoinsStreams(t *testing.T) {
	d := pdftest.NewDoc()
	first := d.AddStream("", []byte("q 1 0 0 1 5 5 cm"))
	second := d.AddFlateStream("", []byte("0 0 10 10 re f Q"))
	pagesRef := pdftest.Ref(1)
	page := d.Add(fmt.Sprintf("<< /Type /Page /Parent %s /MediaBox [0 0 200 100] /Contents [%s %s] >>",
		pagesRef, pdftest.Ref(first), pdftest.Ref(second)))
	d.Set(1, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count 1 >>", pdftest.Ref(page)))
	catalog := d.Add("<< /Type /Catalog /Pages 1 0 R >>")

	doc, err := OpenBytes(d.Builder.Bytes(catalog))
	require.NoError(t, err)

	p, err := doc.Page(0)
	require.NoError(t, err)
	assert.Equal(t, model.Box{X0: 0, Y0: 0, X1: 200, Y1: 100}, p.MediaBox())

	content, err := doc.PageContent(p)
	require.NoError(t, err)
	assert.Equal(t, "q 1 0 0 1 5 5 cm\n0 0 10 10 re f Q\n", string(content))
}

func TestImageXObject(t *testing.T) {
	d := pdftest.NewDoc()
	img := d.Image(4, 2, "/DeviceRGB", 8, pdftest.Solid(4, 2, 255, 0, 0))
	d.AddPage(pdftest.Page{
		Resources: fmt.Sprintf("<< /XObject << /Im1 %s >> >>", pdftest.Ref(img)),
		Content:   "q 100 0 0 50 10 10 cm /Im1 Do Q",
	})
	doc := openDoc(t, d)

	p, err := doc.Page(0)
	require.NoError(t, err)
	res, err := p.Resources()
	require.NoError(t, err)

	x, err := doc.XObject(res, "Im1")
	require.NoError(t, err)
	require.Equal(t, XObjectImage, x.Kind)

	w, h := x.Image.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, fmt.Sprintf("obj-%d", img), x.Image.ID())

	decoded, err := x.Image.Image()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), decoded.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, color.NRGBAModel.Convert(decoded.At(3, 1)))

	again, err := doc.XObject(res, "Im1")
	require.NoError(t, err)
	assert.Same(t, x.Image, again.Image, "placements should share one resource")
}

func TestImageConcurrentDecode(t *testing.T) {
	d := pdftest.NewDoc()
	img := d.Image(8, 8, "/DeviceGray", 8, bytes.Repeat([]byte{0x80}, 64))
	d.AddPage(pdftest.Page{Resources: fmt.Sprintf("<< /XObject << /Im1 %s >> >>", pdftest.Ref(img))})
	doc := openDoc(t, d)

	p, _ := doc.Page(0)
	res, _ := p.Resources()

	var wg sync.WaitGroup
	results := make([]image.Image, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x, err := doc.XObject(res, "Im1")
			if err != nil {
				return
			}
			results[i], _ = x.Image.Image()
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Same(t, results[0], r)
	}
}

func TestMissingXObject(t *testing.T) {
	d := pdftest.NewDoc()
	d.AddPage(pdftest.Page{})
	doc := openDoc(t, d)

	p, _ := doc.Page(0)
	res, _ := p.Resources()
	_, err := doc.XObject(res, "Nope")
	assert.Error(t, err)
}

func TestFormXObject(t *testing.T) {
	d := pdftest.NewDoc()
	form := d.Form("[0 0 50 50]", "[2 0 0 2 10 20]", "<< >>", "0 0 50 50 re f")
	d.AddPage(pdftest.Page{
		Resources: fmt.Sprintf("<< /XObject << /Fm1 %s >> >>", pdftest.Ref(form)),
		Content:   "/Fm1 Do",
	})
	doc := openDoc(t, d)

	p, _ := doc.Page(0)
	res, _ := p.Resources()
	x, err := doc.XObject(res, "Fm1")
	require.NoError(t, err)
	require.Equal(t, XObjectForm, x.Kind)

	f := x.Form
	assert.Equal(t, model.Matrix{2, 0, 0, 2, 10, 20}, f.Matrix)
	assert.True(t, f.HasBBox)
	assert.Equal(t, model.Box{X0: 0, Y0: 0, X1: 50, Y1: 50}, f.BBox)
	assert.Equal(t, "0 0 50 50 re f", string(f.Content))
	assert.NotNil(t, f.Resources)
}

func TestIndexedImage(t *testing.T) {
	d := pdftest.NewDoc()
	palette := d.AddStream("", []byte{0, 0, 255, 0, 255, 0})
	img := d.Image(2, 1, fmt.Sprintf("[/Indexed /DeviceRGB 1 %s]", pdftest.Ref(palette)), 8, []byte{0, 1})
	d.AddPage(pdftest.Page{Resources: fmt.Sprintf("<< /XObject << /Im1 %s >> >>", pdftest.Ref(img))})
	doc := openDoc(t, d)

	p, _ := doc.Page(0)
	res, _ := p.Resources()
	x, err := doc.XObject(res, "Im1")
	require.NoError(t, err)

	decoded, err := x.Image.Image()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, color.NRGBAModel.Convert(decoded.At(0, 0)))
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, color.NRGBAModel.Convert(decoded.At(1, 0)))
}

func TestImageMask(t *testing.T) {
	d := pdftest.NewDoc()
	// 10 pixels per row pads to 2 bytes.
	img := d.AddFlateStream("/Type /XObject /Subtype /Image /Width 10 /Height 1 /ImageMask true", []byte{0x0f, 0xff})
	d.AddPage(pdftest.Page{Resources: fmt.Sprintf("<< /XObject << /M %s >> >>", pdftest.Ref(img))})
	doc := openDoc(t, d)

	p, _ := doc.Page(0)
	res, _ := p.Resources()
	x, err := doc.XObject(res, "M")
	require.NoError(t, err)

	decoded, err := x.Image.Image()
	require.NoError(t, err)
	assert.Equal(t, uint8(255), color.NRGBAModel.Convert(decoded.At(0, 0)).(color.NRGBA).A)
	assert.Equal(t, uint8(0), color.NRGBAModel.Convert(decoded.At(4, 0)).(color.NRGBA).A)
}

func TestDCTImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, src, nil))

	d := pdftest.NewDoc()
	img := d.AddStream("/Type /XObject /Subtype /Image /Width 16 /Height 8 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode", jpg.Bytes())
	d.AddPage(pdftest.Page{Resources: fmt.Sprintf("<< /XObject << /J %s >> >>", pdftest.Ref(img))})
	doc := openDoc(t, d)

	p, _ := doc.Page(0)
	res, _ := p.Resources()
	x, err := doc.XObject(res, "J")
	require.NoError(t, err)

	decoded, err := x.Image.Image()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 8), decoded.Bounds())
	c := color.NRGBAModel.Convert(decoded.At(5, 5)).(color.NRGBA)
	assert.Greater(t, c.R, uint8(240))
}

func TestUnsupportedCodec(t *testing.T) {
	d := pdftest.NewDoc()
	img := d.AddStream("/Type /XObject /Subtype /Image /Width 4 /Height 4 /BitsPerComponent 8 /Filter /JPXDecode", []byte("not really jpx"))
	d.AddPage(pdftest.Page{Resources: fmt.Sprintf("<< /XObject << /X %s >> >>", pdftest.Ref(img))})
	doc := openDoc(t, d)

	p, _ := doc.Page(0)
	res, _ := p.Resources()
	x, err := doc.XObject(res, "X")
	require.NoError(t, err, "the placement is still known without decoding")

	w, h := x.Image.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)

	_, err = x.Image.Image()
	assert.ErrorIs(t, err, ErrUnsupportedCodec)
}

func TestSoftMask(t *testing.T) {
	d := pdftest.NewDoc()
	mask := d.Image(2, 1, "/DeviceGray", 8, []byte{0, 255})
	img := d.AddFlateStream(fmt.Sprintf("/Type /XObject /Subtype /Image /Width 2 /Height 1 /ColorSpace /DeviceRGB /BitsPerComponent 8 /SMask %s", pdftest.Ref(mask)),
		pdftest.Solid(2, 1, 10, 20, 30))
	d.AddPage(pdftest.Page{Resources: fmt.Sprintf("<< /XObject << /Im1 %s >> >>", pdftest.Ref(img))})
	doc := openDoc(t, d)

	p, _ := doc.Page(0)
	res, _ := p.Resources()
	x, err := doc.XObject(res, "Im1")
	require.NoError(t, err)

	decoded, err := x.Image.Image()
	require.NoError(t, err)
	assert.Equal(t, uint8(0), color.NRGBAModel.Convert(decoded.At(0, 0)).(color.NRGBA).A)
	assert.Equal(t, uint8(255), color.NRGBAModel.Convert(decoded.At(1, 0)).(color.NRGBA).A)
}

func TestInlineImage(t *testing.T) {
	d := pdftest.NewDoc()
	d.AddPage(pdftest.Page{Resources: "<< /ColorSpace << /CS0 /DeviceGray >> >>"})
	doc := openDoc(t, d)

	p, _ := doc.Page(0)
	res, _ := p.Resources()

	dict := types.Dict{
		"Width":            types.Integer(2),
		"Height":           types.Integer(1),
		"ColorSpace":       types.Name("CS0"),
		"BitsPerComponent": types.Integer(8),
	}
	img, err := doc.NewInlineImage(dict, []byte{0, 255}, res, "inline-0-1")
	require.NoError(t, err)
	assert.Equal(t, "inline-0-1", img.ID())

	decoded, err := img.Image()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, color.NRGBAModel.Convert(decoded.At(1, 0)))
}

func TestInlineIndexedString(t *testing.T) {
	d := pdftest.NewDoc()
	d.AddPage(pdftest.Page{})
	doc := openDoc(t, d)

	dict := types.Dict{
		"Width":            types.Integer(1),
		"Height":           types.Integer(1),
		"BitsPerComponent": types.Integer(8),
		"ColorSpace": types.Array{
			types.Name("Indexed"), types.Name("DeviceRGB"), types.Integer(0),
			types.StringLiteral(string([]byte{0xff, 0x80, 0x00})),
		},
	}
	img, err := doc.NewInlineImage(dict, []byte{0}, nil, "inline")
	require.NoError(t, err)

	decoded, err := img.Image()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 128, A: 255}, color.NRGBAModel.Convert(decoded.At(0, 0)))
}

func TestImageTooLarge(t *testing.T) {
	r := &ImageResource{Width: 1 << 14, Height: 1 << 14, BitsPerComponent: 8, ColorSpace: deviceGray}
	_, err := r.Image()
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestSample(t *testing.T) {
	row := []byte{0b10110100, 0x12, 0x34}
	assert.Equal(t, 1, sample(row, 0, 1))
	assert.Equal(t, 0, sample(row, 1, 1))
	assert.Equal(t, 0b10, sample(row, 0, 2))
	assert.Equal(t, 0b0100, sample(row, 1, 4))
	assert.Equal(t, 0x1234, sample(row[1:], 0, 16))
}

func TestWarningsNotFatal(t *testing.T) {
	d := pdftest.NewDoc()
	d.AddPage(pdftest.Page{Content: "BT (hello) Tj ET"})
	doc := openDoc(t, d)
	for _, w := range doc.Warnings() {
		assert.True(t, strings.HasPrefix(w, "validation:"))
	}
}

func TestImageDecodedOnFirstUse(t *testing.T) {
	d := pdftest.NewDoc()
	img := d.AddStream("/Type /XObject /Subtype /Image /Width 2 /Height 2 /ColorSpace /DeviceGray /BitsPerComponent 8 /Filter /FlateDecode",
		[]byte("not zlib data"))
	d.AddPage(pdftest.Page{Resources: fmt.Sprintf("<< /XObject << /Im1 %s >> >>", pdftest.Ref(img))})
	doc := openDoc(t, d)

	p, _ := doc.Page(0)
	res, _ := p.Resources()

	// Resolving the image only reads its dictionary.
	x, err := doc.XObject(res, "Im1")
	require.NoError(t, err)

	_, err = x.Image.Image()
	assert.Error(t, err)
}

func TestImageDecompressionCapped(t *testing.T) {
	// A 1x1 image whose stream inflates to 16 MiB.
	d := pdftest.NewDoc()
	img := d.Image(1, 1, "/DeviceGray", 8, make([]byte, 16<<20))
	d.AddPage(pdftest.Page{Resources: fmt.Sprintf("<< /XObject << /Im1 %s >> >>", pdftest.Ref(img))})
	doc := openDoc(t, d)

	p, _ := doc.Page(0)
	res, _ := p.Resources()
	x, err := doc.XObject(res, "Im1")
	require.NoError(t, err)

	_, err = x.Image.Image()
	assert.ErrorIs(t, err, ErrStreamTooLarge)
}

func TestContentStreamCapped(t *testing.T) {
	d := pdftest.NewDoc()
	d.AddPage(pdftest.Page{Content: strings.Repeat(" ", 4<<20) + "0 0 10 10 re f", Compress: true})

	doc, err := OpenBytes(d.Bytes(), WithMaxStreamSize(1<<20))
	require.NoError(t, err)
	defer doc.Close()

	p, err := doc.Page(0)
	require.NoError(t, err)
	_, err = doc.PageContent(p)
	assert.ErrorIs(t, err, ErrStreamTooLarge)
}
