// Package pdftest builds small PDF documents for tests. Objects are
// written as raw PDF syntax and the cross-reference table is computed, so
// the output opens with strict readers.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Builder collects numbered objects.
type Builder struct {
	objects []string
}

// Reserve allocates an object number whose body is supplied later with
// Set.
func (b *Builder) Reserve() int {
	b.objects = append(b.objects, "null")
	return len(b.objects)
}

// Set replaces the body of object num.
func (b *Builder) Set(num int, body string) {
	b.objects[num-1] = body
}

// Add appends an object and returns its number.
func (b *Builder) Add(body string) int {
	b.objects = append(b.objects, body)
	return len(b.objects)
}

// AddStream appends a stream object. dict holds extra entries without the
// enclosing << >>; /Length is added.
func (b *Builder) AddStream(dict string, data []byte) int {
	return b.Add(stream(dict, data))
}

// AddFlateStream compresses data and appends it with /Filter /FlateDecode.
func (b *Builder) AddFlateStream(dict string, data []byte) int {
	return b.AddStream(strings.TrimSpace(dict+" /Filter /FlateDecode"), Deflate(data))
}

func stream(dict string, data []byte) string {
	var s strings.Builder
	fmt.Fprintf(&s, "<< %s /Length %d >>\nstream\n", dict, len(data))
	s.Write(data)
	s.WriteString("\nendstream")
	return s.String()
}

// Bytes serializes the document with root as the catalog.
func (b *Builder) Bytes(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(b.objects))
	for i, body := range b.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(b.objects)+1, root, xref)
	return buf.Bytes()
}

// Ref formats an indirect reference.
func Ref(num int) string {
	return fmt.Sprintf("%d 0 R", num)
}

// Deflate zlib-compresses data.
func Deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// Page describes one page for Doc.
type Page struct {
	// MediaBox defaults to US Letter.
	MediaBox  string
	Resources string
	Content   string
	// Compress stores the content stream with FlateDecode.
	Compress bool
}

// Doc is a Builder with a single flat page tree.
type Doc struct {
	Builder
	pagesNum int
	kids     []int
}

// NewDoc starts a document.
func NewDoc() *Doc {
	d := &Doc{}
	d.pagesNum = d.Reserve()
	return d
}

// AddPage appends a page and returns its object number.
func (d *Doc) AddPage(p Page) int {
	var content int
	if p.Compress {
		content = d.AddFlateStream("", []byte(p.Content))
	} else {
		content = d.AddStream("", []byte(p.Content))
	}

	mb := p.MediaBox
	if mb == "" {
		mb = "[0 0 612 792]"
	}
	res := p.Resources
	if res == "" {
		res = "<< >>"
	}

	num := d.Add(fmt.Sprintf("<< /Type /Page /Parent %s /MediaBox %s /Resources %s /Contents %s >>",
		Ref(d.pagesNum), mb, res, Ref(content)))
	d.kids = append(d.kids, num)
	return num
}

// Image appends a Flate-compressed image XObject.
func (d *Doc) Image(width, height int, colorSpace string, bpc int, data []byte) int {
	return d.AddFlateStream(fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace %s /BitsPerComponent %d",
		width, height, colorSpace, bpc), data)
}

// Form appends a form XObject.
func (d *Doc) Form(bbox, matrix, resources, content string) int {
	dict := "/Type /XObject /Subtype /Form /BBox " + bbox
	if matrix != "" {
		dict += " /Matrix " + matrix
	}
	if resources != "" {
		dict += " /Resources " + resources
	}
	return d.AddStream(dict, []byte(content))
}

// Bytes finishes the page tree and catalog and serializes the document.
func (d *Doc) Bytes() []byte {
	kids := make([]string, len(d.kids))
	for i, k := range d.kids {
		kids[i] = Ref(k)
	}
	d.Set(d.pagesNum, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(d.kids)))
	catalog := d.Add(fmt.Sprintf("<< /Type /Catalog /Pages %s >>", Ref(d.pagesNum)))
	out := d.Builder.Bytes(catalog)
	// Bytes may be called again after more pages are added.
	d.objects = d.objects[:catalog-1]
	return out
}

// WriteFile writes data to a temporary file and returns its path.
func WriteFile(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.pdf")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to create temp PDF: %v", err)
	}
	return path
}

// Solid returns width*height pixels of one RGB color.
func Solid(width, height int, r, g, b byte) []byte {
	out := make([]byte, 0, width*height*3)
	for i := 0; i < width*height; i++ {
		out = append(out, r, g, b)
	}
	return out
}

// Gradient returns an RGB image whose color varies across both axes, so
// that perceptual hashes of different sizes and offsets differ.
func Gradient(width, height int, seed byte) []byte {
	out := make([]byte, 0, width*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out = append(out,
				byte(x*255/max(width, 1))+seed,
				byte(y*255/max(height, 1)),
				byte((x*y)%251)^seed)
		}
	}
	return out
}
