package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/figura/internal/filters"
	"github.com/tsawler/figura/pages"
)

// DefaultMaxStreamSize bounds the decoded size of a single content stream,
// form or font program.
const DefaultMaxStreamSize = 256 << 20

var (
	// ErrNoPages is returned when the document has no page tree.
	ErrNoPages = errors.New("document has no page tree")
	// ErrStreamTooLarge is returned when a stream decodes to more bytes
	// than allowed.
	ErrStreamTooLarge = filters.ErrLimitExceeded
)

// Document is an opened PDF. The object table is read once and then only
// read; the decoded image cache is the only shared mutable state.
type Document struct {
	ctx      *pdfmodel.Context
	tree     *pages.PageTree
	file     io.Closer
	warnings []string

	maxStream int64

	mu     sync.Mutex
	images map[int]*ImageResource
	fonts  map[fontKey]*Font
}

// Option configures a Document.
type Option func(*Document)

// WithMaxStreamSize caps the decoded size of content streams, forms and
// font programs. Image data is capped by the declared image size instead.
func WithMaxStreamSize(n int64) Option {
	return func(d *Document) {
		if n > 0 {
			d.maxStream = n
		}
	}
}

// Ensure Document implements pages.ObjectResolver
var _ pages.ObjectResolver = (*Document)(nil)

// Open opens a PDF file. The file stays open until Close because pdfcpu
// loads some objects lazily.
func Open(path string, opts ...Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	doc, err := NewDocument(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	doc.file = f
	return doc, nil
}

// OpenBytes opens a PDF held in memory.
func OpenBytes(data []byte, opts ...Option) (*Document, error) {
	return NewDocument(bytes.NewReader(data), opts...)
}

// NewDocument reads a PDF from rs. Reading or locating the page tree fails
// the call; failed validation is recorded as a warning, since many real
// documents bend the rules in ways that do not affect their pages.
func NewDocument(rs io.ReadSeeker, opts ...Option) (*Document, error) {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	doc := &Document{
		ctx:       ctx,
		maxStream: DefaultMaxStreamSize,
		images:    make(map[int]*ImageResource),
		fonts:     make(map[fontKey]*Font),
	}
	for _, opt := range opts {
		opt(doc)
	}

	if err := api.ValidateContext(ctx); err != nil {
		doc.warnings = append(doc.warnings, fmt.Sprintf("validation: %v", err))
	}

	root, err := doc.pageTreeRoot()
	if err != nil {
		return nil, err
	}
	doc.tree = pages.NewPageTree(root, doc)
	if _, err := doc.tree.Count(); err != nil {
		return nil, err
	}

	return doc, nil
}

func (d *Document) pageTreeRoot() (types.Dict, error) {
	catalog := d.ctx.RootDict
	if catalog == nil && d.ctx.Root != nil {
		obj, err := d.ctx.Dereference(*d.ctx.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve catalog: %w", err)
		}
		catalog, _ = obj.(types.Dict)
	}
	if catalog == nil {
		return nil, fmt.Errorf("missing catalog: %w", ErrNoPages)
	}

	pagesObj, ok := catalog.Find("Pages")
	if !ok {
		return nil, ErrNoPages
	}
	dict, err := d.ResolveDict(pagesObj)
	if err != nil || dict == nil {
		return nil, fmt.Errorf("invalid /Pages: %w", ErrNoPages)
	}
	return dict, nil
}

// Close releases the underlying file, if any.
func (d *Document) Close() error {
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}

// Warnings returns problems found while opening that did not stop the
// document from being read.
func (d *Document) Warnings() []string {
	return d.warnings
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	n, err := d.tree.Count()
	if err != nil {
		return 0
	}
	return n
}

// Page returns the page at the given 0-based index.
func (d *Document) Page(index int) (*pages.Page, error) {
	return d.tree.GetPage(index)
}

// Resolve dereferences obj when it is an indirect reference.
func (d *Document) Resolve(obj types.Object) (types.Object, error) {
	switch v := obj.(type) {
	case types.IndirectRef:
		return d.ctx.Dereference(v)
	case *types.IndirectRef:
		if v == nil {
			return nil, nil
		}
		return d.ctx.Dereference(*v)
	}
	return obj, nil
}

// ResolveDict resolves obj and returns it as a dictionary. Stream
// dictionaries yield their dictionary part. A nil result with a nil error
// means the object was null.
func (d *Document) ResolveDict(obj types.Object) (types.Dict, error) {
	resolved, err := d.Resolve(obj)
	if err != nil {
		return nil, err
	}
	switch v := resolved.(type) {
	case nil:
		return nil, nil
	case types.Dict:
		return v, nil
	case types.StreamDict:
		return v.Dict, nil
	case *types.StreamDict:
		return v.Dict, nil
	}
	return nil, fmt.Errorf("expected dictionary, got %T", resolved)
}

// Resource looks up name in the given resource category (XObject,
// ExtGState, ColorSpace, ...) and returns the unresolved entry.
func (d *Document) Resource(resources types.Dict, category, name string) (types.Object, error) {
	if resources == nil {
		return nil, fmt.Errorf("no resources for %s /%s", category, name)
	}
	catObj, ok := resources.Find(category)
	if !ok {
		return nil, fmt.Errorf("no %s resources", category)
	}
	cat, err := d.ResolveDict(catObj)
	if err != nil || cat == nil {
		return nil, fmt.Errorf("invalid %s resources", category)
	}
	entry, ok := cat.Find(name)
	if !ok {
		return nil, fmt.Errorf("%s /%s not found", category, name)
	}
	return entry, nil
}

// PageContent decodes and concatenates the page's content streams.
// Streams that fail to decode are skipped and reported in the error; the
// bytes of the others are still returned.
func (d *Document) PageContent(p *pages.Page) ([]byte, error) {
	contents, err := p.Contents()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	var errs []error
	for i, obj := range contents {
		s, err := d.Stream(obj)
		if err != nil {
			errs = append(errs, fmt.Errorf("content stream %d: %w", i, err))
			continue
		}
		if len(s.Pending) > 0 {
			errs = append(errs, fmt.Errorf("content stream %d: image filter %s on content", i, s.Pending[0].Name))
			continue
		}
		buf.Write(s.Data)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), errors.Join(errs...)
}

// Number resolves obj and returns it as a float64.
func (d *Document) Number(obj types.Object) (float64, bool) {
	resolved, err := d.Resolve(obj)
	if err != nil {
		return 0, false
	}
	switch v := resolved.(type) {
	case types.Integer:
		return float64(v), true
	case types.Float:
		return float64(v), true
	}
	return 0, false
}

// Int resolves obj and returns it as an int.
func (d *Document) Int(obj types.Object) (int, bool) {
	resolved, err := d.Resolve(obj)
	if err != nil {
		return 0, false
	}
	switch v := resolved.(type) {
	case types.Integer:
		return int(v), true
	case types.Float:
		return int(v), true
	}
	return 0, false
}

// Numbers resolves an array of numbers.
func (d *Document) Numbers(obj types.Object) ([]float64, bool) {
	resolved, err := d.Resolve(obj)
	if err != nil {
		return nil, false
	}
	arr, ok := resolved.(types.Array)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(arr))
	for i, e := range arr {
		v, ok := d.Number(e)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
