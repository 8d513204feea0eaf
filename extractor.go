package figura

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tsawler/figura/config"
	"github.com/tsawler/figura/model"
	"github.com/tsawler/figura/reader"
	"github.com/tsawler/figura/render"
)

// Result is the outcome of one extraction run.
type Result struct {
	// RunID identifies the run in logs and exported archives.
	RunID uuid.UUID
	// Figures are ordered by page, then top-to-bottom and left-to-right.
	Figures []model.FigureRecord
	// Warnings lists problems that did not stop the run.
	Warnings []Warning
	// Pages is the number of pages processed.
	Pages int
	// Duplicates is the number of figures removed as duplicates.
	Duplicates int
}

// Extractor provides a fluent interface for extracting figures from PDFs.
// Each configuration method returns a new Extractor instance, making it
// safe for concurrent use and allowing method chaining.
type Extractor struct {
	// Source
	filename string

	// Document
	doc *reader.Document

	// Lifecycle
	ownsDoc   bool // true if we opened the document and should close it
	docOpened bool // true if the document has been opened

	// Configuration
	options ExtractOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
// This ensures immutability - each chain method returns a new instance.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		filename:  e.filename,
		doc:       e.doc,
		ownsDoc:   e.ownsDoc,
		docOpened: e.docOpened,
		options:   e.options.clone(),
		err:       e.err,
	}
}

// ensureDocument opens the document if not already open.
func (e *Extractor) ensureDocument() error {
	if e.docOpened {
		return nil
	}
	if e.filename == "" {
		return fmt.Errorf("%w: no filename specified", ErrUnreadableDocument)
	}

	doc, err := reader.Open(e.filename, reader.WithMaxStreamSize(e.options.engine.MaxStreamBytes))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreadableDocument, err)
	}
	e.doc = doc
	e.ownsDoc = true
	e.docOpened = true
	return nil
}

// Close releases resources associated with the Extractor.
// It is safe to call Close multiple times.
func (e *Extractor) Close() error {
	if e.ownsDoc && e.doc != nil {
		err := e.doc.Close()
		e.doc = nil
		e.ownsDoc = false
		e.docOpened = false
		return err
	}
	return nil
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// Pages specifies which pages to extract from (1-indexed).
// Multiple calls are cumulative.
//
// Example:
//
//	res, err := figura.Open("doc.pdf").Pages(1, 3, 5).Figures(ctx)
func (e *Extractor) Pages(pages ...int) *Extractor {
	newExt := e.clone()
	newExt.options.pages = append(newExt.options.pages, pages...)
	return newExt
}

// PageRange specifies a range of pages to extract (1-indexed, inclusive).
//
// Example:
//
//	res, err := figura.Open("doc.pdf").PageRange(5, 10).Figures(ctx)
func (e *Extractor) PageRange(start, end int) *Extractor {
	newExt := e.clone()
	for i := start; i <= end; i++ {
		newExt.options.pages = append(newExt.options.pages, i)
	}
	return newExt
}

// DPI sets the target output resolution.
//
// Example:
//
//	res, err := figura.Open("doc.pdf").DPI(300).Figures(ctx)
func (e *Extractor) DPI(dpi float64) *Extractor {
	newExt := e.clone()
	if dpi <= 0 {
		newExt.err = fmt.Errorf("invalid DPI %g", dpi)
		return newExt
	}
	newExt.options.policy.DPI = dpi
	if newExt.options.policy.MinDPI > dpi {
		newExt.options.policy.MinDPI = dpi
	}
	return newExt
}

// CrossPageDedup collapses identical figures on different pages, keeping
// the first occurrence.
func (e *Extractor) CrossPageDedup() *Extractor {
	newExt := e.clone()
	newExt.options.engine.CrossPageDedup = true
	return newExt
}

// WithLogger sets the logger. The default discards everything.
func (e *Extractor) WithLogger(logger zerolog.Logger) *Extractor {
	newExt := e.clone()
	newExt.options.logger = logger
	return newExt
}

// WithConfig replaces the detection thresholds, pipeline settings and
// resolution policy with those of cfg.
func (e *Extractor) WithConfig(cfg *config.Config) *Extractor {
	newExt := e.clone()
	if err := cfg.Validate(); err != nil {
		newExt.err = fmt.Errorf("invalid configuration: %w", err)
		return newExt
	}
	newExt.options.engine = cfg.Engine
	newExt.options.policy = cfg.Render.Policy()
	newExt.options.backend = cfg.Render.Backend
	return newExt
}

// Timeout sets the time budget of each page in each pipeline phase.
func (e *Extractor) Timeout(d time.Duration) *Extractor {
	newExt := e.clone()
	newExt.options.engine.PageTimeout = d
	return newExt
}

// Workers sets how many pages are processed concurrently.
func (e *Extractor) Workers(n int) *Extractor {
	newExt := e.clone()
	newExt.options.engine.Workers = n
	return newExt
}

// Renderer sets the rasterizer used for figure regions. The default is the
// native renderer, or MuPDF when configured and compiled in.
func (e *Extractor) Renderer(r render.Rasterizer) *Extractor {
	newExt := e.clone()
	newExt.options.renderer = r
	return newExt
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Figures runs the extraction. This is a terminal operation that closes
// the underlying document if the Extractor opened it.
//
// The only error for a readable document is the caller's context being
// canceled; page and region failures are reported as warnings.
//
// Example:
//
//	res, err := figura.Open("document.pdf").Figures(ctx)
func (e *Extractor) Figures(ctx context.Context) (*Result, error) {
	if e.err != nil {
		return nil, e.err
	}

	if err := e.ensureDocument(); err != nil {
		return nil, err
	}
	defer e.Close()

	pageIndices, err := e.resolvePages()
	if err != nil {
		return nil, err
	}

	renderer, closeRenderer := e.renderer()
	defer closeRenderer()

	p := newPipeline(e.doc, e.options, renderer)
	return p.run(ctx, pageIndices)
}

// PageCount returns the number of pages in the document.
// Note: This does NOT close the document, allowing further operations.
//
// Example:
//
//	ext := figura.Open("document.pdf")
//	defer ext.Close()
//	count, err := ext.PageCount()
func (e *Extractor) PageCount() (int, error) {
	if e.err != nil {
		return 0, e.err
	}

	if err := e.ensureDocument(); err != nil {
		return 0, err
	}

	return e.doc.PageCount(), nil
}

// ============================================================================
// Internal helpers
// ============================================================================

// resolvePages converts 1-indexed page numbers to 0-indexed and validates them.
// If no pages specified, returns all pages.
func (e *Extractor) resolvePages() ([]int, error) {
	pageCount := e.doc.PageCount()

	// If no pages specified, use all pages
	if len(e.options.pages) == 0 {
		pageIndices := make([]int, pageCount)
		for i := 0; i < pageCount; i++ {
			pageIndices[i] = i
		}
		return pageIndices, nil
	}

	// Convert 1-indexed to 0-indexed and validate
	seen := make(map[int]bool)
	var pageIndices []int
	for _, p := range e.options.pages {
		if p < 1 || p > pageCount {
			return nil, fmt.Errorf("page %d out of range (1-%d)", p, pageCount)
		}
		zeroIndexed := p - 1
		if !seen[zeroIndexed] {
			seen[zeroIndexed] = true
			pageIndices = append(pageIndices, zeroIndexed)
		}
	}

	// Sort pages in order
	sort.Ints(pageIndices)
	return pageIndices, nil
}

// renderer picks the rasterizer for a run and returns a function releasing
// it. The auto backend uses MuPDF when it is compiled in.
func (e *Extractor) renderer() (render.Rasterizer, func()) {
	if e.options.renderer != nil {
		return e.options.renderer, func() {}
	}
	if useFitz(e.options.backend) && e.filename != "" {
		f, err := render.NewFitz(e.filename, e.options.policy)
		if err == nil {
			return f, func() { f.Close() }
		}
		e.options.logger.Warn().Err(err).Msg("falling back to native renderer")
	}
	return render.NewNative(e.options.policy), func() {}
}

func useFitz(backend string) bool {
	return backend == "fitz" || (backend == "auto" && render.FitzEnabled)
}
