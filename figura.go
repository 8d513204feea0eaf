// Package figura extracts figures (charts, diagrams, photographs) from PDF
// files as standalone images with their page and position.
//
// Basic usage:
//
//	res, err := figura.Open("report.pdf").Figures(ctx)
//	if err != nil {
//	    // the document could not be read
//	}
//	for _, fig := range res.Figures {
//	    fmt.Println(fig.Page, fig.Box, fig.Image.Bounds())
//	}
//	if len(res.Warnings) > 0 {
//	    log.Println("Warnings:", figura.FormatWarnings(res.Warnings))
//	}
//
// With options:
//
//	res, err := figura.Open("report.pdf").
//	    Pages(1, 3).
//	    DPI(200).
//	    CrossPageDedup().
//	    Figures(ctx)
//
// The lower-level packages (scan, layout, render, dedupe) can be used on
// their own for finer control.
package figura

import (
	"errors"

	"github.com/tsawler/figura/reader"
)

// ErrUnreadableDocument is returned when the input cannot be opened as a
// PDF at all. It is the only error that stops a run; problems with single
// pages or regions become warnings.
var ErrUnreadableDocument = errors.New("unreadable document")

// Open opens a PDF file and returns an Extractor for fluent configuration.
// The file is opened lazily; the returned Extractor must be closed when
// done, either explicitly via Close() or implicitly by Figures().
//
// Example:
//
//	res, err := figura.Open("document.pdf").Figures(ctx)
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromDocument creates an Extractor from an already-opened
// reader.Document. The caller is responsible for closing the document.
//
// Example:
//
//	doc, err := reader.Open("document.pdf")
//	if err != nil {
//	    // handle error
//	}
//	defer doc.Close()
//	res, err := figura.FromDocument(doc).Figures(ctx)
func FromDocument(doc *reader.Document) *Extractor {
	return &Extractor{
		doc:       doc,
		ownsDoc:   false,
		docOpened: true,
		options:   defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := figura.Must(figura.Open("document.pdf").PageCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
