// Package fetch downloads PDFs from http and https URLs for extraction.
//
// Bodies are streamed to disk under a size cap, sniffed for the PDF
// header, and opened once with the reader package so that landing pages
// and truncated downloads are rejected before the engine sees them.
package fetch
