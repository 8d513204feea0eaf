// Package format recognizes the kinds of input figura is given: local
// files, URLs, and downloaded bodies that may or may not be PDFs.
package format

import (
	"bytes"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
)

// Format represents a recognized content format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PDF indicates a PDF document.
	PDF
	// HTML indicates an HTML page, typically a landing page served in
	// place of the document.
	HTML
	// PNG indicates a PNG image.
	PNG
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PDF:
		return "PDF"
	case HTML:
		return "HTML"
	case PNG:
		return "PNG"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case PDF:
		return ".pdf"
	case HTML:
		return ".html"
	case PNG:
		return ".png"
	default:
		return ""
	}
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return PDF
	case ".html", ".htm":
		return HTML
	case ".png":
		return PNG
	default:
		return Unknown
	}
}

// FromContentType maps an HTTP Content-Type header to a format.
// Parameters such as charset are ignored.
func FromContentType(contentType string) Format {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mt {
	case "application/pdf", "application/x-pdf", "application/acrobat":
		return PDF
	case "text/html", "application/xhtml+xml":
		return HTML
	case "image/png":
		return PNG
	default:
		return Unknown
	}
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// DetectFromMagic checks the leading bytes of data to determine format.
// PDF files may carry up to 1024 bytes of junk before the header, as
// readers tolerate it.
func DetectFromMagic(data []byte) Format {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if bytes.Contains(head, []byte("%PDF-")) {
		return PDF
	}
	if bytes.HasPrefix(data, pngMagic) {
		return PNG
	}
	if detectHTMLMagic(data) {
		return HTML
	}
	return Unknown
}

// detectHTMLMagic checks if the data looks like HTML content.
func detectHTMLMagic(data []byte) bool {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return false
	}
	if len(data) > 512 {
		data = data[:512]
	}

	// Check for common HTML signatures (case-insensitive)
	upper := strings.ToUpper(string(data))
	if strings.HasPrefix(upper, "<!DOCTYPE HTML") || strings.HasPrefix(upper, "<HTML") {
		return true
	}
	// XML declaration followed by html-like content could be XHTML
	return strings.HasPrefix(upper, "<?XML") && strings.Contains(upper, "<HTML")
}

// IsURL reports whether s is an http or https URL rather than a path.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
