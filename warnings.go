package figura

import (
	"fmt"
	"strings"

	"github.com/tsawler/figura/model"
)

// WarningKind classifies a non-fatal problem.
type WarningKind int

const (
	// WarningDocument is a problem with the document structure that did
	// not stop it from being read.
	WarningDocument WarningKind = iota
	// WarningMalformedPage means a page could not be read; it yields no
	// figures.
	WarningMalformedPage
	// WarningUnsupportedPrimitive means an operator was skipped.
	WarningUnsupportedPrimitive
	// WarningRasterization means a region could not be drawn and was
	// dropped.
	WarningRasterization
	// WarningResourceExhaustion means a region was too large to render.
	WarningResourceExhaustion
	// WarningTimeout means a page ran past its time budget and yields no
	// figures.
	WarningTimeout
)

func (k WarningKind) String() string {
	switch k {
	case WarningDocument:
		return "document"
	case WarningMalformedPage:
		return "malformed-page"
	case WarningUnsupportedPrimitive:
		return "unsupported-primitive"
	case WarningRasterization:
		return "rasterization"
	case WarningResourceExhaustion:
		return "resource-exhaustion"
	case WarningTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Warning is a problem that did not stop extraction.
type Warning struct {
	// Page is the 1-based page number, 0 for document-level warnings.
	Page int
	// Box is the affected region, zero when the warning concerns a whole
	// page.
	Box     model.Box
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	var b strings.Builder
	if w.Page > 0 {
		fmt.Fprintf(&b, "page %d: ", w.Page)
	}
	if w.Box.IsValid() {
		fmt.Fprintf(&b, "%v: ", w.Box)
	}
	fmt.Fprintf(&b, "%s: %s", w.Kind, w.Message)
	return b.String()
}

// FormatWarnings returns the warnings one per line.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}
