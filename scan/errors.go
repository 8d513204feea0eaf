package scan

import "fmt"

// MalformedPageError means a page's content could not be interpreted at
// all. The page yields no candidates.
type MalformedPageError struct {
	// Page is the 0-based page index.
	Page int
	Err  error
}

func (e *MalformedPageError) Error() string {
	return fmt.Sprintf("page %d: malformed content: %v", e.Page+1, e.Err)
}

func (e *MalformedPageError) Unwrap() error { return e.Err }

// UnsupportedPrimitiveError is a single operator that could not be
// interpreted. The operator is skipped and scanning continues.
type UnsupportedPrimitiveError struct {
	Page     int
	Operator string
	// Offset is the byte offset of the operator in its content stream.
	Offset int
	Err    error
}

func (e *UnsupportedPrimitiveError) Error() string {
	if e.Operator == "" {
		return fmt.Sprintf("page %d: offset %d: %v", e.Page+1, e.Offset, e.Err)
	}
	return fmt.Sprintf("page %d: %s at offset %d: %v", e.Page+1, e.Operator, e.Offset, e.Err)
}

func (e *UnsupportedPrimitiveError) Unwrap() error { return e.Err }
