package filters

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	pdffilter "github.com/pdfcpu/pdfcpu/pkg/filter"
)

// Filter is one stage of a stream's filter pipeline.
type Filter struct {
	Name   string
	Params Params
}

var (
	// ErrUnsupported is returned for filters that cannot be decoded.
	ErrUnsupported = errors.New("unsupported filter")
	// ErrLimitExceeded is returned when a filter would produce more output
	// than the caller allowed.
	ErrLimitExceeded = errors.New("decoded data exceeds size limit")
)

// abbreviations maps the short names allowed in inline images to their
// full names.
var abbreviations = map[string]string{
	"AHx": "ASCIIHexDecode",
	"A85": "ASCII85Decode",
	"LZW": "LZWDecode",
	"Fl":  "FlateDecode",
	"RL":  "RunLengthDecode",
	"CCF": "CCITTFaxDecode",
	"DCT": "DCTDecode",
}

// Canonical expands an abbreviated filter name.
func Canonical(name string) string {
	if full, ok := abbreviations[name]; ok {
		return full
	}
	return name
}

// IsImageCodec reports whether the filter produces an encoded image that
// has to be handed to an image decoder rather than raw samples.
func IsImageCodec(name string) bool {
	switch Canonical(name) {
	case "DCTDecode", "JPXDecode", "JBIG2Decode":
		return true
	}
	return false
}

// Decode applies the filter chain to data in order. Decoding stops at the
// first image codec: the partially decoded data is returned together with
// the remaining filters, starting with that codec.
//
// No stage may produce more than limit bytes; a stage that would fails
// with ErrLimitExceeded without buffering the excess. A limit of zero or
// less disables the check.
func Decode(data []byte, chain []Filter, limit int64) ([]byte, []Filter, error) {
	for i, f := range chain {
		name := Canonical(f.Name)
		if IsImageCodec(name) {
			return data, chain[i:], nil
		}

		var err error
		data, err = decodeOne(data, name, f.Params, limit)
		if err == nil && limit > 0 && int64(len(data)) > limit {
			err = overLimit(limit)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("filter %d (%s) failed: %w", i, name, err)
		}
	}
	return data, nil, nil
}

func decodeOne(data []byte, name string, params Params, limit int64) ([]byte, error) {
	switch name {
	case "FlateDecode":
		return flateDecode(data, params, limit)
	case "ASCIIHexDecode":
		return ASCIIHexDecode(data)
	case "ASCII85Decode":
		return ASCII85Decode(data)
	case "RunLengthDecode":
		return runLengthDecode(data, limit)
	case "CCITTFaxDecode":
		return ccittFaxDecode(data, params, limit)
	case "LZWDecode":
		return lzwDecode(data, params, limit)
	case "Crypt":
		// Identity crypt filters only; encrypted documents are decrypted by
		// the object layer before streams reach this package.
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
}

// lzwDecode delegates to pdfcpu's LZW filter, which handles the
// EarlyChange variant PDF uses, then applies any predictor.
func lzwDecode(data []byte, params Params, limit int64) ([]byte, error) {
	f, err := pdffilter.NewFilter("LZWDecode", map[string]int{
		"EarlyChange": params.Int("EarlyChange", 1),
	})
	if err != nil {
		return nil, err
	}
	r, err := f.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	out, err := readAll(r, limit)
	if err != nil {
		return nil, err
	}
	if predictor := params.Int("Predictor", 1); predictor > 1 {
		return unpredict(out, predictor, params)
	}
	return out, nil
}

// readAll reads r to the end, failing once more than limit bytes arrive.
func readAll(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if int64(len(data)) > limit {
		return nil, overLimit(limit)
	}
	return data, err
}

func overLimit(limit int64) error {
	return fmt.Errorf("%w: more than %d bytes", ErrLimitExceeded, limit)
}
