package contentstream

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/tsawler/figura/internal/filters"
)

// InlineImage is the dictionary and raw data of a BI ... ID ... EI block.
// Abbreviated keys and color space names are expanded, so the dictionary
// reads like an image XObject's.
type InlineImage struct {
	Dict types.Dict
	Data []byte
}

var inlineKeys = map[string]string{
	"BPC": "BitsPerComponent",
	"CS":  "ColorSpace",
	"D":   "Decode",
	"DP":  "DecodeParms",
	"F":   "Filter",
	"H":   "Height",
	"IM":  "ImageMask",
	"I":   "Interpolate",
	"W":   "Width",
	"L":   "Length",
}

var inlineColorSpaces = map[string]string{
	"G":    "DeviceGray",
	"RGB":  "DeviceRGB",
	"CMYK": "DeviceCMYK",
	"I":    "Indexed",
}

// parseInlineImage reads the block that follows a BI keyword. The
// resulting operation has operator BI and carries the image.
func (p *Parser) parseInlineImage(start int) {
	p.operands = p.operands[:0]
	dict := types.Dict{}

	for {
		p.skipSpaceAndComments()
		if p.pos >= len(p.data) {
			p.fail(start, "inline image without ID")
			return
		}
		if p.data[p.pos] != '/' {
			word := p.readWord()
			if word == "ID" {
				break
			}
			p.fail(start, "unexpected token %q in inline image dictionary", word)
			if word == "" {
				p.pos++
			}
			continue
		}

		key := string(p.parseName().(types.Name))
		value, err := p.parseObject()
		if err != nil {
			p.fail(start, "inline image %s: %v", key, err)
			p.skipToBoundary()
			continue
		}
		if full, ok := inlineKeys[key]; ok {
			key = full
		}
		dict[key] = expandInlineValue(key, value)
	}

	// Exactly one whitespace byte separates ID from the data.
	if p.pos < len(p.data) && isWhitespace(p.data[p.pos]) {
		p.pos++
	}

	data, err := p.inlineData(dict)
	if err != nil {
		p.fail(start, "%v", err)
		return
	}

	p.ops = append(p.ops, Operation{
		Operator:    "BI",
		Offset:      start,
		InlineImage: &InlineImage{Dict: dict, Data: data},
	})
}

// inlineData reads the image bytes and consumes the closing EI. The data
// length comes from /Length when present, from the image geometry when the
// data is unfiltered, and otherwise from scanning for a delimited EI.
func (p *Parser) inlineData(dict types.Dict) ([]byte, error) {
	n := -1
	if l, ok := dict["Length"].(types.Integer); ok && l >= 0 {
		n = int(l)
	} else if _, filtered := dict["Filter"]; !filtered {
		n = inlineSize(dict)
	}

	if n >= 0 && p.pos+n <= len(p.data) {
		end := p.pos + n
		rest := end
		for rest < len(p.data) && isWhitespace(p.data[rest]) {
			rest++
		}
		if bytes.HasPrefix(p.data[rest:], []byte("EI")) && (rest+2 == len(p.data) || !isRegular(p.data[rest+2])) {
			data := p.data[p.pos:end]
			p.pos = rest + 2
			return data, nil
		}
	}

	for i := p.pos; i+1 < len(p.data); i++ {
		if p.data[i] != 'E' || p.data[i+1] != 'I' {
			continue
		}
		if i > p.pos && !isWhitespace(p.data[i-1]) {
			continue
		}
		if i+2 < len(p.data) && isRegular(p.data[i+2]) {
			continue
		}
		end := i
		if end > p.pos && isWhitespace(p.data[end-1]) {
			end--
		}
		data := p.data[p.pos:end]
		p.pos = i + 2
		return data, nil
	}

	p.pos = len(p.data)
	return nil, fmt.Errorf("inline image without EI")
}

// inlineSize computes the byte size of unfiltered inline image samples,
// or -1 when the color space is not known here.
func inlineSize(dict types.Dict) int {
	w, _ := dict["Width"].(types.Integer)
	h, _ := dict["Height"].(types.Integer)
	if w <= 0 || h <= 0 {
		return -1
	}

	bpc := 8
	if b, ok := dict["BitsPerComponent"].(types.Integer); ok {
		bpc = int(b)
	}
	colors := 1
	if mask, _ := dict["ImageMask"].(types.Boolean); mask {
		bpc = 1
	} else {
		switch cs := dict["ColorSpace"].(type) {
		case types.Name:
			switch cs {
			case "DeviceGray":
			case "DeviceRGB":
				colors = 3
			case "DeviceCMYK":
				colors = 4
			default:
				return -1
			}
		case types.Array:
			if len(cs) == 0 || cs[0] != types.Name("Indexed") {
				return -1
			}
		default:
			return -1
		}
	}

	return (int(w)*colors*bpc + 7) / 8 * int(h)
}

func expandInlineValue(key string, value types.Object) types.Object {
	switch key {
	case "Filter":
		switch v := value.(type) {
		case types.Name:
			return types.Name(filters.Canonical(string(v)))
		case types.Array:
			out := make(types.Array, len(v))
			for i, f := range v {
				out[i] = expandInlineValue(key, f)
			}
			return out
		}
	case "ColorSpace":
		switch v := value.(type) {
		case types.Name:
			if full, ok := inlineColorSpaces[string(v)]; ok {
				return types.Name(full)
			}
		case types.Array:
			out := make(types.Array, len(v))
			for i, c := range v {
				out[i] = expandInlineValue(key, c)
			}
			return out
		}
	}
	return value
}
