package font

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/unicode"

	"github.com/tsawler/figura/contentstream"
)

// CMap maps character codes to Unicode text, as read from a /ToUnicode
// stream.
type CMap struct {
	chars  map[uint32]string
	ranges []cmapRange
}

type cmapRange struct {
	lo, hi uint32
	// dst is the text for lo; later codes increment its last rune.
	dst []rune
}

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// ParseCMap reads the bfchar and bfrange sections of a CMap program.
// Anything else in the program is ignored, as are malformed entries.
func ParseCMap(data []byte) *CMap {
	cm := &CMap{chars: make(map[uint32]string)}

	// The CMap syntax is close enough to a content stream that the
	// operands of endbfchar and endbfrange arrive as one operation each.
	ops, _ := contentstream.Parse(data)
	for _, op := range ops {
		switch op.Operator {
		case "endbfchar":
			for i := 0; i+1 < len(op.Operands); i += 2 {
				src, ok := contentstream.ToBytes(op.Operands[i])
				if !ok {
					continue
				}
				if text, ok := decodeText(op.Operands[i+1]); ok {
					cm.chars[codeOf(src)] = text
				}
			}
		case "endbfrange":
			for i := 0; i+2 < len(op.Operands); i += 3 {
				lo, ok1 := contentstream.ToBytes(op.Operands[i])
				hi, ok2 := contentstream.ToBytes(op.Operands[i+1])
				if !ok1 || !ok2 {
					continue
				}
				cm.addRange(codeOf(lo), codeOf(hi), op.Operands[i+2])
			}
		}
	}
	return cm
}

func (cm *CMap) addRange(lo, hi uint32, dst types.Object) {
	if hi < lo {
		return
	}
	if arr, ok := dst.(types.Array); ok {
		for j, e := range arr {
			code := lo + uint32(j)
			if code > hi {
				break
			}
			if text, ok := decodeText(e); ok {
				cm.chars[code] = text
			}
		}
		return
	}
	text, ok := decodeText(dst)
	if !ok || text == "" {
		return
	}
	cm.ranges = append(cm.ranges, cmapRange{lo: lo, hi: hi, dst: []rune(text)})
}

// Lookup returns the text for code.
func (cm *CMap) Lookup(code uint32) (string, bool) {
	if cm == nil {
		return "", false
	}
	if text, ok := cm.chars[code]; ok {
		return text, true
	}
	for _, r := range cm.ranges {
		if code >= r.lo && code <= r.hi {
			out := append([]rune(nil), r.dst...)
			out[len(out)-1] += rune(code - r.lo)
			return string(out), true
		}
	}
	return "", false
}

// Len returns the number of single mappings plus ranges.
func (cm *CMap) Len() int {
	if cm == nil {
		return 0
	}
	return len(cm.chars) + len(cm.ranges)
}

func codeOf(b []byte) uint32 {
	var code uint32
	for _, c := range b {
		code = code<<8 | uint32(c)
	}
	return code
}

// decodeText reads a UTF-16BE destination string. A single byte is taken
// as a Latin-1 character, which some writers emit.
func decodeText(o types.Object) (string, bool) {
	b, ok := contentstream.ToBytes(o)
	if !ok || len(b) == 0 {
		return "", false
	}
	if len(b) == 1 {
		return string(rune(b[0])), true
	}
	text, err := utf16BE.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	return string(text), true
}
