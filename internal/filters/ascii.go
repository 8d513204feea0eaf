package filters

import (
	"bytes"
	"fmt"
)

// ASCIIHexDecode decodes hex pairs up to the > end marker. Whitespace is
// skipped and a trailing odd digit is padded with zero.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	var out bytes.Buffer
	var hi byte
	pending := false

	for _, c := range data {
		if isWhitespace(c) {
			continue
		}
		if c == '>' {
			break
		}
		v, err := hexValue(c)
		if err != nil {
			return nil, err
		}
		if pending {
			out.WriteByte(hi<<4 | v)
			pending = false
			continue
		}
		hi, pending = v, true
	}
	if pending {
		out.WriteByte(hi << 4)
	}

	return out.Bytes(), nil
}

// ASCII85Decode decodes base-85 groups up to the ~> end marker. The z
// shorthand expands to four zero bytes and a short final group is padded
// with u.
func ASCII85Decode(data []byte) ([]byte, error) {
	var out bytes.Buffer
	group := make([]uint32, 0, 5)

	flush := func() {
		n := len(group)
		if n < 2 {
			group = group[:0]
			return
		}
		for len(group) < 5 {
			group = append(group, 84)
		}
		var value uint32
		for _, d := range group {
			value = value*85 + d
		}
		for j := 0; j < n-1; j++ {
			out.WriteByte(byte(value >> (24 - 8*j)))
		}
		group = group[:0]
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case isWhitespace(c):
			continue
		case c == '~':
			if i+1 < len(data) && data[i+1] == '>' {
				flush()
				return out.Bytes(), nil
			}
			return nil, fmt.Errorf("invalid ASCII85 character: %c", c)
		case c == 'z' && len(group) == 0:
			out.Write([]byte{0, 0, 0, 0})
		case c < '!' || c > 'u':
			return nil, fmt.Errorf("invalid ASCII85 character: %c", c)
		default:
			group = append(group, uint32(c-'!'))
			if len(group) == 5 {
				flush()
			}
		}
	}
	flush()

	return out.Bytes(), nil
}

func hexValue(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit: %c", c)
	}
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}
