package filters

import (
	"bytes"
	"fmt"
)

// RunLengthDecode decodes PackBits-style run-length data. A length byte
// 0-127 copies the next n+1 bytes literally, 129-255 repeats the next byte
// 257-n times, and 128 marks end of data.
func RunLengthDecode(data []byte) ([]byte, error) {
	return runLengthDecode(data, 0)
}

func runLengthDecode(data []byte, limit int64) ([]byte, error) {
	var out bytes.Buffer

	for i := 0; i < len(data); {
		if limit > 0 && int64(out.Len()) > limit {
			return nil, overLimit(limit)
		}
		n := int(data[i])
		i++

		switch {
		case n == 128:
			return out.Bytes(), nil
		case n < 128:
			end := i + n + 1
			if end > len(data) {
				return nil, fmt.Errorf("run-length literal overruns input at offset %d", i-1)
			}
			out.Write(data[i:end])
			i = end
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("run-length repeat missing byte at offset %d", i-1)
			}
			out.Write(bytes.Repeat(data[i:i+1], 257-n))
			i++
		}
	}

	return out.Bytes(), nil
}
