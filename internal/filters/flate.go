package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// FlateDecode decompresses Flate (zlib/deflate) compressed data and undoes
// any TIFF or PNG predictor named in params.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	return flateDecode(data, params, 0)
}

func flateDecode(data []byte, params Params, limit int64) ([]byte, error) {
	decompressed, err := zlibDecompress(data, limit)
	if err != nil {
		return nil, fmt.Errorf("zlib decompression failed: %w", err)
	}

	predictor := params.Int("Predictor", 1)
	if predictor <= 1 {
		return decompressed, nil
	}

	out, err := unpredict(decompressed, predictor, params)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	return out, nil
}

// zlibDecompress inflates data. A truncated stream returns whatever was
// recovered before the error, since many writers omit the final checksum.
// Output beyond limit fails with ErrLimitExceeded when limit is positive.
func zlibDecompress(data []byte, limit int64) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer reader.Close()

	var src io.Reader = reader
	if limit > 0 {
		src = io.LimitReader(reader, limit+1)
	}

	var buf bytes.Buffer
	_, err = io.Copy(&buf, src)
	if limit > 0 && int64(buf.Len()) > limit {
		return nil, overLimit(limit)
	}
	if err != nil {
		if buf.Len() > 0 && (err == io.ErrUnexpectedEOF || err == zlib.ErrChecksum) {
			return buf.Bytes(), nil
		}
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}

	return buf.Bytes(), nil
}

// rowGeometry returns the byte width of one sample row and the number of
// bytes per complete pixel (at least 1).
func rowGeometry(params Params) (rowBytes, pixelBytes int, err error) {
	columns := params.Int("Columns", 1)
	colors := params.Int("Colors", 1)
	bpc := params.Int("BitsPerComponent", 8)

	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return 0, 0, fmt.Errorf("unsupported bits per component: %d", bpc)
	}
	if columns < 1 || colors < 1 {
		return 0, 0, fmt.Errorf("invalid predictor geometry: columns=%d colors=%d", columns, colors)
	}

	rowBytes = (columns*colors*bpc + 7) / 8
	pixelBytes = (colors*bpc + 7) / 8
	return rowBytes, pixelBytes, nil
}

// unpredict reverses predictor 2 (TIFF) or 10-15 (PNG).
func unpredict(data []byte, predictor int, params Params) ([]byte, error) {
	switch {
	case predictor == 2:
		return unpredictTIFF(data, params)
	case predictor >= 10 && predictor <= 15:
		return unpredictPNG(data, params)
	default:
		return nil, fmt.Errorf("unsupported predictor: %d", predictor)
	}
}

// unpredictTIFF reverses TIFF Predictor 2 for 8-bit samples: each sample is
// stored as the difference from the sample one pixel to its left.
func unpredictTIFF(data []byte, params Params) ([]byte, error) {
	if bpc := params.Int("BitsPerComponent", 8); bpc != 8 {
		return nil, fmt.Errorf("TIFF predictor supports 8 bits per component, got %d", bpc)
	}
	rowBytes, pixelBytes, err := rowGeometry(params)
	if err != nil {
		return nil, err
	}
	if len(data)%rowBytes != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), rowBytes)
	}

	out := make([]byte, len(data))
	copy(out, data)
	for start := 0; start < len(out); start += rowBytes {
		row := out[start : start+rowBytes]
		for i := pixelBytes; i < len(row); i++ {
			row[i] += row[i-pixelBytes]
		}
	}
	return out, nil
}

// unpredictPNG reverses PNG row filters. Every encoded row carries a
// leading filter type byte (0 None, 1 Sub, 2 Up, 3 Average, 4 Paeth).
func unpredictPNG(data []byte, params Params) ([]byte, error) {
	rowBytes, pixelBytes, err := rowGeometry(params)
	if err != nil {
		return nil, err
	}
	stride := rowBytes + 1
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), stride)
	}

	rows := len(data) / stride
	out := make([]byte, rows*rowBytes)
	prev := make([]byte, rowBytes)

	for r := 0; r < rows; r++ {
		kind := data[r*stride]
		src := data[r*stride+1 : (r+1)*stride]
		cur := out[r*rowBytes : (r+1)*rowBytes]

		for i := range cur {
			var left, upLeft byte
			if i >= pixelBytes {
				left = cur[i-pixelBytes]
				upLeft = prev[i-pixelBytes]
			}
			up := prev[i]

			switch kind {
			case 0:
				cur[i] = src[i]
			case 1:
				cur[i] = src[i] + left
			case 2:
				cur[i] = src[i] + up
			case 3:
				cur[i] = src[i] + byte((int(left)+int(up))/2)
			case 4:
				cur[i] = src[i] + paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG filter type %d in row %d", kind, r)
			}
		}
		prev = cur
	}

	return out, nil
}

// paeth picks whichever of left, up and upper-left is closest to
// left + up - upLeft.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
