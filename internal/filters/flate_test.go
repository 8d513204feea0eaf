package filters

import (
	"bytes"
	"compress/zlib"
	"testing"
)

// zlibCompress compresses data for testing
func zlibCompress(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func TestFlateDecodeBasic(t *testing.T) {
	original := []byte("Hello, World! This is test data for FlateDecode.")

	decoded, err := FlateDecode(zlibCompress(original), nil)
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Errorf("decoded data doesn't match\ngot:  %s\nwant: %s", decoded, original)
	}
}

func TestFlateDecodeNoPredictor(t *testing.T) {
	original := []byte("Test data with no predictor")

	decoded, err := FlateDecode(zlibCompress(original), Params{"Predictor": 1})
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Errorf("decoded data doesn't match")
	}
}

func TestFlateDecodeMissingChecksum(t *testing.T) {
	original := bytes.Repeat([]byte("figure "), 200)
	compressed := zlibCompress(original)

	decoded, err := FlateDecode(compressed[:len(compressed)-4], nil)
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Errorf("expected full payload from stream without checksum, got %d bytes", len(decoded))
	}
}

func TestPNGPredictors(t *testing.T) {
	params := Params{
		"Predictor":        15,
		"Columns":          3,
		"Colors":           1,
		"BitsPerComponent": 8,
	}

	tests := []struct {
		name string
		data []byte
		want []byte
	}{
		{"none", []byte{0, 1, 2, 3, 0, 4, 5, 6}, []byte{1, 2, 3, 4, 5, 6}},
		{"sub", []byte{1, 10, 10, 10}, []byte{10, 20, 30}},
		{"up", []byte{0, 10, 20, 30, 2, 5, 5, 5}, []byte{10, 20, 30, 15, 25, 35}},
		{"average", []byte{0, 10, 20, 30, 3, 5, 5, 5}, []byte{10, 20, 30, 10, 20, 30}},
		{"paeth", []byte{0, 10, 20, 30, 4, 0, 0, 0}, []byte{10, 20, 30, 10, 20, 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := FlateDecode(zlibCompress(tt.data), params)
			if err != nil {
				t.Fatalf("FlateDecode failed: %v", err)
			}
			if !bytes.Equal(decoded, tt.want) {
				t.Errorf("got %v, want %v", decoded, tt.want)
			}
		})
	}
}

func TestPNGPredictorMultiBytePixels(t *testing.T) {
	// Two RGB pixels; Sub uses the byte one full pixel to the left.
	data := []byte{1, 10, 20, 30, 1, 2, 3}
	params := Params{"Predictor": 11, "Columns": 2, "Colors": 3, "BitsPerComponent": 8}

	decoded, err := unpredictPNG(data, params)
	if err != nil {
		t.Fatalf("unpredictPNG failed: %v", err)
	}
	want := []byte{10, 20, 30, 11, 22, 33}
	if !bytes.Equal(decoded, want) {
		t.Errorf("got %v, want %v", decoded, want)
	}
}

func TestTIFFPredictor2(t *testing.T) {
	params := Params{
		"Predictor":        2,
		"Columns":          4,
		"Colors":           1,
		"BitsPerComponent": 8,
	}

	decoded, err := FlateDecode(zlibCompress([]byte{10, 10, 10, 10}), params)
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}
	want := []byte{10, 20, 30, 40}
	if !bytes.Equal(decoded, want) {
		t.Errorf("got %v, want %v", decoded, want)
	}
}

func TestPaeth(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c byte
		want    byte
	}{
		{"upper-left wins tie", 10, 20, 15, 15},
		{"mirror", 20, 10, 15, 15},
		{"up closest", 15, 20, 10, 20},
		{"all zero", 0, 0, 0, 0},
		{"all same", 10, 10, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paeth(tt.a, tt.b, tt.c); got != tt.want {
				t.Errorf("paeth(%d, %d, %d) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
			}
		})
	}
}

func TestParamsInt(t *testing.T) {
	params := Params{"Columns": 100, "Colors": int64(3), "K": float64(-1)}

	if v := params.Int("Columns", 1); v != 100 {
		t.Errorf("Int(Columns) = %d, want 100", v)
	}
	if v := params.Int("Colors", 1); v != 3 {
		t.Errorf("Int(Colors) = %d, want 3", v)
	}
	if v := params.Int("K", 0); v != -1 {
		t.Errorf("Int(K) = %d, want -1", v)
	}
	if v := params.Int("Missing", 42); v != 42 {
		t.Errorf("Int(Missing) = %d, want 42", v)
	}
	if v := Params(nil).Int("Any", 99); v != 99 {
		t.Errorf("nil Int = %d, want 99", v)
	}
}

func TestFlateDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		params Params
	}{
		{"invalid zlib", []byte{0x00, 0x01, 0x02, 0x03}, nil},
		{"unsupported predictor", zlibCompress([]byte("test")), Params{"Predictor": 99}},
		{"unsupported bpc", zlibCompress([]byte{0, 1, 2, 3}), Params{"Predictor": 10, "Columns": 3, "BitsPerComponent": 3}},
		{"wrong row size", zlibCompress([]byte{0, 1, 2}), Params{"Predictor": 10, "Columns": 3}},
		{"bad png filter type", zlibCompress([]byte{9, 1, 2, 3}), Params{"Predictor": 10, "Columns": 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FlateDecode(tt.data, tt.params); err == nil {
				t.Error("expected error")
			}
		})
	}
}
