package filters

import (
	"bytes"
	"encoding/ascii85"
	"testing"
)

func TestASCIIHexDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
	}{
		{"basic", "48656C6C6F>", []byte("Hello")},
		{"whitespace", "48 65\n6C 6C\t6F>", []byte("Hello")},
		{"odd digits", "48656C6C6>", []byte("Hell`")},
		{"no end marker", "48656C6C6F", []byte("Hello")},
		{"lower case", "ff00>", []byte{0xff, 0x00}},
		{"stops at marker", "41>42", []byte("A")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ASCIIHexDecode([]byte(tt.input))
			if err != nil {
				t.Fatalf("ASCIIHexDecode failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestASCIIHexDecodeInvalidChar(t *testing.T) {
	if _, err := ASCIIHexDecode([]byte("48G5")); err == nil {
		t.Error("expected error for invalid hex character")
	}
}

func ascii85Encode(data []byte) []byte {
	buf := make([]byte, ascii85.MaxEncodedLen(len(data)))
	n := ascii85.Encode(buf, data)
	return buf[:n]
}

func TestASCII85DecodeRoundTrip(t *testing.T) {
	inputs := [][]byte{
		[]byte("Hello"),
		[]byte("Hello World"),
		[]byte("four"),
		{0, 0, 0, 0, 1, 2, 3},
		{0xff, 0xfe, 0xfd},
	}

	for _, in := range inputs {
		encoded := append(ascii85Encode(in), '~', '>')
		got, err := ASCII85Decode(encoded)
		if err != nil {
			t.Fatalf("ASCII85Decode(%q) failed: %v", encoded, err)
		}
		if !bytes.Equal(got, in) {
			t.Errorf("ASCII85Decode(%q) = %v, want %v", encoded, got, in)
		}
	}
}

func TestASCII85DecodeWhitespaceAndNoEOD(t *testing.T) {
	encoded := ascii85Encode([]byte("Hello World"))
	spaced := append([]byte{}, encoded[:3]...)
	spaced = append(spaced, ' ', '\n')
	spaced = append(spaced, encoded[3:]...)

	got, err := ASCII85Decode(spaced)
	if err != nil {
		t.Fatalf("ASCII85Decode failed: %v", err)
	}
	if string(got) != "Hello World" {
		t.Errorf("got %q", got)
	}
}

func TestASCII85DecodeZero(t *testing.T) {
	got, err := ASCII85Decode([]byte("z~>"))
	if err != nil {
		t.Fatalf("ASCII85Decode failed: %v", err)
	}
	if !bytes.Equal(got, []byte{0, 0, 0, 0}) {
		t.Errorf("got %v", got)
	}
}

func TestASCII85DecodeInvalidChar(t *testing.T) {
	if _, err := ASCII85Decode([]byte("87\xFFcURD~>")); err == nil {
		t.Error("expected error for invalid ASCII85 character")
	}
}

func TestHexValue(t *testing.T) {
	tests := []struct {
		input    byte
		expected byte
		hasError bool
	}{
		{'0', 0, false},
		{'9', 9, false},
		{'A', 10, false},
		{'f', 15, false},
		{'G', 0, true},
		{'@', 0, true},
	}

	for _, tt := range tests {
		got, err := hexValue(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("hexValue(%c) expected error", tt.input)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("hexValue(%c) = %d, %v; want %d", tt.input, got, err, tt.expected)
		}
	}
}

func TestIsWhitespace(t *testing.T) {
	for _, c := range []byte{' ', '\t', '\r', '\n', '\f', 0} {
		if !isWhitespace(c) {
			t.Errorf("isWhitespace(%d) should be true", c)
		}
	}
	for _, c := range []byte{'a', 'Z', '0', '!', '\x01'} {
		if isWhitespace(c) {
			t.Errorf("isWhitespace(%c) should be false", c)
		}
	}
}
