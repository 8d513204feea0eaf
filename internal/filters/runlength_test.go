package filters

import (
	"bytes"
	"testing"
)

func TestRunLengthDecode(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []byte
	}{
		{"literal", []byte{2, 'a', 'b', 'c', 128}, []byte("abc")},
		{"repeat", []byte{254, 'x', 128}, []byte("xxx")},
		{"mixed", []byte{0, 'a', 255, 'b', 128}, []byte("abb")},
		{"no end marker", []byte{1, 'h', 'i'}, []byte("hi")},
		{"data after marker ignored", []byte{0, 'a', 128, 0, 'b'}, []byte("a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RunLengthDecode(tt.data)
			if err != nil {
				t.Fatalf("RunLengthDecode failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunLengthDecodeTruncated(t *testing.T) {
	if _, err := RunLengthDecode([]byte{5, 'a'}); err == nil {
		t.Error("expected error for truncated literal")
	}
	if _, err := RunLengthDecode([]byte{200}); err == nil {
		t.Error("expected error for repeat without byte")
	}
}
