package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func withIO(t *testing.T, input string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	oldIn, oldOut, oldColor := in, out, color.NoColor
	in, out, color.NoColor = strings.NewReader(input), &buf, true
	t.Cleanup(func() { in, out, color.NoColor = oldIn, oldOut, oldColor })
	return &buf
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
	}
	for _, tt := range tests {
		buf := withIO(t, tt.input)
		got, err := Confirm("Download it?")
		if err != nil {
			t.Fatalf("Confirm(%q) error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(buf.String(), "Download it? [y/N]") {
			t.Errorf("prompt not shown: %q", buf.String())
		}
	}
}

func TestConfirmClosedInput(t *testing.T) {
	withIO(t, "")
	if ok, err := Confirm("Download it?"); err == nil || ok {
		t.Errorf("Confirm on empty input = %v, %v; want false and an error", ok, err)
	}
}

func TestInteractive(t *testing.T) {
	withIO(t, "y\n")
	if Interactive() {
		t.Error("a string reader is not a terminal")
	}

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	in = f
	if Interactive() {
		t.Error("a regular file is not a terminal")
	}
}
