//go:build !fitz

package render

import (
	"errors"
	"testing"
)

func TestNewFitz_NotEnabled(t *testing.T) {
	if _, err := NewFitz("any.pdf", DefaultPolicy()); !errors.Is(err, ErrFitzNotEnabled) {
		t.Errorf("expected ErrFitzNotEnabled, got %v", err)
	}
}

func TestFitzDisabled(t *testing.T) {
	if FitzEnabled {
		t.Error("FitzEnabled should be false without the fitz tag")
	}
}
