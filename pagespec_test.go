package figura

import (
	"reflect"
	"testing"
)

func TestParsePages(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"", nil},
		{"3", []int{3}},
		{"1-3,7", []int{1, 2, 3, 7}},
		{" 2 - 4 , 9 ", []int{2, 3, 4, 9}},
		{"5,", []int{5}},
	}
	for _, tt := range tests {
		got, err := ParsePages(tt.in)
		if err != nil {
			t.Errorf("ParsePages(%q) error: %v", tt.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParsePages(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"0", "a", "3-1", "1-x", "-2"} {
		if _, err := ParsePages(bad); err == nil {
			t.Errorf("ParsePages(%q) should fail", bad)
		}
	}
}
