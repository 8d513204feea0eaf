package filters

import (
	"testing"
)

func TestParamsBool(t *testing.T) {
	tests := []struct {
		name         string
		params       Params
		key          string
		defaultValue bool
		want         bool
	}{
		{"nil params", nil, "BlackIs1", false, false},
		{"missing key", Params{"Columns": 1728}, "BlackIs1", true, true},
		{"true value", Params{"BlackIs1": true}, "BlackIs1", false, true},
		{"false value", Params{"BlackIs1": false}, "BlackIs1", true, false},
		{"invalid type returns default", Params{"BlackIs1": "true"}, "BlackIs1", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.Bool(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("Bool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCCITTFaxDecodeDoesNotPanic(t *testing.T) {
	inputs := [][]byte{nil, {0x00, 0x00, 0x00}, {0xFF, 0xFF}}
	for _, in := range inputs {
		CCITTFaxDecode(in, Params{"K": -1, "Columns": 8, "Rows": 1})
		CCITTFaxDecode(in, Params{"K": 0, "Columns": 8})
	}
}
