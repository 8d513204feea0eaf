package contentstream

import (
	"encoding/hex"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Number returns operand i as a float64.
func (op Operation) Number(i int) (float64, bool) {
	if i < 0 || i >= len(op.Operands) {
		return 0, false
	}
	return ToFloat(op.Operands[i])
}

// Numbers returns all operands as float64 values. It fails when any operand
// is not numeric.
func (op Operation) Numbers() ([]float64, bool) {
	out := make([]float64, len(op.Operands))
	for i, o := range op.Operands {
		v, ok := ToFloat(o)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// Name returns operand i as a name.
func (op Operation) Name(i int) (string, bool) {
	if i < 0 || i >= len(op.Operands) {
		return "", false
	}
	n, ok := op.Operands[i].(types.Name)
	return string(n), ok
}

// Array returns operand i as an array.
func (op Operation) Array(i int) (types.Array, bool) {
	if i < 0 || i >= len(op.Operands) {
		return nil, false
	}
	a, ok := op.Operands[i].(types.Array)
	return a, ok
}

// ToFloat converts a numeric object to float64.
func ToFloat(o types.Object) (float64, bool) {
	switch v := o.(type) {
	case types.Integer:
		return float64(v), true
	case types.Float:
		return float64(v), true
	}
	return 0, false
}

// Bytes returns operand i as the bytes of a string.
func (op Operation) Bytes(i int) ([]byte, bool) {
	if i < 0 || i >= len(op.Operands) {
		return nil, false
	}
	return ToBytes(op.Operands[i])
}

// ToBytes returns the bytes of a literal or hex string.
func ToBytes(o types.Object) ([]byte, bool) {
	switch v := o.(type) {
	case types.StringLiteral:
		return []byte(v), true
	case types.HexLiteral:
		b, err := hex.DecodeString(string(v))
		return b, err == nil
	}
	return nil, false
}
