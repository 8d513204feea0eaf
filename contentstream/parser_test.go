package contentstream

import (
	"errors"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func mustParse(t *testing.T, input string) []Operation {
	t.Helper()
	ops, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return ops
}

func operators(ops []Operation) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.Operator
	}
	return out
}

func TestParseSimpleOperator(t *testing.T) {
	ops := mustParse(t, "q")
	if len(ops) != 1 || ops[0].Operator != "q" || len(ops[0].Operands) != 0 {
		t.Fatalf("unexpected ops: %+v", ops)
	}
}

func TestParseNumbers(t *testing.T) {
	ops := mustParse(t, "100 -3 1.5 .5 -.25 +7 --2 cm")
	if len(ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(ops))
	}

	want := []types.Object{
		types.Integer(100),
		types.Integer(-3),
		types.Float(1.5),
		types.Float(0.5),
		types.Float(-0.25),
		types.Integer(7),
		types.Float(-2),
	}
	if len(ops[0].Operands) != len(want) {
		t.Fatalf("expected %d operands, got %d", len(want), len(ops[0].Operands))
	}
	for i, w := range want {
		if ops[0].Operands[i] != w {
			t.Errorf("operand %d: got %#v, want %#v", i, ops[0].Operands[i], w)
		}
	}
}

func TestParseStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `(Hello World) Tj`, "Hello World"},
		{"nested parens", `(a (b) c) Tj`, "a (b) c"},
		{"escapes", `(a\nb\t\(c\)\\) Tj`, "a\nb\t(c)\\"},
		{"octal", `(\101\102\7) Tj`, "AB\x07"},
		{"line continuation", "(ab\\\ncd) Tj", "abcd"},
		{"unknown escape", `(\q) Tj`, "q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := mustParse(t, tt.input)
			got, ok := ops[0].Operands[0].(types.StringLiteral)
			if !ok {
				t.Fatalf("expected StringLiteral, got %T", ops[0].Operands[0])
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseHexString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<48656C6C6F> Tj", "48656C6C6F"},
		{"<48 65\n6c> Tj", "48656c"},
		{"<123> Tj", "1230"},
	}

	for _, tt := range tests {
		ops := mustParse(t, tt.input)
		got, ok := ops[0].Operands[0].(types.HexLiteral)
		if !ok || string(got) != tt.want {
			t.Errorf("%q: got %#v, want %q", tt.input, ops[0].Operands[0], tt.want)
		}
	}
}

func TestParseNames(t *testing.T) {
	ops := mustParse(t, "/F1 12 Tf /Name#20With#2FEscapes gs")
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}
	if name, ok := ops[0].Name(0); !ok || name != "F1" {
		t.Errorf("expected F1, got %q", name)
	}
	if name, _ := ops[1].Name(0); name != "Name With/Escapes" {
		t.Errorf("escaped name decoded to %q", name)
	}
}

func TestParseArrayAndDict(t *testing.T) {
	ops := mustParse(t, "[(Hello) -250 [1 2] /N] TJ /OC <</MCID 3 /Alt (x)>> BDC")
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}

	arr, ok := ops[0].Operands[0].(types.Array)
	if !ok || len(arr) != 4 {
		t.Fatalf("expected 4-element array, got %#v", ops[0].Operands[0])
	}
	if inner, ok := arr[2].(types.Array); !ok || len(inner) != 2 {
		t.Errorf("expected nested array, got %#v", arr[2])
	}

	dict, ok := ops[1].Operands[1].(types.Dict)
	if !ok {
		t.Fatalf("expected Dict, got %T", ops[1].Operands[1])
	}
	if dict["MCID"] != types.Integer(3) {
		t.Errorf("MCID = %#v", dict["MCID"])
	}
}

func TestParseKeywords(t *testing.T) {
	ops := mustParse(t, "true false null d0")
	if len(ops) != 1 || len(ops[0].Operands) != 3 {
		t.Fatalf("unexpected ops: %+v", ops)
	}
	if ops[0].Operands[0] != types.Boolean(true) || ops[0].Operands[1] != types.Boolean(false) || ops[0].Operands[2] != nil {
		t.Errorf("unexpected operands: %#v", ops[0].Operands)
	}
}

func TestParseOperatorForms(t *testing.T) {
	ops := mustParse(t, "T* (a) ' 1 2 (b) \" f* B* d1 sh")
	want := []string{"T*", "'", "\"", "f*", "B*", "d1", "sh"}
	got := operators(ops)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("operator %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseComments(t *testing.T) {
	ops := mustParse(t, "% header comment\n10 20 m % trailing\n30 40 l\nS")
	if got := operators(ops); len(got) != 3 || got[2] != "S" {
		t.Errorf("unexpected operators: %v", got)
	}
}

func TestParseOffsets(t *testing.T) {
	ops := mustParse(t, "q 1 0 0 1 5 5 cm")
	if ops[0].Offset != 0 || ops[1].Offset != 14 {
		t.Errorf("offsets = %d, %d", ops[0].Offset, ops[1].Offset)
	}
}

func TestParseRecoversFromBadTokens(t *testing.T) {
	input := "10 20 m ) 30 40 l <zz> 1 w 1.2.3 S"
	ops, err := Parse([]byte(input))
	if err == nil {
		t.Fatal("expected syntax errors")
	}

	var perrs ParseErrors
	if !errors.As(err, &perrs) {
		t.Fatalf("expected ParseErrors, got %T", err)
	}
	if len(perrs) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(perrs), err)
	}

	got := operators(ops)
	want := []string{"m", "l", "w", "S"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if n, _ := ops[1].Numbers(); len(n) != 2 || n[0] != 30 {
		t.Errorf("operands of l = %v", n)
	}
}

func TestParseUnclosedString(t *testing.T) {
	ops, err := Parse([]byte("q (never closed"))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(ops) != 1 || ops[0].Operator != "q" {
		t.Errorf("expected q to survive, got %v", operators(ops))
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t  "} {
		ops, err := Parse([]byte(input))
		if err != nil || len(ops) != 0 {
			t.Errorf("Parse(%q) = %v, %v", input, ops, err)
		}
	}
}

func TestOperationNumbers(t *testing.T) {
	ops := mustParse(t, "1 0 0 1 100.5 200 cm /X 1 Tf")

	nums, ok := ops[0].Numbers()
	if !ok || len(nums) != 6 || nums[4] != 100.5 {
		t.Errorf("Numbers() = %v, %v", nums, ok)
	}
	if _, ok := ops[1].Numbers(); ok {
		t.Error("Numbers() should fail with a name operand")
	}
	if v, ok := ops[1].Number(1); !ok || v != 1 {
		t.Errorf("Number(1) = %v, %v", v, ok)
	}
	if _, ok := ops[1].Number(5); ok {
		t.Error("Number out of range should fail")
	}
}

func TestIsDelimiter(t *testing.T) {
	for _, d := range []byte{'(', ')', '<', '>', '[', ']', '{', '}', '/', '%'} {
		if !isDelimiter(d) {
			t.Errorf("isDelimiter(%q) = false, want true", d)
		}
	}
	for _, nd := range []byte{'a', 'z', '0', '9', ' ', '\n', '*', '\''} {
		if isDelimiter(nd) {
			t.Errorf("isDelimiter(%q) = true, want false", nd)
		}
	}
}

func TestHexValue(t *testing.T) {
	tests := map[byte]byte{'0': 0, '9': 9, 'a': 10, 'f': 15, 'A': 10, 'F': 15}
	for in, want := range tests {
		if got := hexValue(in); got != want {
			t.Errorf("hexValue(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestOperationBytes(t *testing.T) {
	ops := mustParse(t, "(a\\(b) <48 69> 7 Tj")
	op := ops[0]

	if b, ok := op.Bytes(0); !ok || string(b) != "a(b" {
		t.Errorf("literal = %q, %v", b, ok)
	}
	if b, ok := op.Bytes(1); !ok || string(b) != "Hi" {
		t.Errorf("hex = %q, %v", b, ok)
	}
	if _, ok := op.Bytes(2); ok {
		t.Error("a number is not a string")
	}
	if _, ok := op.Bytes(3); ok {
		t.Error("out of range operand should fail")
	}
}

func TestOperationArray(t *testing.T) {
	ops := mustParse(t, "[(A) -120 (B)] TJ")
	arr, ok := ops[0].Array(0)
	if !ok || len(arr) != 3 {
		t.Fatalf("Array(0) = %v, %v", arr, ok)
	}
	if v, ok := ToFloat(arr[1]); !ok || v != -120 {
		t.Errorf("kern = %v, %v", v, ok)
	}
	if _, ok := ops[0].Array(1); ok {
		t.Error("out of range operand should fail")
	}
}
