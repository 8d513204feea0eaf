// Package contentstream tokenizes PDF content streams into operations.
//
// Operands are pdfcpu object values (types.Integer, types.Float, types.Name,
// types.StringLiteral, types.HexLiteral, types.Array, types.Dict,
// types.Boolean, or nil for null):
//
//	ops, err := contentstream.Parse(data)
//	for _, op := range ops {
//	    fmt.Println(op.Operator, op.Operands)
//	}
//
// Parsing never stops at the first bad token. Malformed tokens are skipped,
// the error is recorded with its byte offset, and Parse returns every
// operation it could recover together with a ParseErrors value.
//
// Inline images (BI ... ID ... EI) become a single operation with operator
// BI whose InlineImage field holds the expanded dictionary and raw data.
package contentstream
