package contentstream

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Operation is a single content stream operator with the operands that
// preceded it. Offset is the byte position of the operator token.
type Operation struct {
	Operator    string
	Operands    []types.Object
	Offset      int
	InlineImage *InlineImage // set only for BI
}

// ParseError is a recoverable syntax error at a byte offset.
type ParseError struct {
	Offset int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseErrors is returned by Parse when some tokens had to be skipped.
// The operations recovered around them are still returned.
type ParseErrors []*ParseError

func (e ParseErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%d syntax errors, first at %s", len(e), e[0].Error())
}

// Parser parses PDF content streams into a sequence of operations.
type Parser struct {
	data     []byte
	pos      int
	operands []types.Object
	ops      []Operation
	errs     ParseErrors
}

// NewParser creates a new content stream parser for the given data.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Parse parses the whole stream. Malformed tokens are skipped and reported
// through a ParseErrors value; the operations around them are kept.
func (p *Parser) Parse() ([]Operation, error) {
	for {
		p.skipSpaceAndComments()
		if p.pos >= len(p.data) {
			break
		}
		p.next()
	}

	if len(p.errs) > 0 {
		return p.ops, p.errs
	}
	return p.ops, nil
}

// Parse is shorthand for NewParser(data).Parse().
func Parse(data []byte) ([]Operation, error) {
	return NewParser(data).Parse()
}

func (p *Parser) fail(offset int, format string, args ...interface{}) {
	p.errs = append(p.errs, &ParseError{Offset: offset, Err: fmt.Errorf(format, args...)})
}

// next consumes one token: an operand is pushed on the operand stack, an
// operator flushes the stack into an Operation.
func (p *Parser) next() {
	start := p.pos
	c := p.data[p.pos]

	if isRegular(c) && !isNumberStart(c) {
		word := p.readWord()
		switch word {
		case "true":
			p.operands = append(p.operands, types.Boolean(true))
		case "false":
			p.operands = append(p.operands, types.Boolean(false))
		case "null":
			p.operands = append(p.operands, nil)
		case "BI":
			p.parseInlineImage(start)
		default:
			p.emit(word, start)
		}
		return
	}

	obj, err := p.parseObject()
	if err != nil {
		p.fail(start, "%v", err)
		if p.pos == start {
			p.pos++
		}
		p.skipToBoundary()
		return
	}
	p.operands = append(p.operands, obj)
}

func (p *Parser) emit(operator string, offset int) {
	op := Operation{Operator: operator, Offset: offset}
	if len(p.operands) > 0 {
		op.Operands = make([]types.Object, len(p.operands))
		copy(op.Operands, p.operands)
	}
	p.ops = append(p.ops, op)
	p.operands = p.operands[:0]
}

// parseObject parses a single operand: number, string, name, array or
// dictionary.
func (p *Parser) parseObject() (types.Object, error) {
	p.skipSpaceAndComments()
	if p.pos >= len(p.data) {
		return nil, fmt.Errorf("unexpected end of stream")
	}

	c := p.data[p.pos]
	switch {
	case isNumberStart(c):
		return p.parseNumber()
	case c == '(':
		return p.parseString()
	case c == '<' && p.peek(1) == '<':
		return p.parseDict()
	case c == '<':
		return p.parseHexString()
	case c == '/':
		return p.parseName(), nil
	case c == '[':
		return p.parseArray()
	case isRegular(c):
		word := p.readWord()
		switch word {
		case "true":
			return types.Boolean(true), nil
		case "false":
			return types.Boolean(false), nil
		case "null":
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected keyword %q inside object", word)
	}

	return nil, fmt.Errorf("unexpected character %q", c)
}

// parseNumber parses an integer or real number operand.
func (p *Parser) parseNumber() (types.Object, error) {
	start := p.pos
	for p.pos < len(p.data) && isRegular(p.data[p.pos]) {
		p.pos++
	}
	tok := string(p.data[start:p.pos])

	if !strings.ContainsAny(tok, ".eE") {
		if v, err := strconv.Atoi(tok); err == nil {
			return types.Integer(v), nil
		}
	}
	// Tolerate doubled signs such as "--5".
	for len(tok) > 1 && (tok[0] == '-' || tok[0] == '+') && (tok[1] == '-' || tok[1] == '+') {
		tok = tok[1:]
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", tok)
	}
	return types.Float(v), nil
}

// parseString parses a literal string (...) and returns its decoded bytes.
func (p *Parser) parseString() (types.Object, error) {
	p.pos++ // (

	var out bytes.Buffer
	depth := 1

	for p.pos < len(p.data) {
		c := p.data[p.pos]
		p.pos++

		switch c {
		case '(':
			depth++
			out.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return types.StringLiteral(out.String()), nil
			}
			out.WriteByte(c)
		case '\\':
			p.unescape(&out)
		default:
			out.WriteByte(c)
		}
	}

	return nil, fmt.Errorf("unclosed string")
}

func (p *Parser) unescape(out *bytes.Buffer) {
	if p.pos >= len(p.data) {
		return
	}
	c := p.data[p.pos]
	p.pos++

	switch c {
	case 'n':
		out.WriteByte('\n')
	case 'r':
		out.WriteByte('\r')
	case 't':
		out.WriteByte('\t')
	case 'b':
		out.WriteByte('\b')
	case 'f':
		out.WriteByte('\f')
	case '\r':
		if p.pos < len(p.data) && p.data[p.pos] == '\n' {
			p.pos++
		}
	case '\n':
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := int(c - '0')
		for i := 0; i < 2 && p.pos < len(p.data); i++ {
			d := p.data[p.pos]
			if d < '0' || d > '7' {
				break
			}
			v = v*8 + int(d-'0')
			p.pos++
		}
		out.WriteByte(byte(v))
	default:
		out.WriteByte(c)
	}
}

// parseHexString parses <...>. The result holds the normalized hex digits,
// padded to an even count.
func (p *Parser) parseHexString() (types.Object, error) {
	p.pos++ // <

	var digits strings.Builder
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		p.pos++

		switch {
		case c == '>':
			if digits.Len()%2 == 1 {
				digits.WriteByte('0')
			}
			return types.HexLiteral(digits.String()), nil
		case isWhitespace(c):
		case isHexDigit(c):
			digits.WriteByte(c)
		default:
			for p.pos < len(p.data) && p.data[p.pos] != '>' {
				p.pos++
			}
			if p.pos < len(p.data) {
				p.pos++
			}
			return nil, fmt.Errorf("invalid hex digit %q", c)
		}
	}

	return nil, fmt.Errorf("unclosed hex string")
}

// parseName parses /Name with #xx escapes.
func (p *Parser) parseName() types.Object {
	p.pos++ // /

	var out bytes.Buffer
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if !isRegular(c) {
			break
		}
		if c == '#' && p.pos+2 < len(p.data) && isHexDigit(p.data[p.pos+1]) && isHexDigit(p.data[p.pos+2]) {
			out.WriteByte(hexValue(p.data[p.pos+1])<<4 | hexValue(p.data[p.pos+2]))
			p.pos += 3
			continue
		}
		out.WriteByte(c)
		p.pos++
	}

	return types.Name(out.String())
}

func (p *Parser) parseArray() (types.Object, error) {
	p.pos++ // [

	arr := types.Array{}
	for {
		p.skipSpaceAndComments()
		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("unclosed array")
		}
		if p.data[p.pos] == ']' {
			p.pos++
			return arr, nil
		}

		obj, err := p.parseObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict() (types.Object, error) {
	p.pos += 2 // <<

	dict := types.Dict{}
	for {
		p.skipSpaceAndComments()
		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("unclosed dictionary")
		}
		if p.data[p.pos] == '>' && p.peek(1) == '>' {
			p.pos += 2
			return dict, nil
		}
		if p.data[p.pos] != '/' {
			return nil, fmt.Errorf("dictionary key must be a name")
		}

		key := p.parseName().(types.Name)
		value, err := p.parseObject()
		if err != nil {
			return nil, err
		}
		dict[string(key)] = value
	}
}

func (p *Parser) readWord() string {
	start := p.pos
	for p.pos < len(p.data) && isRegular(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

func (p *Parser) peek(n int) byte {
	if p.pos+n < len(p.data) {
		return p.data[p.pos+n]
	}
	return 0
}

// skipToBoundary advances past the rest of a bad token.
func (p *Parser) skipToBoundary() {
	for p.pos < len(p.data) && isRegular(p.data[p.pos]) {
		p.pos++
	}
}

func (p *Parser) skipSpaceAndComments() {
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch {
		case isWhitespace(c):
			p.pos++
		case c == '%':
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
		default:
			return
		}
	}
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

// isDelimiter reports whether c is a PDF delimiter character.
func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(c byte) bool {
	return !isWhitespace(c) && !isDelimiter(c)
}

func isNumberStart(c byte) bool {
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}

// isHexDigit reports whether c is a hexadecimal digit.
func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// hexValue returns the numeric value of a hexadecimal digit.
func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
