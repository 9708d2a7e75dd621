package core

import (
	"bufio"
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
)

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenComment
	TokenKeyword    // true, false, null, obj, endobj, stream, xref, trailer, n, f, ...
	TokenInteger    // 123
	TokenReal       // 3.14
	TokenString     // (hello)
	TokenHexString  // <48656C6C6F>
	TokenName       // /Type
	TokenArrayStart // [
	TokenArrayEnd   // ]
	TokenDictStart  // <<
	TokenDictEnd    // >>
	TokenRef        // R (after two integers)
)

// Token represents a lexical token. Value holds the decoded bytes for
// strings and names, and the literal text for everything else.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64
}

func (t *Token) is(typ TokenType, value string) bool {
	return t != nil && t.Type == typ && string(t.Value) == value
}

// Lexer splits PDF syntax into tokens.
type Lexer struct {
	r   *bufio.Reader
	pos int64
}

// NewLexer creates a new lexer
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{r: bufio.NewReader(r)}
}

// Pos returns the offset of the next unread byte.
func (l *Lexer) Pos() int64 { return l.pos }

// NextToken returns the next token from the input. Whitespace is skipped;
// comments are returned as TokenComment.
func (l *Lexer) NextToken() (*Token, error) {
	if err := l.skipWhitespace(); err != nil && err != io.EOF {
		return nil, err
	}
	b, err := l.peek()
	if err == io.EOF {
		return &Token{Type: TokenEOF, Pos: l.pos}, nil
	}
	if err != nil {
		return nil, err
	}

	start := l.pos
	switch {
	case b == '%':
		return l.readComment()
	case b == '[':
		l.readByte()
		return &Token{Type: TokenArrayStart, Value: []byte("["), Pos: start}, nil
	case b == ']':
		l.readByte()
		return &Token{Type: TokenArrayEnd, Value: []byte("]"), Pos: start}, nil
	case b == '(':
		return l.readString()
	case b == '<':
		if next, err := l.r.Peek(2); err == nil && next[1] == '<' {
			l.skip(2)
			return &Token{Type: TokenDictStart, Value: []byte("<<"), Pos: start}, nil
		}
		return l.readHexString()
	case b == '>':
		if next, err := l.r.Peek(2); err == nil && next[1] == '>' {
			l.skip(2)
			return &Token{Type: TokenDictEnd, Value: []byte(">>"), Pos: start}, nil
		}
		return nil, errors.Newf("unexpected '>' at position %d", start)
	case b == '/':
		return l.readName()
	case isDigit(b) || b == '-' || b == '+' || b == '.':
		return l.readNumber()
	case isAlpha(b):
		return l.readKeyword()
	}
	return nil, errors.Newf("unexpected character %q at position %d", b, start)
}

func (l *Lexer) readByte() (byte, error) {
	b, err := l.r.ReadByte()
	if err != nil {
		return 0, err
	}
	l.pos++
	return b, nil
}

func (l *Lexer) peek() (byte, error) {
	p, err := l.r.Peek(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (l *Lexer) skip(n int) {
	d, _ := l.r.Discard(n)
	l.pos += int64(d)
}

func (l *Lexer) skipWhitespace() error {
	for {
		b, err := l.peek()
		if err != nil {
			return err
		}
		if !isWhitespace(b) {
			return nil
		}
		l.skip(1)
	}
}

// readComment reads from % to the end of the line.
func (l *Lexer) readComment() (*Token, error) {
	start := l.pos
	var buf bytes.Buffer
	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if b == '\r' || b == '\n' {
			l.skipEOL()
			break
		}
		l.skip(1)
		buf.WriteByte(b)
	}
	return &Token{Type: TokenComment, Value: buf.Bytes(), Pos: start}, nil
}

// skipEOL consumes one end-of-line marker: LF, CR or CR LF.
func (l *Lexer) skipEOL() {
	b, err := l.peek()
	if err != nil {
		return
	}
	switch b {
	case '\n':
		l.skip(1)
	case '\r':
		l.skip(1)
		if next, err := l.peek(); err == nil && next == '\n' {
			l.skip(1)
		}
	}
}

// readString reads a literal string, resolving escapes and balanced
// parentheses.
func (l *Lexer) readString() (*Token, error) {
	start := l.pos
	l.skip(1)
	var buf bytes.Buffer
	for depth := 1; ; {
		b, err := l.readByte()
		if err != nil {
			return nil, errors.Wrapf(err, "unterminated string at position %d", start)
		}
		switch b {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return &Token{Type: TokenString, Value: buf.Bytes(), Pos: start}, nil
			}
		case '\\':
			if err := l.readEscape(&buf); err != nil {
				return nil, err
			}
			continue
		}
		buf.WriteByte(b)
	}
}

func (l *Lexer) readEscape(buf *bytes.Buffer) error {
	next, err := l.readByte()
	if err != nil {
		return err
	}
	switch next {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '\r':
		// Line continuation.
		if p, err := l.peek(); err == nil && p == '\n' {
			l.skip(1)
		}
	case '\n':
	default:
		if !isOctalDigit(next) {
			buf.WriteByte(next)
			return nil
		}
		val := next - '0'
		for i := 0; i < 2; i++ {
			p, err := l.peek()
			if err != nil || !isOctalDigit(p) {
				break
			}
			l.skip(1)
			val = val*8 + (p - '0')
		}
		buf.WriteByte(val)
	}
	return nil
}

// readHexString reads <...>, keeping only the hex digits.
func (l *Lexer) readHexString() (*Token, error) {
	start := l.pos
	l.skip(1)
	var buf bytes.Buffer
	for {
		b, err := l.readByte()
		if err != nil {
			return nil, errors.Wrapf(err, "unterminated hex string at position %d", start)
		}
		switch {
		case b == '>':
			return &Token{Type: TokenHexString, Value: buf.Bytes(), Pos: start}, nil
		case isWhitespace(b):
		case isHexDigit(b):
			buf.WriteByte(b)
		default:
			return nil, errors.Newf("invalid hex digit %q at position %d", b, l.pos-1)
		}
	}
}

// readName reads /Name, decoding #xx escapes.
func (l *Lexer) readName() (*Token, error) {
	start := l.pos
	l.skip(1)
	var buf bytes.Buffer
	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.skip(1)
		if b != '#' {
			buf.WriteByte(b)
			continue
		}
		hx, err := l.r.Peek(2)
		if err != nil || !isHexDigit(hx[0]) || !isHexDigit(hx[1]) {
			return nil, errors.Newf("invalid hex escape in name at position %d", l.pos-1)
		}
		buf.WriteByte(hexValue(hx[0])<<4 | hexValue(hx[1]))
		l.skip(2)
	}
	return &Token{Type: TokenName, Value: buf.Bytes(), Pos: start}, nil
}

func (l *Lexer) readNumber() (*Token, error) {
	start := l.pos
	var buf bytes.Buffer
	isReal := false
loop:
	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch {
		case b == '.' && !isReal:
			isReal = true
		case isDigit(b):
		case (b == '-' || b == '+') && buf.Len() == 0:
		default:
			break loop
		}
		l.skip(1)
		buf.WriteByte(b)
	}
	typ := TokenInteger
	if isReal {
		typ = TokenReal
	}
	return &Token{Type: typ, Value: buf.Bytes(), Pos: start}, nil
}

func (l *Lexer) readKeyword() (*Token, error) {
	start := l.pos
	var buf bytes.Buffer
	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !isAlpha(b) && !isDigit(b) {
			break
		}
		l.skip(1)
		buf.WriteByte(b)
	}
	if buf.Len() == 1 && buf.Bytes()[0] == 'R' {
		return &Token{Type: TokenRef, Value: buf.Bytes(), Pos: start}, nil
	}
	return &Token{Type: TokenKeyword, Value: buf.Bytes(), Pos: start}, nil
}

// SkipStreamEOL consumes the end-of-line that must follow the stream
// keyword. A lone CR is tolerated.
func (l *Lexer) SkipStreamEOL() error {
	for {
		b, err := l.peek()
		if err != nil {
			return err
		}
		if b != ' ' && b != '\t' {
			break
		}
		l.skip(1)
	}
	l.skipEOL()
	return nil
}

// ReadBytes reads exactly n bytes of binary data.
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	data := make([]byte, n)
	read, err := io.ReadFull(l.r, data)
	l.pos += int64(read)
	if err != nil {
		return data[:read], errors.Wrapf(err, "expected %d bytes, got %d", n, read)
	}
	return data, nil
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isDigit(b byte) bool      { return b >= '0' && b <= '9' }
func isOctalDigit(b byte) bool { return b >= '0' && b <= '7' }
func isAlpha(b byte) bool      { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case isDigit(b):
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
