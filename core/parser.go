package core

import (
	"encoding/hex"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
)

// ReferenceResolver resolves indirect references while parsing. The parser
// needs it only for stream /Length entries given as references.
type ReferenceResolver interface {
	ResolveReference(ref Ref) (Object, error)
}

// Parser parses PDF objects from an io.Reader using a Lexer for
// tokenization. It keeps one token of lookahead.
type Parser struct {
	lexer    *Lexer
	cur      *Token
	peek     *Token
	resolver ReferenceResolver
}

// NewParser creates a new PDF parser for the given reader.
func NewParser(r io.Reader) *Parser {
	p := &Parser{lexer: NewLexer(r)}
	// Errors surface again on the first ParseObject call.
	_ = p.advance()
	_ = p.advance()
	return p
}

// SetReferenceResolver sets the resolver used for indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// advance shifts the lookahead. Once the stream keyword becomes current the
// following bytes are binary, so nothing more is tokenized.
func (p *Parser) advance() error {
	p.cur = p.peek
	if p.cur.is(TokenKeyword, "stream") {
		p.peek = nil
		return nil
	}
	tok, err := p.lexer.NextToken()
	if err != nil {
		p.peek = nil
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) skipComments() error {
	for p.cur != nil && p.cur.Type == TokenComment {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

// ParseObject parses and returns the next PDF object from the input.
func (p *Parser) ParseObject() (Object, error) {
	if err := p.skipComments(); err != nil {
		return nil, err
	}
	if p.cur == nil {
		return nil, errors.New("unexpected end of input")
	}

	tok := p.cur
	switch tok.Type {
	case TokenEOF:
		return nil, io.EOF
	case TokenKeyword:
		var obj Object
		switch string(tok.Value) {
		case "null":
			obj = Null{}
		case "true":
			obj = Bool(true)
		case "false":
			obj = Bool(false)
		default:
			return nil, errors.Newf("unexpected keyword %q at position %d", tok.Value, tok.Pos)
		}
		return obj, p.advance()
	case TokenInteger:
		return p.parseNumber()
	case TokenReal:
		f, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid real number at position %d", tok.Pos)
		}
		return Real(f), p.advance()
	case TokenString:
		return String(tok.Value), p.advance()
	case TokenHexString:
		digits := tok.Value
		if len(digits)%2 != 0 {
			digits = append(digits, '0')
		}
		raw := make([]byte, len(digits)/2)
		if _, err := hex.Decode(raw, digits); err != nil {
			return nil, errors.Wrapf(err, "invalid hex string at position %d", tok.Pos)
		}
		return String(raw), p.advance()
	case TokenName:
		return Name(tok.Value), p.advance()
	case TokenArrayStart:
		return p.parseArray()
	case TokenDictStart:
		return p.parseDict()
	}
	return nil, errors.Newf("unexpected token %q at position %d", tok.Value, tok.Pos)
}

// parseNumber parses an integer, a real, or a "num gen R" reference.
func (p *Parser) parseNumber() (Object, error) {
	first, err := strconv.ParseInt(string(p.cur.Value), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(p.cur.Value), 64)
		if ferr != nil {
			return nil, errors.Newf("invalid number %q at position %d", p.cur.Value, p.cur.Pos)
		}
		return Real(f), p.advance()
	}
	if p.peek == nil || p.peek.Type != TokenInteger {
		return Int(first), p.advance()
	}
	second, err := strconv.ParseInt(string(p.peek.Value), 10, 64)
	if err != nil {
		return Int(first), p.advance()
	}
	// Step onto the second integer; if no R follows, it stays current and
	// becomes the next object.
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.peek == nil || p.peek.Type != TokenRef {
		return Int(first), nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return Ref{Number: int(first), Generation: int(second)}, p.advance()
}

func (p *Parser) parseArray() (Object, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	arr := NewArray()
	for {
		if err := p.skipComments(); err != nil {
			return nil, err
		}
		if p.cur == nil || p.cur.Type == TokenEOF {
			return nil, errors.New("unexpected end of input in array")
		}
		if p.cur.Type == TokenArrayEnd {
			return arr, p.advance()
		}
		obj, err := p.ParseObject()
		if err != nil {
			return nil, errors.Wrap(err, "parsing array element")
		}
		arr.Append(obj)
	}
}

func (p *Parser) parseDict() (Object, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	dict := NewDict()
	for {
		if err := p.skipComments(); err != nil {
			return nil, err
		}
		if p.cur == nil || p.cur.Type == TokenEOF {
			return nil, errors.New("unexpected end of input in dictionary")
		}
		if p.cur.Type == TokenDictEnd {
			return dict, p.advance()
		}
		if p.cur.Type != TokenName {
			return nil, errors.Newf("expected name for dictionary key at position %d", p.cur.Pos)
		}
		key := string(p.cur.Value)
		if err := p.advance(); err != nil {
			return nil, err
		}
		value, err := p.ParseObject()
		if err != nil {
			return nil, errors.Wrapf(err, "parsing value for key %q", key)
		}
		dict.Set(key, value)
	}
}

func (p *Parser) expectInt(what string) (int, error) {
	if p.cur == nil || p.cur.Type != TokenInteger {
		return 0, errors.Newf("expected %s", errors.Safe(what))
	}
	n, err := strconv.Atoi(string(p.cur.Value))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", errors.Safe(what))
	}
	return n, p.advance()
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.cur.is(TokenKeyword, kw) {
		return errors.Newf("expected %q keyword", kw)
	}
	return p.advance()
}

// ParseIndirectObject parses "num gen obj <object> endobj", where the object
// may be a dictionary followed by stream data.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	if err := p.skipComments(); err != nil {
		return nil, err
	}
	num, err := p.expectInt("object number")
	if err != nil {
		return nil, err
	}
	gen, err := p.expectInt("generation number")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("obj"); err != nil {
		return nil, err
	}
	obj, err := p.ParseObject()
	if err != nil {
		return nil, errors.Wrapf(err, "parsing object %d %d", num, gen)
	}
	if p.cur.is(TokenKeyword, "stream") {
		dict, ok := obj.(*Dict)
		if !ok {
			return nil, errors.Newf("object %d %d: stream must follow a dictionary", num, gen)
		}
		if obj, err = p.parseStream(dict); err != nil {
			return nil, errors.Wrapf(err, "object %d %d", num, gen)
		}
	}
	if err := p.expectKeyword("endobj"); err != nil {
		return nil, errors.Wrapf(err, "object %d %d", num, gen)
	}
	return &IndirectObject{Ref: Ref{Number: num, Generation: gen}, Object: obj}, nil
}

// parseStream reads /Length bytes of data after the stream keyword.
func (p *Parser) parseStream(dict *Dict) (*Stream, error) {
	var length int
	switch v := dict.Get("Length").(type) {
	case Int:
		length = int(v)
	case Ref:
		if p.resolver == nil {
			return nil, errors.New("indirect stream length requires a reference resolver")
		}
		resolved, err := p.resolver.ResolveReference(v)
		if err != nil {
			return nil, errors.Wrap(err, "resolving stream length")
		}
		n, ok := resolved.(Int)
		if !ok {
			return nil, errors.Newf("stream length %s is not an integer", v)
		}
		length = int(n)
	case nil:
		return nil, errors.New("stream dictionary missing /Length")
	default:
		return nil, errors.Newf("invalid stream length type %s", v.Type())
	}
	if length < 0 {
		return nil, errors.Newf("invalid stream length %d", length)
	}

	if err := p.lexer.SkipStreamEOL(); err != nil {
		return nil, err
	}
	data, err := p.lexer.ReadBytes(length)
	if err != nil {
		return nil, errors.Wrap(err, "reading stream data")
	}
	tok, err := p.lexer.NextToken()
	if err != nil {
		return nil, err
	}
	if !tok.is(TokenKeyword, "endstream") {
		return nil, errors.Newf("expected endstream at position %d", tok.Pos)
	}
	// Refill the lookahead past endstream.
	p.peek = nil
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &Stream{Dict: dict, Data: data}, nil
}
