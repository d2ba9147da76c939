package lambda

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// ParseMark parses Mark text into items owned by d. The parsed value is also
// installed as the document root.
func ParseMark(d *Document, input string) (Item, error) {
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return Null, err
	}
	p := &markParser{d: d, stream: NewTokenStream(tokens)}
	if p.stream.AtEnd() {
		return Null, nil
	}
	v, err := p.parseValue(0)
	if err != nil {
		return Null, err
	}
	if tok := p.stream.Peek(); tok.Type != TokenEOF {
		return Null, &ParseError{Message: fmt.Sprintf("unexpected %s after value", tok), Pos: tok.Pos}
	}
	d.SetRoot(v)
	return v, nil
}

const maxMarkDepth = 512

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"15:04:05",
}

// ParseDateTime accepts RFC 3339 timestamps, bare dates and bare times.
func ParseDateTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}

type markParser struct {
	d      *Document
	stream *TokenStream
}

func (p *markParser) errorf(tok Token, format string, args ...any) error {
	return &ParseError{Message: fmt.Sprintf(format, args...), Pos: tok.Pos}
}

// parseValue parses any value.
func (p *markParser) parseValue(depth int) (Item, error) {
	tok := p.stream.Peek()
	if depth > maxMarkDepth {
		return Null, p.errorf(tok, "nesting deeper than %d", maxMarkDepth)
	}

	switch tok.Type {
	case TokenNull:
		p.stream.Advance()
		return Null, nil

	case TokenTrue, TokenFalse:
		p.stream.Advance()
		return Bool(tok.Type == TokenTrue), nil

	case TokenInt:
		p.stream.Advance()
		v, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return Null, p.errorf(tok, "invalid integer %s", tok.Value)
		}
		return p.d.Int(v), nil

	case TokenFloat:
		p.stream.Advance()
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return Null, p.errorf(tok, "invalid float %s", tok.Value)
		}
		return p.d.Float(v), nil

	case TokenDecimal:
		p.stream.Advance()
		it, err := p.d.ParseDecimal(tok.Value)
		if err != nil {
			return Null, p.errorf(tok, "invalid decimal %s", tok.Value)
		}
		return it, nil

	case TokenString:
		p.stream.Advance()
		return p.d.String(tok.Value)

	case TokenSymbol, TokenIdent:
		p.stream.Advance()
		return p.d.Symbol(tok.Value)

	case TokenBinary:
		p.stream.Advance()
		b, err := base64.StdEncoding.DecodeString(tok.Value)
		if err != nil {
			return Null, p.errorf(tok, "invalid base64 binary")
		}
		return p.d.Binary(b)

	case TokenDateTime:
		p.stream.Advance()
		t, err := ParseDateTime(tok.Value)
		if err != nil {
			return Null, p.errorf(tok, "%v", err)
		}
		return p.d.DateTime(t), nil

	case TokenLBracket:
		items, err := p.parseSequence(TokenRBracket, depth)
		if err != nil {
			return Null, err
		}
		return p.d.Array(items...), nil

	case TokenLParen:
		items, err := p.parseSequence(TokenRParen, depth)
		if err != nil {
			return Null, err
		}
		return p.d.List(items...), nil

	case TokenLBrace:
		return p.parseMap(depth)

	case TokenLT:
		return p.parseElement(depth)
	}

	return Null, p.errorf(tok, "unexpected %s", tok)
}

// parseSequence parses items up to the closing token. Commas are optional.
func (p *markParser) parseSequence(closing TokenType, depth int) ([]Item, error) {
	p.stream.Advance() // opening bracket
	var items []Item
	for {
		if p.stream.Match(closing) {
			return items, nil
		}
		if p.stream.AtEnd() {
			return nil, p.errorf(p.stream.Peek(), "expected %s", closing)
		}
		v, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.stream.Match(TokenComma)
	}
}

// parseKey parses a map key or attribute name.
func (p *markParser) parseKey() (string, error) {
	tok := p.stream.Advance()
	switch tok.Type {
	case TokenIdent, TokenString, TokenSymbol:
		return tok.Value, nil
	case TokenNull, TokenTrue, TokenFalse:
		return tok.Value, nil
	}
	return "", p.errorf(tok, "expected key, got %s", tok)
}

func (p *markParser) parseMap(depth int) (Item, error) {
	p.stream.Advance() // {
	b := p.d.NewMap()
	for {
		if p.stream.Match(TokenRBrace) {
			return b.Build()
		}
		if p.stream.AtEnd() {
			return Null, p.errorf(p.stream.Peek(), "expected }")
		}
		key, err := p.parseKey()
		if err != nil {
			return Null, err
		}
		if _, err := p.stream.Expect(TokenColon); err != nil {
			return Null, err
		}
		v, err := p.parseValue(depth + 1)
		if err != nil {
			return Null, err
		}
		b.Put(key, v)
		p.stream.Match(TokenComma)
	}
}

// parseElement parses <tag attr: v, ...; child child ...>. An identifier
// followed by a colon is an attribute; anything else is a child.
func (p *markParser) parseElement(depth int) (Item, error) {
	open := p.stream.Advance() // <
	tag := p.stream.Advance()
	if tag.Type != TokenIdent && tag.Type != TokenString {
		return Null, p.errorf(tag, "expected element tag, got %s", tag)
	}
	b := p.d.NewElement(tag.Value)
	for {
		tok := p.stream.Peek()
		switch {
		case tok.Type == TokenGT:
			p.stream.Advance()
			return b.Build()
		case tok.Type == TokenEOF:
			return Null, p.errorf(open, "unterminated element <%s>", tag.Value)
		case tok.Type == TokenComma || tok.Type == TokenSemicolon:
			p.stream.Advance()
		case (tok.Type == TokenIdent || tok.Type == TokenString) && p.stream.PeekN(1).Type == TokenColon:
			p.stream.Advance()
			p.stream.Advance()
			v, err := p.parseValue(depth + 1)
			if err != nil {
				return Null, err
			}
			b.Attr(tok.Value, v)
		default:
			v, err := p.parseValue(depth + 1)
			if err != nil {
				return Null, err
			}
			b.Child(v)
		}
	}
}
