// Package schema parses Lambda schema files and validates typed items
// against them.
//
// A schema is a list of named type declarations:
//
//	type Author = {name: string, email: string?, tags: [symbol]}
//	type Doc    = <doc title: string; Section*>
//	type Section = <section; (string | Para)+>
//
// Validation walks an item and its descriptor together and records every
// mismatch as a ValidationError carrying a breadcrumb path to the offending
// value.
package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Neumenon/lambda/lambda"
)

// Schema holds named type declarations. Descriptors are immutable after
// Parse and may be shared by concurrent validators.
type Schema struct {
	Types map[string]lambda.Type
	Order []string

	doc *lambda.Document
}

// Lookup returns the declaration for name.
func (s *Schema) Lookup(name string) (lambda.Type, bool) {
	t, ok := s.Types[name]
	return t, ok
}

// Root returns the first declared type, or nil for an empty schema.
func (s *Schema) Root() lambda.Type {
	if len(s.Order) == 0 {
		return nil
	}
	return s.Types[s.Order[0]]
}

// RootName returns the name of the first declared type.
func (s *Schema) RootName() string {
	if len(s.Order) == 0 {
		return ""
	}
	return s.Order[0]
}

// Canonical renders the schema with declarations sorted by name.
func (s *Schema) Canonical() string {
	names := append([]string(nil), s.Order...)
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "type %s = %s\n", name, declString(s.Types[name]))
	}
	return sb.String()
}

// declString renders a declaration body; references print as their name so
// recursive types terminate.
func declString(t lambda.Type) string {
	if r, ok := t.(*lambda.RefType); ok && r.Target != nil {
		return r.Target.String()
	}
	return t.String()
}

// Close releases the arena that holds the schema's interned names.
func (s *Schema) Close() error {
	if s.doc == nil {
		return nil
	}
	return s.doc.Close()
}

// ============================================================
// Parser
// ============================================================

// Parse reads schema source. Errors are *lambda.ParseError values carrying
// the line and column of the offending token.
func Parse(src string) (*Schema, error) {
	tokens, err := lambda.NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	doc, err := lambda.NewDocument(lambda.WithGrowSize(4 << 10))
	if err != nil {
		return nil, errors.Wrap(err, "schema arena")
	}

	p := &parser{
		stream: lambda.NewTokenStream(tokens),
		doc:    doc,
		schema: &Schema{Types: make(map[string]lambda.Type), doc: doc},
		decls:  make(map[string]lambda.Token),
	}
	if err := p.parseDecls(); err != nil {
		doc.Close()
		return nil, err
	}
	if err := p.resolveRefs(); err != nil {
		doc.Close()
		return nil, err
	}
	return p.schema, nil
}

type parser struct {
	stream *lambda.TokenStream
	doc    *lambda.Document
	schema *Schema
	refs   []refUse
	decls  map[string]lambda.Token
}

type refUse struct {
	ref *lambda.RefType
	tok lambda.Token
}

func (p *parser) errorf(tok lambda.Token, format string, args ...any) error {
	return &lambda.ParseError{Message: fmt.Sprintf(format, args...), Pos: tok.Pos}
}

func (p *parser) parseDecls() error {
	for !p.stream.AtEnd() {
		if p.stream.Match(lambda.TokenSemicolon) {
			continue
		}
		kw := p.stream.Advance()
		if kw.Type != lambda.TokenIdent || kw.Value != "type" {
			return p.errorf(kw, "expected type declaration, got %s", kw)
		}
		name := p.stream.Advance()
		if name.Type != lambda.TokenIdent {
			return p.errorf(name, "expected type name, got %s", name)
		}
		if _, dup := p.schema.Types[name.Value]; dup {
			return p.errorf(name, "type %s declared twice", name.Value)
		}
		if _, err := p.stream.Expect(lambda.TokenEq); err != nil {
			return err
		}
		t, err := p.parseExpr()
		if err != nil {
			return err
		}
		p.schema.Types[name.Value] = t
		p.schema.Order = append(p.schema.Order, name.Value)
		p.decls[name.Value] = name
	}
	return nil
}

func (p *parser) resolveRefs() error {
	for _, use := range p.refs {
		target, ok := p.schema.Types[use.ref.Name]
		if !ok {
			return p.errorf(use.tok, "undefined type %s", use.ref.Name)
		}
		use.ref.Target = target
	}
	for _, name := range p.schema.Order {
		if reachesSelf(p.schema.Types[name], name, make(map[string]bool)) {
			return p.errorf(p.decls[name], "type %s refers to itself without nesting", name)
		}
	}
	return nil
}

// reachesSelf reports whether t leads back to the declaration name through
// references, unions and occurrences alone. Such a type never enters a
// container, so validating against it would not terminate.
func reachesSelf(t lambda.Type, name string, seen map[string]bool) bool {
	switch tt := t.(type) {
	case *lambda.RefType:
		if tt.Name == name {
			return true
		}
		if seen[tt.Name] {
			return false
		}
		seen[tt.Name] = true
		return reachesSelf(tt.Target, name, seen)
	case *lambda.UnionType:
		for _, m := range tt.Members {
			if reachesSelf(m, name, seen) {
				return true
			}
		}
	case *lambda.OccurrenceType:
		return reachesSelf(tt.Operand, name, seen)
	}
	return false
}

// parseExpr parses a union.
func (p *parser) parseExpr() (lambda.Type, error) {
	first, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.stream.Peek().Type != lambda.TokenPipe {
		return first, nil
	}
	u := &lambda.UnionType{Members: []lambda.Type{first}}
	for p.stream.Match(lambda.TokenPipe) {
		next, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		u.Members = append(u.Members, next)
	}
	return u, nil
}

func (p *parser) parsePostfix() (lambda.Type, error) {
	t, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		var op byte
		switch p.stream.Peek().Type {
		case lambda.TokenQuestion:
			op = lambda.OccurOptional
		case lambda.TokenPlus:
			op = lambda.OccurOneOrMore
		case lambda.TokenStar:
			op = lambda.OccurZeroOrMore
		default:
			return t, nil
		}
		p.stream.Advance()
		t = &lambda.OccurrenceType{Operand: t, Op: op}
	}
}

func (p *parser) parsePrimary() (lambda.Type, error) {
	tok := p.stream.Peek()
	switch tok.Type {
	case lambda.TokenNull:
		p.stream.Advance()
		return lambda.Primitive(lambda.TypeNull), nil

	case lambda.TokenIdent:
		p.stream.Advance()
		if id, ok := lambda.TypeIDByName(tok.Value); ok {
			return primitiveFor(id), nil
		}
		ref := &lambda.RefType{Name: tok.Value}
		p.refs = append(p.refs, refUse{ref: ref, tok: tok})
		return ref, nil

	case lambda.TokenLBracket:
		return p.parseArray()

	case lambda.TokenLParen:
		return p.parseParen()

	case lambda.TokenLBrace:
		p.stream.Advance()
		mt := &lambda.MapType{}
		if err := p.parseFields(mt, lambda.TokenRBrace); err != nil {
			return nil, err
		}
		if _, err := p.stream.Expect(lambda.TokenRBrace); err != nil {
			return nil, err
		}
		return mt, nil

	case lambda.TokenLT:
		return p.parseElement()
	}
	return nil, p.errorf(tok, "expected type, got %s", tok)
}

// primitiveFor maps container names used as bare types to open descriptors.
func primitiveFor(id lambda.TypeID) lambda.Type {
	switch id {
	case lambda.TypeArray:
		return &lambda.ArrayType{Length: -1, Nested: lambda.AnyType}
	case lambda.TypeList:
		return &lambda.ListType{Length: -1, Nested: lambda.AnyType}
	case lambda.TypeMap:
		return &lambda.MapType{}
	case lambda.TypeElement:
		return &lambda.ElementType{ContentLength: -1}
	}
	return lambda.Primitive(id)
}

// parseArray parses [T] or [T; n].
func (p *parser) parseArray() (lambda.Type, error) {
	p.stream.Advance() // [
	nested, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	at := &lambda.ArrayType{Length: -1, Nested: nested}
	if p.stream.Match(lambda.TokenSemicolon) {
		n := p.stream.Advance()
		if n.Type != lambda.TokenInt {
			return nil, p.errorf(n, "expected array length, got %s", n)
		}
		v, err := strconv.Atoi(n.Value)
		if err != nil || v < 0 {
			return nil, p.errorf(n, "invalid array length %s", n.Value)
		}
		at.Length = v
	}
	if _, err := p.stream.Expect(lambda.TokenRBracket); err != nil {
		return nil, err
	}
	return at, nil
}

// parseParen parses a grouping (T) or a positional list (T, U, ...).
func (p *parser) parseParen() (lambda.Type, error) {
	p.stream.Advance() // (
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.stream.Match(lambda.TokenRParen) {
		return first, nil
	}
	members := []lambda.Type{first}
	for p.stream.Match(lambda.TokenComma) {
		if p.stream.Peek().Type == lambda.TokenRParen {
			break
		}
		next, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		members = append(members, next)
	}
	if _, err := p.stream.Expect(lambda.TokenRParen); err != nil {
		return nil, err
	}
	return &lambda.ListType{Length: sequenceLength(members), Members: members, Nested: lambda.AnyType}, nil
}

// parseFields parses name: type pairs up to closing into mt's shape.
func (p *parser) parseFields(mt *lambda.MapType, closing ...lambda.TokenType) error {
	for {
		tok := p.stream.Peek()
		for _, c := range closing {
			if tok.Type == c {
				return nil
			}
		}
		if p.stream.Match(lambda.TokenComma) {
			continue
		}
		key := p.stream.Advance()
		switch key.Type {
		case lambda.TokenIdent, lambda.TokenString, lambda.TokenSymbol,
			lambda.TokenNull, lambda.TokenTrue, lambda.TokenFalse:
		default:
			return p.errorf(key, "expected field name, got %s", key)
		}
		if e, _ := mt.Lookup(key.Value); e != nil {
			return p.errorf(key, "field %s declared twice", key.Value)
		}
		if _, err := p.stream.Expect(lambda.TokenColon); err != nil {
			return err
		}
		ft, err := p.parseExpr()
		if err != nil {
			return err
		}
		name, err := p.doc.Name(key.Value)
		if err != nil {
			return err
		}
		mt.AddEntry(&lambda.ShapeEntry{Name: name, Type: ft})
	}
}

// parseElement parses <tag attrs (; content)?>. The tag * accepts any
// element name.
func (p *parser) parseElement() (lambda.Type, error) {
	open := p.stream.Advance() // <
	et := &lambda.ElementType{ContentLength: -1}

	tag := p.stream.Advance()
	switch tag.Type {
	case lambda.TokenStar:
	case lambda.TokenIdent, lambda.TokenString:
		name, err := p.doc.Name(tag.Value)
		if err != nil {
			return nil, err
		}
		et.Name = name
	default:
		return nil, p.errorf(tag, "expected element tag, got %s", tag)
	}

	if err := p.parseFields(&et.MapType, lambda.TokenSemicolon, lambda.TokenGT); err != nil {
		return nil, err
	}
	if p.stream.Match(lambda.TokenSemicolon) {
		for p.stream.Peek().Type != lambda.TokenGT {
			if p.stream.AtEnd() {
				return nil, p.errorf(open, "unterminated element type")
			}
			if p.stream.Match(lambda.TokenComma) {
				continue
			}
			c, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			et.Content = append(et.Content, c)
		}
		et.ContentLength = sequenceLength(et.Content)
	}
	if _, err := p.stream.Expect(lambda.TokenGT); err != nil {
		return nil, err
	}
	return et, nil
}

// sequenceLength is the exact item count a content list demands, or -1 when
// an occurrence operator makes it variable.
func sequenceLength(members []lambda.Type) int {
	for _, m := range members {
		if _, ok := m.(*lambda.OccurrenceType); ok {
			return -1
		}
	}
	return len(members)
}
