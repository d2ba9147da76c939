package lambda

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TokenType represents the type of a lexer token.
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenNull     // null
	TokenTrue     // true
	TokenFalse    // false
	TokenInt      // 123, -456
	TokenFloat    // 1.5, -4e7, inf, nan
	TokenDecimal  // 12.50n
	TokenString   // "text"
	TokenSymbol   // 'name'
	TokenBinary   // b'base64'
	TokenDateTime // t'2025-01-02T10:00:00Z'
	TokenIdent    // name, Type, my-tag

	// Structural
	TokenLBrace    // {
	TokenRBrace    // }
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenLParen    // (
	TokenRParen    // )
	TokenLT        // <
	TokenGT        // >
	TokenColon     // :
	TokenComma     // ,
	TokenSemicolon // ;
	TokenPipe      // |
	TokenQuestion  // ?
	TokenPlus      // +
	TokenStar      // *
	TokenEq        // =
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "EOF",
	TokenError:     "ERROR",
	TokenNull:      "NULL",
	TokenTrue:      "TRUE",
	TokenFalse:     "FALSE",
	TokenInt:       "INT",
	TokenFloat:     "FLOAT",
	TokenDecimal:   "DECIMAL",
	TokenString:    "STRING",
	TokenSymbol:    "SYMBOL",
	TokenBinary:    "BINARY",
	TokenDateTime:  "DATETIME",
	TokenIdent:     "IDENT",
	TokenLBrace:    "{",
	TokenRBrace:    "}",
	TokenLBracket:  "[",
	TokenRBracket:  "]",
	TokenLParen:    "(",
	TokenRParen:    ")",
	TokenLT:        "<",
	TokenGT:        ">",
	TokenColon:     ":",
	TokenComma:     ",",
	TokenSemicolon: ";",
	TokenPipe:      "|",
	TokenQuestion:  "?",
	TokenPlus:      "+",
	TokenStar:      "*",
	TokenEq:        "=",
}

// String returns the token type name.
func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// Position represents a source location.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String returns position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexer token.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
}

// String returns a debug representation of the token.
func (t Token) String() string {
	if t.Value == "" {
		return t.Type.String()
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}

// Lexer tokenizes Mark and schema text.
type Lexer struct {
	input string
	pos   int
	line  int
	col   int
	err   error
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Tokenize returns all tokens from the input. The final token is EOF, or
// ERROR when the input could not be tokenized.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok := l.nextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	return tokens, l.err
}

var punct = map[byte]TokenType{
	'{': TokenLBrace, '}': TokenRBrace,
	'[': TokenLBracket, ']': TokenRBracket,
	'(': TokenLParen, ')': TokenRParen,
	'<': TokenLT, '>': TokenGT,
	':': TokenColon, ',': TokenComma, ';': TokenSemicolon,
	'|': TokenPipe, '?': TokenQuestion, '+': TokenPlus, '*': TokenStar,
	'=': TokenEq,
}

func (l *Lexer) nextToken() Token {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return l.fail(l.currentPos(), err.Error())
	}
	start := l.currentPos()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: start}
	}

	ch := l.peek()
	switch {
	case ch == '"':
		return l.scanQuoted(TokenString, '"', start)
	case ch == '\'':
		return l.scanQuoted(TokenSymbol, '\'', start)
	case (ch == 'b' || ch == 't') && l.peekAt(1) == '\'':
		typ := TokenBinary
		if ch == 't' {
			typ = TokenDateTime
		}
		l.advance()
		return l.scanQuoted(typ, '\'', start)
	case ch == '-' && (isDigit(l.peekAt(1)) || strings.HasPrefix(l.input[l.pos+1:], "inf")):
		return l.scanNumber(start)
	case isDigit(ch):
		return l.scanNumber(start)
	case isIdentStart(ch):
		return l.scanIdentOrKeyword(start)
	}

	if typ, ok := punct[ch]; ok {
		l.advance()
		return Token{Type: typ, Value: string(ch), Pos: start}
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return l.fail(start, fmt.Sprintf("unexpected character %q", r))
}

func (l *Lexer) fail(pos Position, msg string) Token {
	if l.err == nil {
		l.err = &ParseError{Message: msg, Pos: pos}
	}
	return Token{Type: TokenError, Value: msg, Pos: pos}
}

// scanQuoted scans a quoted literal with backslash escapes.
func (l *Lexer) scanQuoted(typ TokenType, quote byte, start Position) Token {
	l.advance() // opening quote

	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return l.fail(start, "unterminated literal")
		}
		ch := l.peek()
		if ch == quote {
			l.advance()
			break
		}
		if ch != '\\' {
			sb.WriteByte(ch)
			l.advance()
			continue
		}

		l.advance()
		if l.pos >= len(l.input) {
			return l.fail(start, "unterminated escape")
		}
		escaped := l.peek()
		l.advance()
		switch escaped {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '0':
			sb.WriteByte(0)
		case 'u':
			r, ok := l.scanUnicodeEscape()
			if !ok {
				return l.fail(start, "invalid unicode escape")
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte(escaped)
		}
	}
	return Token{Type: typ, Value: sb.String(), Pos: start}
}

// scanUnicodeEscape reads XXXX or {X..} after \u.
func (l *Lexer) scanUnicodeEscape() (rune, bool) {
	var digits string
	if l.peek() == '{' {
		end := strings.IndexByte(l.input[l.pos:], '}')
		if end < 0 {
			return 0, false
		}
		digits = l.input[l.pos+1 : l.pos+end]
		for i := 0; i <= end; i++ {
			l.advance()
		}
	} else {
		if l.pos+4 > len(l.input) {
			return 0, false
		}
		digits = l.input[l.pos : l.pos+4]
		for i := 0; i < 4; i++ {
			l.advance()
		}
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, false
	}
	return rune(v), true
}

// scanNumber scans an integer, float or decimal.
func (l *Lexer) scanNumber(start Position) Token {
	begin := l.pos
	if l.peek() == '-' {
		l.advance()
	}
	if strings.HasPrefix(l.input[l.pos:], "inf") {
		for i := 0; i < 3; i++ {
			l.advance()
		}
		return Token{Type: TokenFloat, Value: l.input[begin:l.pos], Pos: start}
	}

	for isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}

	isFloat := false
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		isFloat = true
		l.advance()
		for isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}
	if c := l.peek(); c == 'e' || c == 'E' {
		next := l.peekAt(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekAt(2))) {
			isFloat = true
			l.advance()
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}

	value := strings.ReplaceAll(l.input[begin:l.pos], "_", "")
	if c := l.peek(); c == 'n' || c == 'N' {
		if !isIdentContinue(l.peekAt(1)) {
			l.advance()
			return Token{Type: TokenDecimal, Value: value, Pos: start}
		}
	}
	if isFloat {
		return Token{Type: TokenFloat, Value: value, Pos: start}
	}
	return Token{Type: TokenInt, Value: value, Pos: start}
}

// scanIdentOrKeyword scans an identifier or keyword.
func (l *Lexer) scanIdentOrKeyword(start Position) Token {
	begin := l.pos
	for l.pos < len(l.input) && isIdentContinue(l.peek()) {
		l.advance()
	}
	value := l.input[begin:l.pos]

	switch value {
	case "null":
		return Token{Type: TokenNull, Value: value, Pos: start}
	case "true":
		return Token{Type: TokenTrue, Value: value, Pos: start}
	case "false":
		return Token{Type: TokenFalse, Value: value, Pos: start}
	case "inf", "nan":
		return Token{Type: TokenFloat, Value: value, Pos: start}
	}
	return Token{Type: TokenIdent, Value: value, Pos: start}
}

// skipWhitespaceAndComments skips whitespace, // line comments and /* */
// block comments.
func (l *Lexer) skipWhitespaceAndComments() error {
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			l.advance()
			continue
		}
		if ch == '/' && l.peekAt(1) == '/' {
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
			continue
		}
		if ch == '/' && l.peekAt(1) == '*' {
			start := l.currentPos()
			end := strings.Index(l.input[l.pos+2:], "*/")
			if end < 0 {
				return &ParseError{Message: "unterminated comment", Pos: start}
			}
			for i := 0; i < end+4; i++ {
				l.advance()
			}
			continue
		}
		break
	}
	return nil
}

// Helper methods

func (l *Lexer) peek() byte {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.pos}
}

// Character classification

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '-'
}

// IsBareName reports whether s can be written without quotes as a map key,
// attribute or tag name.
func IsBareName(s string) bool {
	if s == "" || !isIdentStart(s[0]) || s[0] >= 0x80 {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentContinue(s[i]) || s[i] >= 0x80 {
			return false
		}
	}
	switch s {
	case "null", "true", "false", "inf", "nan":
		return false
	}
	return true
}

// ============================================================
// TokenStream
// ============================================================

// TokenStream provides a stream interface over tokens.
type TokenStream struct {
	tokens []Token
	pos    int
}

// NewTokenStream creates a token stream from tokens.
func NewTokenStream(tokens []Token) *TokenStream {
	return &TokenStream{tokens: tokens}
}

// Peek returns the current token without advancing.
func (ts *TokenStream) Peek() Token {
	return ts.PeekN(0)
}

// PeekN returns the token N positions ahead.
func (ts *TokenStream) PeekN(n int) Token {
	idx := ts.pos + n
	if idx >= len(ts.tokens) {
		if len(ts.tokens) > 0 {
			return Token{Type: TokenEOF, Pos: ts.tokens[len(ts.tokens)-1].Pos}
		}
		return Token{Type: TokenEOF}
	}
	return ts.tokens[idx]
}

// Advance moves to the next token and returns the current one.
func (ts *TokenStream) Advance() Token {
	tok := ts.Peek()
	if ts.pos < len(ts.tokens) {
		ts.pos++
	}
	return tok
}

// Expect advances if the current token matches, otherwise returns an error.
func (ts *TokenStream) Expect(typ TokenType) (Token, error) {
	tok := ts.Peek()
	if tok.Type != typ {
		return tok, &ParseError{Message: fmt.Sprintf("expected %s, got %s", typ, tok), Pos: tok.Pos}
	}
	ts.Advance()
	return tok, nil
}

// Match returns true and advances if the current token matches.
func (ts *TokenStream) Match(typ TokenType) bool {
	if ts.Peek().Type == typ {
		ts.Advance()
		return true
	}
	return false
}

// AtEnd returns true if at end of stream.
func (ts *TokenStream) AtEnd() bool {
	return ts.Peek().Type == TokenEOF
}

// ParseError represents a parsing error with location.
type ParseError struct {
	Message string
	Pos     Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %s", e.Message, e.Pos)
}
