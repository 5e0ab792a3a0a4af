package filter

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF      TokenType = iota
	TokenIdent              // field names, keywords, bare values
	TokenString             // 'quoted'
	TokenNumber             // 42, -1.5
	TokenDate               // 2024-01-15, 2024-01-15T09:30:00
	TokenOp                 // = != =~ !~ > < >= <=
	TokenLParen             // (
	TokenRParen             // )
	TokenLBracket           // [
	TokenRBracket           // ]
	TokenComma              // ,
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of input"
	case TokenIdent:
		return "identifier"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenDate:
		return "date"
	case TokenOp:
		return "operator"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenLBracket:
		return "'['"
	case TokenRBracket:
		return "']'"
	case TokenComma:
		return "','"
	default:
		return "token"
	}
}

// Token represents a lexer token.
type Token struct {
	Type  TokenType
	Value string  // identifier text, unescaped string contents, or raw literal
	Num   float64 // parsed value for TokenNumber
	Op    Op      // operator for TokenOp
	Span  Span
}

// Lexer tokenizes a complete filter string. It stops at the first error.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize returns every token in input followed by a TokenEOF, or the first
// lexical error.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Span: Span{l.pos, l.pos}}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		return l.single(TokenLParen), nil
	case ')':
		return l.single(TokenRParen), nil
	case '[':
		return l.single(TokenLBracket), nil
	case ']':
		return l.single(TokenRBracket), nil
	case ',':
		return l.single(TokenComma), nil
	case '=':
		if l.peek(1) == '~' {
			return l.op(OpGlobMatch, 2), nil
		}
		return l.op(OpEq, 1), nil
	case '!':
		switch l.peek(1) {
		case '=':
			return l.op(OpNe, 2), nil
		case '~':
			return l.op(OpGlobNotMatch, 2), nil
		}
		end := start + 2
		if end > len(l.input) {
			end = len(l.input)
		}
		return Token{}, errorAt(start, end, "Expected '=' or '~' after '!'")
	case '>':
		if l.peek(1) == '=' {
			return l.op(OpGte, 2), nil
		}
		return l.op(OpGt, 1), nil
	case '<':
		if l.peek(1) == '=' {
			return l.op(OpLte, 2), nil
		}
		return l.op(OpLt, 1), nil
	case '\'':
		return l.scanString()
	}

	if isDigit(ch) || ch == '-' {
		return l.scanNumberOrDate()
	}

	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	if isIdentStart(r) {
		return l.scanIdent(), nil
	}
	return Token{}, errorAt(start, start+size, "Unexpected character '%c'", r)
}

func (l *Lexer) single(t TokenType) Token {
	tok := Token{Type: t, Value: l.input[l.pos : l.pos+1], Span: Span{l.pos, l.pos + 1}}
	l.pos++
	return tok
}

func (l *Lexer) op(op Op, width int) Token {
	tok := Token{Type: TokenOp, Op: op, Value: l.input[l.pos : l.pos+width], Span: Span{l.pos, l.pos + width}}
	l.pos += width
	return tok
}

func (l *Lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

// scanString reads a single-quoted literal. A backslash escapes the next byte.
func (l *Lexer) scanString() (Token, error) {
	start := l.pos
	l.pos++ // opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\\' && l.pos+1 < len(l.input):
			next := l.input[l.pos+1]
			if next != '\'' && next != '\\' {
				sb.WriteByte(ch)
			}
			sb.WriteByte(next)
			l.pos += 2
		case ch == '\'':
			l.pos++
			return Token{Type: TokenString, Value: sb.String(), Span: Span{start, l.pos}}, nil
		default:
			sb.WriteByte(ch)
			l.pos++
		}
	}

	return Token{}, errorAt(start, len(l.input), "Unterminated string literal")
}

// scanNumberOrDate reads an optionally signed number. Digits followed by
// "-<digit>" switch to a date/datetime literal instead.
func (l *Lexer) scanNumberOrDate() (Token, error) {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}

	if l.pos > start && l.peek(0) == '-' && isDigit(l.peek(1)) {
		for l.pos < len(l.input) && isDateChar(l.input[l.pos]) {
			l.pos++
		}
		raw := l.input[start:l.pos]
		return Token{Type: TokenDate, Value: raw, Span: Span{start, l.pos}}, nil
	}

	if l.peek(0) == '.' && isDigit(l.peek(1)) {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}

	raw := l.input[start:l.pos]
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		end := l.pos
		if end == start+1 && end < len(l.input) {
			end++
		}
		return Token{}, errorAt(start, end, "Invalid number '%s'", raw)
	}
	return Token{Type: TokenNumber, Value: raw, Num: n, Span: Span{start, l.pos}}, nil
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isIdentChar(r) {
			break
		}
		l.pos += size
	}
	return Token{Type: TokenIdent, Value: l.input[start:l.pos], Span: Span{start, l.pos}}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isDateChar(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '-' || ch == ':'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
