package filter

import (
	"errors"
	"fmt"
	"strings"
)

// Parser parses filter strings into Query ASTs. A Parser is single-use.
type Parser struct {
	input  string
	tokens []Token
	pos    int
}

// Parse parses a filter string. Empty input yields an empty Query.
// On failure the returned error is a ParseErrors holding the first problem found.
func Parse(input string) (*Query, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, asParseErrors(err)
	}

	p := &Parser{input: input, tokens: tokens}
	q, err := p.parseQuery()
	if err != nil {
		return nil, asParseErrors(err)
	}
	return q, nil
}

func asParseErrors(err error) ParseErrors {
	var pe ParseError
	if errors.As(err, &pe) {
		return ParseErrors{pe}
	}
	return ParseErrors{{Message: err.Error()}}
}

func (p *Parser) curr() Token {
	return p.tokens[p.pos]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

func (p *Parser) atEOF() bool {
	return p.curr().Type == TokenEOF
}

// isKeyword reports whether the current token is the identifier kw, ignoring case.
func (p *Parser) isKeyword(kw string) bool {
	tok := p.curr()
	return tok.Type == TokenIdent && strings.EqualFold(tok.Value, kw)
}

func describe(tok Token) string {
	if tok.Type == TokenEOF {
		return "end of input"
	}
	if tok.Type == TokenString {
		return quote(tok.Value)
	}
	return "'" + tok.Value + "'"
}

func (p *Parser) errorHere(format string, args ...any) error {
	tok := p.curr()
	return errorAt(tok.Span.Start, tok.Span.End, format, args...)
}

// parseQuery parses: expr? (ORDER BY field dir?)?
func (p *Parser) parseQuery() (*Query, error) {
	q := &Query{}

	if !p.atEOF() && !p.isKeyword("ORDER") {
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		q.Expr = expr
	}

	if p.isKeyword("ORDER") {
		orderBy, err := p.parseOrderBy()
		if err != nil {
			return nil, err
		}
		q.OrderBy = orderBy
	}

	if !p.atEOF() {
		return nil, p.errorHere("Unexpected token %s", describe(p.curr()))
	}
	return q, nil
}

// parseOr parses OR expressions (lowest precedence).
func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.isKeyword("OR") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{Left: left, Right: right}
	}
	return left, nil
}

// parseAnd parses AND expressions (middle precedence).
func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.isKeyword("AND") {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &And{Left: left, Right: right}
	}
	return left, nil
}

// parseUnary parses NOT, parenthesized groups, and conditions (highest precedence).
func (p *Parser) parseUnary() (Expr, error) {
	if p.isKeyword("NOT") {
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{Expr: inner}, nil
	}

	if p.curr().Type == TokenLParen {
		open := p.curr()
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.curr().Type != TokenRParen {
			tok := p.curr()
			return nil, errorAt(open.Span.Start, tok.Span.End, "Expected ')' to close '(', found %s", describe(tok))
		}
		p.advance()
		return expr, nil
	}

	return p.parseCondition()
}

func (p *Parser) parseCondition() (Expr, error) {
	tok := p.curr()
	if tok.Type != TokenIdent {
		return nil, p.errorHere("Expected field name, found %s", describe(tok))
	}

	field, ok := LookupField(tok.Value)
	if !ok {
		return nil, p.errorHere("Unknown field: '%s'", tok.Value)
	}
	p.advance()

	op, err := p.parseOperator(tok.Value)
	if err != nil {
		return nil, err
	}

	value, err := p.parseValue(op)
	if err != nil {
		return nil, err
	}

	return &Condition{Field: field, Op: op, Value: value}, nil
}

// parseOperator parses a symbolic operator, IS [NOT], or [NOT] IN.
func (p *Parser) parseOperator(fieldName string) (Op, error) {
	tok := p.curr()
	if tok.Type == TokenOp {
		p.advance()
		return tok.Op, nil
	}

	switch {
	case p.isKeyword("IS"):
		p.advance()
		if p.isKeyword("NOT") {
			p.advance()
			return OpIsNot, nil
		}
		return OpIs, nil
	case p.isKeyword("IN"):
		p.advance()
		return OpIn, nil
	case p.isKeyword("NOT"):
		p.advance()
		if !p.isKeyword("IN") {
			return 0, p.errorHere("Expected IN after NOT, found %s", describe(p.curr()))
		}
		p.advance()
		return OpNotIn, nil
	}

	return 0, p.errorHere("Expected operator after '%s', found %s", fieldName, describe(tok))
}

func (p *Parser) parseValue(op Op) (Value, error) {
	tok := p.curr()
	switch tok.Type {
	case TokenString:
		p.advance()
		return String(tok.Value), nil
	case TokenNumber:
		p.advance()
		return Number(tok.Num), nil
	case TokenDate:
		p.advance()
		return String(tok.Value), nil
	case TokenIdent:
		p.advance()
		switch strings.ToUpper(tok.Value) {
		case "NULL":
			return Null(), nil
		case "TRUE":
			return Bool(true), nil
		case "FALSE":
			return Bool(false), nil
		}
		return String(tok.Value), nil
	case TokenLBracket:
		return p.parseArray(op)
	}
	return Value{}, p.errorHere("Expected value after '%s', found %s", op, describe(tok))
}

func (p *Parser) parseArray(op Op) (Value, error) {
	open := p.curr()
	p.advance()

	items := []Value{}
	if p.curr().Type == TokenRBracket {
		p.advance()
		return Array(items...), nil
	}

	for {
		item, err := p.parseValue(op)
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)

		switch p.curr().Type {
		case TokenComma:
			p.advance()
		case TokenRBracket:
			p.advance()
			return Array(items...), nil
		default:
			tok := p.curr()
			return Value{}, errorAt(open.Span.Start, tok.Span.End, "Expected ',' or ']' in array, found %s", describe(tok))
		}
	}
}

func (p *Parser) parseOrderBy() (*OrderBy, error) {
	p.advance() // ORDER

	if !p.isKeyword("BY") {
		return nil, p.errorHere("Expected BY after ORDER, found %s", describe(p.curr()))
	}
	p.advance()

	tok := p.curr()
	if tok.Type != TokenIdent {
		return nil, p.errorHere("Expected field name after ORDER BY, found %s", describe(tok))
	}
	field, ok := LookupField(tok.Value)
	if !ok {
		return nil, p.errorHere("Unknown field: '%s'", tok.Value)
	}
	p.advance()

	orderBy := &OrderBy{Field: field, Direction: Asc}
	switch {
	case p.isKeyword("ASC"):
		p.advance()
	case p.isKeyword("DESC"):
		orderBy.Direction = Desc
		p.advance()
	}
	return orderBy, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(input string) *Query {
	q, err := Parse(input)
	if err != nil {
		panic(fmt.Sprintf("filter.MustParse(%q): %v", input, err))
	}
	return q
}
