package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ContextKind classifies what the user is positioned to type.
type ContextKind int

const (
	ContextNone ContextKind = iota
	ContextFieldName
	ContextFieldValue
	ContextArrayValue
	ContextKeyword
)

func (k ContextKind) String() string {
	switch k {
	case ContextFieldName:
		return "field_name"
	case ContextFieldValue:
		return "field_value"
	case ContextArrayValue:
		return "array_value"
	case ContextKeyword:
		return "keyword"
	default:
		return "none"
	}
}

// CompletionContext describes the token under the caret. Field is only
// meaningful for ContextFieldValue and ContextArrayValue. Partial is the text
// already typed, starting at byte offset Start.
type CompletionContext struct {
	Kind    ContextKind
	Field   Field
	Partial string
	Start   int
}

// DetectCompletionContext classifies text[:cursor] for autocomplete. It never
// fails: input it cannot make sense of yields ContextNone.
func DetectCompletionContext(text string, cursor int) CompletionContext {
	ctx, _ := detect(text, cursor)
	return ctx
}

// ctoken is a token of the permissive completion tokenizer.
type ctoken struct {
	kind  ctokenKind
	text  string
	start int
}

type ctokenKind int

const (
	cIdent ctokenKind = iota
	cPartial
	cString
	cNumber
	cOp
	cLParen
	cRParen
	cLBracket
	cRBracket
	cComma
)

// completionState is where the scan ended up after consuming complete tokens.
type completionState int

const (
	stateInvalid completionState = iota
	stateExpectField
	stateExpectOp
	stateExpectIn // after "<field> NOT"
	stateExpectValue
	stateExpectIsValue // after "<field> IS" or "<field> IS NOT"
	stateExpectArray   // after "<field> IN"
	stateInArray       // after '[' or ','
	stateAfterArrayItem
	stateAfterValue // a condition or group just closed
	stateOrderExpectBy
	stateOrderExpectField
	stateOrderAfterField
	stateOrderDone
)

func detect(text string, cursor int) (CompletionContext, completionState) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(text) {
		cursor = len(text)
	}
	prefix := text[:cursor]

	if insideString(prefix) {
		return CompletionContext{Kind: ContextNone}, stateInvalid
	}

	tokens := scanCompletionTokens(prefix)

	partial := ""
	start := cursor
	if n := len(tokens); n > 0 && tokens[n-1].kind == cPartial {
		partial = tokens[n-1].text
		start = tokens[n-1].start
		tokens = tokens[:n-1]
	} else if !atWordBoundary(prefix) {
		return CompletionContext{Kind: ContextNone}, stateInvalid
	}

	st, field := walk(tokens)

	switch st {
	case stateExpectField:
		if partial != "" && spellsKeyword(partial, "AND", "OR", "NOT", "ORDER") {
			return CompletionContext{Kind: ContextKeyword, Partial: partial, Start: start}, st
		}
		return CompletionContext{Kind: ContextFieldName, Partial: partial, Start: start}, st
	case stateOrderExpectBy, stateOrderExpectField:
		return CompletionContext{Kind: ContextFieldName, Partial: partial, Start: start}, st
	case stateExpectOp, stateExpectIn:
		if partial == "" {
			return CompletionContext{Kind: ContextNone}, st
		}
		return CompletionContext{Kind: ContextKeyword, Partial: partial, Start: start}, st
	case stateExpectValue, stateExpectIsValue:
		return CompletionContext{Kind: ContextFieldValue, Field: field, Partial: partial, Start: start}, st
	case stateInArray:
		return CompletionContext{Kind: ContextArrayValue, Field: field, Partial: partial, Start: start}, st
	case stateAfterValue, stateOrderAfterField:
		return CompletionContext{Kind: ContextKeyword, Partial: partial, Start: start}, st
	}
	return CompletionContext{Kind: ContextNone}, st
}

// walk runs the completed tokens through the grammar and reports the state
// the caret is in, plus the field of the condition being built.
func walk(tokens []ctoken) (completionState, Field) {
	st := stateExpectField
	var field Field

	for _, tok := range tokens {
		switch st {
		case stateExpectField:
			switch {
			case tok.kind == cLParen:
			case isWord(tok, "NOT"):
			case isWord(tok, "ORDER"):
				st = stateOrderExpectBy
			case tok.kind == cIdent:
				f, ok := LookupField(tok.text)
				if !ok {
					return stateInvalid, field
				}
				field = f
				st = stateExpectOp
			default:
				return stateInvalid, field
			}
		case stateExpectOp:
			switch {
			case tok.kind == cOp:
				st = stateExpectValue
			case isWord(tok, "IS"):
				st = stateExpectIsValue
			case isWord(tok, "IN"):
				st = stateExpectArray
			case isWord(tok, "NOT"):
				st = stateExpectIn
			default:
				return stateInvalid, field
			}
		case stateExpectIn:
			if !isWord(tok, "IN") {
				return stateInvalid, field
			}
			st = stateExpectArray
		case stateExpectIsValue:
			switch {
			case isWord(tok, "NOT"):
			case isValueToken(tok):
				st = stateAfterValue
			default:
				return stateInvalid, field
			}
		case stateExpectValue:
			switch {
			case isValueToken(tok):
				st = stateAfterValue
			case tok.kind == cLBracket:
				st = stateInArray
			default:
				return stateInvalid, field
			}
		case stateExpectArray:
			if tok.kind != cLBracket {
				return stateInvalid, field
			}
			st = stateInArray
		case stateInArray:
			switch {
			case isValueToken(tok):
				st = stateAfterArrayItem
			case tok.kind == cRBracket:
				st = stateAfterValue
			default:
				return stateInvalid, field
			}
		case stateAfterArrayItem:
			switch tok.kind {
			case cComma:
				st = stateInArray
			case cRBracket:
				st = stateAfterValue
			default:
				return stateInvalid, field
			}
		case stateAfterValue:
			switch {
			case tok.kind == cRParen:
			case isWord(tok, "AND"), isWord(tok, "OR"):
				st = stateExpectField
			case isWord(tok, "ORDER"):
				st = stateOrderExpectBy
			default:
				return stateInvalid, field
			}
		case stateOrderExpectBy:
			if !isWord(tok, "BY") {
				return stateInvalid, field
			}
			st = stateOrderExpectField
		case stateOrderExpectField:
			if tok.kind != cIdent {
				return stateInvalid, field
			}
			if _, ok := LookupField(tok.text); !ok {
				return stateInvalid, field
			}
			st = stateOrderAfterField
		case stateOrderAfterField:
			if !isWord(tok, "ASC") && !isWord(tok, "DESC") {
				return stateInvalid, field
			}
			st = stateOrderDone
		default:
			return stateInvalid, field
		}
	}
	return st, field
}

func isWord(tok ctoken, kw string) bool {
	return tok.kind == cIdent && strings.EqualFold(tok.text, kw)
}

func isValueToken(tok ctoken) bool {
	return tok.kind == cIdent || tok.kind == cString || tok.kind == cNumber
}

// spellsKeyword reports whether partial is a case-insensitive prefix of any keyword.
func spellsKeyword(partial string, keywords ...string) bool {
	upper := strings.ToUpper(partial)
	for _, kw := range keywords {
		if strings.HasPrefix(kw, upper) {
			return true
		}
	}
	return false
}

// insideString reports whether s ends inside an open single-quoted literal.
func insideString(s string) bool {
	quotes := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '\'':
			quotes++
		}
	}
	return quotes%2 == 1
}

func atWordBoundary(s string) bool {
	if s == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r) || r == '(' || r == '[' || r == ','
}

// scanCompletionTokens tokenizes partially typed input. Unlike Lexer it never
// fails: stray characters are skipped, and a word that runs into the end of
// input is emitted as cPartial.
func scanCompletionTokens(s string) []ctoken {
	var tokens []ctoken
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '(':
			tokens = append(tokens, ctoken{kind: cLParen, text: "(", start: i})
			i++
		case r == ')':
			tokens = append(tokens, ctoken{kind: cRParen, text: ")", start: i})
			i++
		case r == '[':
			tokens = append(tokens, ctoken{kind: cLBracket, text: "[", start: i})
			i++
		case r == ']':
			tokens = append(tokens, ctoken{kind: cRBracket, text: "]", start: i})
			i++
		case r == ',':
			tokens = append(tokens, ctoken{kind: cComma, text: ",", start: i})
			i++
		case r == '\'':
			start := i
			i++
			for i < len(s) && s[i] != '\'' {
				if s[i] == '\\' {
					i++
				}
				i++
			}
			if i < len(s) {
				i++
			} else {
				i = len(s)
			}
			tokens = append(tokens, ctoken{kind: cString, text: s[start:i], start: start})
		case r == '=' || r == '!' || r == '<' || r == '>':
			start := i
			i++
			if i < len(s) && (s[i] == '=' || s[i] == '~') {
				i++
			}
			if s[start:i] == "!" {
				continue
			}
			tokens = append(tokens, ctoken{kind: cOp, text: s[start:i], start: start})
		case r == '-' || isDigit(s[i]):
			start := i
			i++
			for i < len(s) && (isDateChar(s[i]) || s[i] == '.') {
				i++
			}
			kind := cNumber
			if i == len(s) {
				kind = cPartial
			}
			tokens = append(tokens, ctoken{kind: kind, text: s[start:i], start: start})
		case isIdentStart(r):
			start := i
			for i < len(s) {
				r, size := utf8.DecodeRuneInString(s[i:])
				if !isIdentChar(r) {
					break
				}
				i += size
			}
			kind := cIdent
			if i == len(s) {
				kind = cPartial
			}
			tokens = append(tokens, ctoken{kind: kind, text: s[start:i], start: start})
		default:
			i += size
		}
	}
	return tokens
}
