package filter

import (
	"context"
	"strings"
)

// StatusValues are the literals the status field understands.
var StatusValues = []string{"ACTIVE", "COMPLETED", "OPEN", "DONE"}

// ValueSource supplies user data for value completion, such as project
// titles and tag names.
type ValueSource interface {
	CompletionValues(ctx context.Context, field Field) ([]string, error)
}

// Suggestion replaces text[Start:End] with Text.
type Suggestion struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Suggest returns completion candidates for the caret position. src may be
// nil, in which case only static candidates are offered.
func Suggest(ctx context.Context, text string, cursor int, src ValueSource) ([]Suggestion, error) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(text) {
		cursor = len(text)
	}

	cc, st := detect(text, cursor)

	var candidates []string
	switch cc.Kind {
	case ContextFieldName:
		if st == stateOrderExpectBy {
			candidates = []string{"BY"}
		} else {
			candidates = fieldNames()
		}
	case ContextKeyword:
		switch st {
		case stateExpectOp:
			candidates = []string{"IS", "IS NOT", "IN", "NOT IN"}
		case stateExpectIn:
			candidates = []string{"IN"}
		case stateOrderAfterField:
			candidates = []string{"ASC", "DESC"}
		case stateExpectField:
			candidates = []string{"NOT", "ORDER BY"}
		default:
			candidates = []string{"AND", "OR", "ORDER BY"}
		}
	case ContextFieldValue, ContextArrayValue:
		if st == stateExpectIsValue {
			candidates = []string{"NULL", "NOT NULL"}
			break
		}
		values, err := fieldValues(ctx, cc.Field, src)
		if err != nil {
			return nil, err
		}
		candidates = values
	default:
		return nil, nil
	}

	var out []Suggestion
	for _, c := range candidates {
		if !hasPrefixFold(strings.Trim(c, "'"), cc.Partial) {
			continue
		}
		out = append(out, Suggestion{Text: c, Start: cc.Start, End: cursor})
	}
	return out, nil
}

func fieldNames() []string {
	var names []string
	for _, f := range Fields {
		names = append(names, f.String())
	}
	for _, f := range Fields {
		names = append(names, f.Aliases()...)
	}
	return names
}

func fieldValues(ctx context.Context, field Field, src ValueSource) ([]string, error) {
	switch field {
	case FieldStatus:
		return StatusValues, nil
	case FieldProject, FieldTags:
		if src == nil {
			return nil, nil
		}
		values, err := src.CompletionValues(ctx, field)
		if err != nil {
			return nil, err
		}
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = quote(v)
		}
		return quoted, nil
	}
	return nil, nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
