package filter

import (
	"fmt"
	"strings"
)

// Span is a half-open [Start, End) byte range in the query text.
type Span struct {
	Start int
	End   int
}

// ParseError describes a problem at a specific place in the query text.
type ParseError struct {
	Message string
	Span    Span
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.Message, e.Span.Start, e.Span.End)
}

// ParseErrors is returned by Parse when the text is not a valid filter.
type ParseErrors []ParseError

func (errs ParseErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func errorAt(start, end int, format string, args ...any) ParseError {
	return ParseError{Message: fmt.Sprintf(format, args...), Span: Span{Start: start, End: end}}
}
