package cli

import (
	"errors"
	"fmt"

	"github.com/aidanlsb/kestrel/internal/filter"
	"github.com/aidanlsb/kestrel/internal/query"
	"github.com/aidanlsb/kestrel/internal/store"
	"github.com/aidanlsb/kestrel/internal/ui"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	ErrConfigInvalid   = "CONFIG_INVALID"
	ErrQueryInvalid    = "QUERY_INVALID"
	ErrBadRequest      = "BAD_REQUEST"
	ErrDatabaseError   = "DATABASE_ERROR"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"
	ErrInternal        = "INTERNAL_ERROR"
)

// errorCode classifies an error from the filter, query or store layers.
func errorCode(err error) string {
	var (
		perrs filter.ParseErrors
		bad   *query.BadRequestError
	)
	switch {
	case errors.As(err, &perrs):
		return ErrQueryInvalid
	case errors.As(err, &bad):
		return ErrBadRequest
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, query.ErrBackingStore):
		return ErrDatabaseError
	default:
		return ErrInternal
	}
}

// parseErrorDetail is the JSON shape of a filter parse error.
type parseErrorDetail struct {
	Message string `json:"message"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// handleQueryError reports an error from parsing or running text. Parse
// errors are shown with a caret under the offending span.
func handleQueryError(text string, err error) error {
	code := errorCode(err)

	var perrs filter.ParseErrors
	if !errors.As(err, &perrs) || len(perrs) == 0 {
		return handleError(code, err, "")
	}

	if isJSONOutput() {
		details := make([]parseErrorDetail, len(perrs))
		for i, pe := range perrs {
			details[i] = parseErrorDetail{Message: pe.Message, Start: pe.Span.Start, End: pe.Span.End}
		}
		return handleErrorWithDetails(code, err, details)
	}

	first := perrs[0]
	return fmt.Errorf("invalid query: %s\n\n  %s", first.Message,
		indentContinuation(ui.Caret(text, first.Span.Start, first.Span.End)))
}

func indentContinuation(s string) string {
	out := make([]byte, 0, len(s)+4)
	for i := 0; i < len(s); i++ {
		out = append(out, s[i])
		if s[i] == '\n' {
			out = append(out, ' ', ' ')
		}
	}
	return string(out)
}

// storeErrorCode classifies an error returned directly by the store.
func storeErrorCode(err error) string {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return ErrDatabaseError
}
