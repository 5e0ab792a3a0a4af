package query

import (
	"errors"
	"fmt"
)

// ErrBackingStore matches (via errors.Is) any failure reported by the Backend.
var ErrBackingStore = errors.New("backing store error")

// BadRequestError reports a literal that parsed but cannot be used, such as
// a malformed date.
type BadRequestError struct {
	Value  string
	Reason string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("bad request: %q: %s", e.Value, e.Reason)
}

type storeError struct {
	err error
}

func (e *storeError) Error() string {
	return "backing store: " + e.err.Error()
}

func (e *storeError) Unwrap() error { return e.err }

func (e *storeError) Is(target error) bool { return target == ErrBackingStore }

func storeFailure(err error) error {
	if err == nil {
		return nil
	}
	return &storeError{err: err}
}
