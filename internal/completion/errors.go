package completion

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPrice means the price field was present but did not reduce
	// to a non-negative decimal after stripping currency tokens.
	ErrInvalidPrice = errors.New("price is not a valid non-negative number")
)

// FieldError tags a completion failure with the field that caused it. A
// failed field aborts completion of the whole record; partial records are
// never emitted.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
