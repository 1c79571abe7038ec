package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a key id does not exist in the addressed
// tenant's partition. An unknown tenant is reported the same way.
var ErrNotFound = errors.New("api key not found")

// InternalError wraps a storage backend fault. The detail is diagnostic only.
type InternalError struct {
	Op  string
	Err error
}

// NewInternalError wraps err as an InternalError for the given operation.
func NewInternalError(op string, err error) *InternalError {
	return &InternalError{Op: op, Err: err}
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("internal error: %s", e.Op)
	}
	return fmt.Sprintf("internal error: %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// IsInternal reports whether err carries an InternalError.
func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}
