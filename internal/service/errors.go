package service

import (
	"errors"
	"fmt"
)

// Sentinel errors the API layer maps onto HTTP status codes.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
)

// ValidationError reports a request the schedule or booking rules reject.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a rule violation rather than a fault.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
