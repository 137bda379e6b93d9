package appointments

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when no appointment exists for an id in the
	// collection being addressed.
	ErrNotFound = errors.New("appointment not found")
)

// ValidationError lists the request fields that are missing or malformed.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

func missingFields(fields []string) error {
	return &ValidationError{Message: "missing required fields", Fields: fields}
}

func invalidField(message string, fields ...string) error {
	return &ValidationError{Message: message, Fields: fields}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
