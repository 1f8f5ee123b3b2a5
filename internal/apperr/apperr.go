// Package apperr defines the error taxonomy shared by the HTTP handlers and
// the websocket session handlers.
//
// The contract: every caller-fault failure (bad input, missing entity,
// duplicate, not-a-participant) becomes a ValidationError whose message is
// safe to show the user. Storage failures we cannot attribute to the caller
// keep their cause for logging but surface only a generic message. Transport
// failures never reach this package — the session detects and handles those
// itself.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError is a recoverable, caller-fault failure. Its message is the
// exact string sent back in the response's error field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation builds a ValidationError with a user-facing message.
func Validation(msg string) error {
	return &ValidationError{Message: msg}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// genericMessage is what callers see when a failure is not their fault.
const genericMessage = "Unknown error occurred."

// UserMessage extracts the string to put in a response's error field.
// ValidationErrors pass through verbatim; anything else is masked.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return genericMessage
}

// IsValidation reports whether err is safe to surface verbatim.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
