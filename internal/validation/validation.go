// internal/validation/validation.go
//
// User-input validation errors.
//
// Context
// -------
// Callers need to tell "the caller sent bad input" apart from "the system
// failed".  Error carries a field name and a user-facing reason and wraps an
// optional sentinel, so handlers can use errors.As for the 400 path and
// errors.Is for a specific cause.
//
// Email syntax uses go-playground/validator's `email` rule, the same
// validator the config loader uses.
package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Reasons surfaced to API clients.
const (
	ReasonAddressRequired = "Email address is required."
	ReasonAddressInvalid  = "Invalid email address format."
)

var v = validator.New()

// Error is a user-input failure.  It never represents a system fault.
type Error struct {
	Field  string
	Reason string
	Err    error // optional sentinel
}

func (e *Error) Error() string { return e.Reason }
func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error for field with a user-facing reason.
func New(field, reason string, sentinel error) *Error {
	return &Error{Field: field, Reason: reason, Err: sentinel}
}

// IsValidation reports whether err (or anything it wraps) is an *Error.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// Email checks that addr is present and syntactically valid.
func Email(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return New("to", ReasonAddressRequired, nil)
	}
	if err := v.Var(addr, "email"); err != nil {
		return New("to", ReasonAddressInvalid, nil)
	}
	return nil
}
