package core

import (
	"errors"
	"fmt"
)

// MaxDescriptionLength matches the server's description column.
const MaxDescriptionLength = 255

// MinPasswordLength matches the server's RegisterSerializer.
const MinPasswordLength = 8

var (
	ErrRequired           = errors.New("this field is required")
	ErrInvalidAmount      = errors.New("amount must be greater than 0")
	ErrInvalidDate        = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidType        = errors.New("type must be expense or income")
	ErrEmptyCategory      = errors.New("category is required")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrTermsNotAccepted   = errors.New("please agree to the Terms of Service and Privacy Policy")
)

// ValidationError reports a client-side form validation failure on one field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func fieldError(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidationError reports whether err is a client-side validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
