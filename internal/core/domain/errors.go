package domain

import (
	"errors"
	"strings"
)

var (
	ErrShipmentNotFound   = errors.New("shipment not found")
	ErrDriverNotFound     = errors.New("driver not found")
	ErrPriceGuideNotFound = errors.New("price guide not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrMediaNotFound      = errors.New("media not found")

	ErrValidation        = errors.New("validation failed")
	ErrUpload            = errors.New("error uploading images")
	ErrForbidden         = errors.New("access forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTrackingConflict  = errors.New("tracking number already in use")

	ErrIdempotencyInProgress = errors.New("a request with this idempotency key is still in progress")

	ErrDuplicateGuideNumber = errors.New("guide number already in use")

	ErrUserExists              = errors.New("user already exists")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidVerificationCode = errors.New("invalid or expired verification code")
	ErrAlreadyVerified         = errors.New("email already verified")
)

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the field-level reasons a request was rejected.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError for one field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
