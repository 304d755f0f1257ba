package common

import "errors"

var (
	// Remote-service errors, mapped from HTTP status codes.
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation error")
	ErrUnavailable  = errors.New("server unavailable")

	// Session errors.
	ErrNoSession = errors.New("no active session")

	// Web front errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidCSRF  = errors.New("invalid csrf token")
)

// ValidationError carries the backend message of a rejected request.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UserMessage extracts a human readable message from err. Validation errors
// return the backend message; everything else returns fallback.
func UserMessage(err error, fallback string) string {
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}
	return fallback
}
