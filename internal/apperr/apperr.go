package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrMissingCredentials is returned when email or password is empty after trimming.
	ErrMissingCredentials = errors.New("Email and password are required")
	// ErrUserNotFound is returned when no account matches the normalized email.
	ErrUserNotFound = errors.New("User does not exist")
	// ErrIncorrectPassword is returned when the password does not match the stored
	// hash, including login attempts against provider-only accounts.
	ErrIncorrectPassword = errors.New("Incorrect password")
	// ErrEmailTaken is returned when registering an email that already has a User.
	ErrEmailTaken = errors.New("User already exists with this email")
	// ErrStoreUnavailable is returned when the user store cannot be reached.
	// Callers surface it generically; the underlying cause is only logged.
	ErrStoreUnavailable = errors.New("user store unavailable")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapToHTTP maps domain errors to HTTP errors. Token errors never pass through
// here; the gate turns those into a redirect challenge instead of a body.
func MapToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "MISSING_CREDENTIALS")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, err.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrIncorrectPassword):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INCORRECT_PASSWORD")
	case errors.Is(err, ErrStoreUnavailable):
		return NewHTTPError(http.StatusServiceUnavailable, "service temporarily unavailable", "STORE_UNAVAILABLE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
