package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeThrottled   ErrorType = "throttled"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a Graph API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	URL     string
	Err     error
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s error (code %d): %s [%s]", e.Type, e.Code, e.Message, e.URL)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given type
func New(errorType ErrorType, code int, url, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Code:    code,
		URL:     url,
	}
}

// Wrap creates an Error of the given type around an underlying cause
func Wrap(errorType ErrorType, url string, err error) *Error {
	return &Error{
		Type:    errorType,
		Message: err.Error(),
		URL:     url,
		Err:     err,
	}
}

// TypeForStatus maps an HTTP status code onto an ErrorType.
// Status codes below 400 map to the empty type.
func TypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode < http.StatusBadRequest:
		return ""
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return ErrorTypeAuth
	case statusCode == http.StatusNotFound:
		return ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeThrottled
	case statusCode >= http.StatusInternalServerError:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

// IsType reports whether any error in err's chain is an *Error of the given type
func IsType(err error, errorType ErrorType) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type == errorType
	}
	return false
}
