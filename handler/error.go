package handler

import (
	"errors"
	"net/http"
)

// RetryableError is implemented by errors which may succeed when the message
// is delivered again, such as throttling by DynamoDB.
type RetryableError interface {
	IsRetryable() bool
}

// IsErrorRetryable reports whether the first RetryableError in err's tree
// asks for a retry.
func IsErrorRetryable(err error) bool {
	var rerr RetryableError
	return errors.As(err, &rerr) && rerr.IsRetryable()
}

// HTTPError is an error which should reach the API caller with its own status
// code instead of a generic 500.
type HTTPError struct {
	StatusCode int
	Message    string
	Details    []string
	Err        error
}

func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Message: message}
}

func BadRequest(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message)
}

func NotFound(message string) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message)
}

func (e *HTTPError) WithDetails(details ...string) *HTTPError {
	e.Details = append(e.Details, details...)
	return e
}

func (e *HTTPError) Wrap(err error) *HTTPError {
	e.Err = err
	return e
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
