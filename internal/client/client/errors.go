package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable    = errors.New("server unavailable")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionExpired = errors.New("session expired")
	ErrAlreadyExists  = errors.New("already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrServer         = errors.New("server error")
)

// APIError is a non-2xx answer from the API. It unwraps to one of the
// sentinel errors above.
type APIError struct {
	Status  int
	Message string
	kind    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.kind, e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

// NewAPIError classifies an API answer by status code and message.
func NewAPIError(status int, message string) *APIError {
	e := &APIError{Status: status, Message: message}

	switch status {
	case http.StatusBadRequest:
		e.kind = ErrInvalidInput
	case http.StatusUnauthorized:
		if message == sessionExpiredMessage {
			e.kind = ErrSessionExpired
		} else {
			e.kind = ErrUnauthorized
		}
	case http.StatusNotFound:
		e.kind = ErrNotFound
	case http.StatusConflict:
		e.kind = ErrAlreadyExists
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		e.kind = ErrUnavailable
	default:
		e.kind = ErrServer
	}
	return e
}
