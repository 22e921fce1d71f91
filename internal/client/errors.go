package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable means the request never got an HTTP response.
	ErrUnreachable = errors.New("api unreachable")
	// ErrMalformedResponse means a 2xx response could not be decoded.
	ErrMalformedResponse = errors.New("malformed api response")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
