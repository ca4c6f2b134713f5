package api

import (
	"errors"
	"fmt"
)

// ErrValidation marks requests rejected locally before any network exchange,
// e.g. a flow step attempted without a user id. These are usage errors and
// are never sent to the service.
var ErrValidation = errors.New("invalid request")

// NetworkError indicates the request produced no response at all (connection
// failure or timeout). Retrying is sensible.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: connection failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError indicates the account service rejected the request with a status
// code and message. Not retried automatically; the message is user-facing.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.Status, e.Message)
}

// IsNetworkError reports whether err is a transport failure
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsAPIError reports whether err is a service-level rejection
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}
