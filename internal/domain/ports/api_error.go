package ports

import (
	"errors"
	"fmt"
)

// API error codes the fleet reacts to. Everything else is either retried
// by the client or surfaced unchanged.
const (
	// ErrCodeRateLimited is returned when requests outrun the API limit
	ErrCodeRateLimited = 429

	// ErrCodeServerGlitch means the server failed to produce a valid
	// response; the request is safe to retry
	ErrCodeServerGlitch = 3000

	// ErrCodeExistingContract is returned by negotiate when the agent
	// already holds an unfulfilled contract
	ErrCodeExistingContract = 4214
)

// APIError is a structured error response from the SpaceTraders API.
// The client normalizes every error payload into this shape, including
// the occasional bare-string error body.
type APIError struct {
	Code    int
	Message string
	Data    map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// AsAPIError unwraps err into an APIError, reporting whether it was one
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAPIErrorCode reports whether err is an APIError with the given code
func IsAPIErrorCode(err error, code int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == code
}
