package tank

import (
	"errors"
	"fmt"
)

// Errors returned by authentication, discovery and commands.
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrTankNotFound         = errors.New("no tank with matching serial number")
	ErrNotResolved          = errors.New("tank resources have not been resolved")
	ErrNoSchedule           = errors.New("no schedule available")
	ErrMissingField         = errors.New("missing field")
)

// StatusError reports an HTTP response with an unexpected status code.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

func missing(field string) error {
	return fmt.Errorf("%w %q", ErrMissingField, field)
}
