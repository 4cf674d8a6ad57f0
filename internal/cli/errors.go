package cli

import (
	"errors"
	"fmt"
)

// ServeError wraps a failure of the serve path: config, logger, registry or
// transport.
type ServeError struct {
	Err error
}

func (e *ServeError) Error() string {
	return e.Err.Error()
}

func (e *ServeError) Unwrap() error {
	return e.Err
}

// FormatError renders a command failure for stderr. Only serve failures get
// the "Server error" prefix.
func FormatError(err error) string {
	var serveErr *ServeError
	if errors.As(err, &serveErr) {
		return fmt.Sprintf("Server error: %v", serveErr.Err)
	}
	return fmt.Sprintf("Error: %v", err)
}
