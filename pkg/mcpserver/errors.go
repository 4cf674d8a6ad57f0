package mcpserver

import "fmt"

// TransportError reports a stdio transport that failed to attach or broke
// while serving. It is the only process-fatal error.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
