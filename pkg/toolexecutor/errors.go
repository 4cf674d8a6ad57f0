package toolexecutor

import "fmt"

// RootField names the argument object itself in a ValidationError.
const RootField = "(root)"

// DuplicateToolError is returned by Register when the tool name is taken.
// It indicates a defect in the static catalog and is fatal at startup.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool already registered: %s", e.Name)
}

// UnknownToolError is returned by Dispatch for a name that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Name)
}

// ValidationError reports the first argument that failed schema validation.
type ValidationError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %s: %s", e.Tool, e.Field, e.Reason)
}
