package tools

import (
	"errors"
	"fmt"
)

// Kind classifies a tool failure for trace annotation and composition.
type Kind string

// Failure kinds.
const (
	// KindInput means the input bag was missing or malformed.
	KindInput Kind = "input"

	// KindExecution means the tool ran and its collaborator failed.
	KindExecution Kind = "execution"

	// KindTimeout means the per-tool deadline elapsed before completion.
	KindTimeout Kind = "timeout"

	// KindDependency means a mandatory upstream tool failed and this tool
	// was never invoked.
	KindDependency Kind = "dependency"
)

// ErrToolNotFound indicates a registry lookup for an unregistered name.
var ErrToolNotFound = errors.New("tool not found")

// ErrDuplicateTool indicates a second registration under the same name.
var ErrDuplicateTool = errors.New("tool already registered")

// Error is the uniform tool failure. Every error surfaced by a tool
// invocation — including executor-synthesized timeout and dependency
// failures — is a *Error so the orchestrator can classify it.
type Error struct {
	Tool    string
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Tool, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Tool, e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// AsToolError extracts a *Error from an error chain, wrapping foreign
// errors into an execution failure for the given tool when absent.
func AsToolError(tool string, err error) *Error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return &Error{Tool: tool, Kind: KindExecution, Message: "tool failed", Err: err}
}
