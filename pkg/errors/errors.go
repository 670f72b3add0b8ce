package errors

import (
	"errors"
	"fmt"
)

var (
	ErrJobNotFound       = errors.New("scan job not found")
	ErrTargetNotFound    = errors.New("target not found")
	ErrResultNotFound    = errors.New("result not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidKind       = errors.New("invalid scan kind")
	ErrTargetExists      = errors.New("target already exists")
	ErrNoResults         = errors.New("no results produced")
	ErrMalformedOutput   = errors.New("malformed output")
)

// ToolError wraps a failure of an external scanning tool.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func NewToolError(tool string, err error) *ToolError {
	return &ToolError{Tool: tool, Err: err}
}

// TransitionError carries the offending transition for the job record
// store's monotonicity check.
type TransitionError struct {
	TaskID string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("job %s: cannot transition %s -> %s", e.TaskID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func NewTransitionError(taskID, from, to string) *TransitionError {
	return &TransitionError{TaskID: taskID, From: from, To: to}
}
