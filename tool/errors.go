package tool

import (
	"errors"
	"fmt"
	"time"

	"github.com/9v2/pyclaw/schema"
)

var (
	// ErrToolNotFound matches NotFoundError.
	ErrToolNotFound = errors.New("tool: not found")
	// ErrInvalidArguments matches InvalidArgumentsError.
	ErrInvalidArguments = schema.ErrInvalidArguments
	// ErrToolTimeout matches TimeoutError.
	ErrToolTimeout = errors.New("tool: timed out")
	// ErrToolExecution matches ExecutionError.
	ErrToolExecution = errors.New("tool: execution failed")
)

// NotFoundError is returned when a call names an unregistered tool.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string { return "Unknown tool: " + e.Name }

func (e *NotFoundError) Is(target error) bool { return target == ErrToolNotFound }

// InvalidArgumentsError is returned when arguments do not match the tool's
// parameter schema. The tool is not invoked.
type InvalidArgumentsError struct {
	Tool string
	Err  error
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Err)
}

func (e *InvalidArgumentsError) Unwrap() error { return e.Err }

func (e *InvalidArgumentsError) Is(target error) bool { return target == ErrInvalidArguments }

// TimeoutError is returned when a tool exceeds its execution timeout.
type TimeoutError struct {
	Tool    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Tool, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrToolTimeout }

// ExecutionError wraps a failure raised by a tool handler. Its message is
// the handler's message, unchanged.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string { return e.Err.Error() }

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return target == ErrToolExecution }
