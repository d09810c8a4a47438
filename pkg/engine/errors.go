// Package engine implements the saga process orchestration engine: dependency
// resolution, circuit-breaker gated step execution, audit recording and
// reverse-order compensation.
package engine

import (
	"errors"
	"fmt"
)

// Standard engine error types.
var (
	// ErrDependencyCycle indicates the step graph could not be linearized,
	// either because of a true cycle or a reference to an unknown step.
	ErrDependencyCycle = errors.New("dependency cycle or unresolvable dependencies")

	// ErrCircuitOpen indicates a step was skipped because its circuit
	// breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrValidationFailed indicates a step's pre-flight check failed.
	ErrValidationFailed = errors.New("step validation failed")
)

// ProcessError is the process-level failure surfaced to the caller. It wraps
// the identity and message of the step that caused the abort.
type ProcessError struct {
	ProcessID   string
	ProcessName string
	StepID      string
	Err         error
}

func (e *ProcessError) Error() string {
	if e.StepID == "" {
		return fmt.Sprintf("process %s failed: %v", e.ProcessName, e.Err)
	}

	return fmt.Sprintf("process %s failed at step %s: %v", e.ProcessName, e.StepID, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

func (e *ProcessError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// AsProcessError extracts a ProcessError from an error chain.
func AsProcessError(err error) (*ProcessError, bool) {
	var processErr *ProcessError
	ok := errors.As(err, &processErr)

	return processErr, ok
}

// IsDependencyCycle checks if an error indicates an unresolvable step graph.
func IsDependencyCycle(err error) bool {
	return errors.Is(err, ErrDependencyCycle)
}

// IsCircuitOpen checks if an error indicates a step skipped by its breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}
