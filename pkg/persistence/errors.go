package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrProcessNotFound indicates no definition exists under the name.
	ErrProcessNotFound = errors.New("process definition not found")

	// ErrProcessAlreadyExists indicates a definition with the same name
	// already exists.
	ErrProcessAlreadyExists = errors.New("process definition already exists")
)

// ProcessDefinitionError wraps definition-related errors with operation
// context.
type ProcessDefinitionError struct {
	Op          string // Operation being performed (e.g., "GetByName", "Save")
	ProcessName string
	Err         error
}

func (e *ProcessDefinitionError) Error() string {
	return fmt.Sprintf("%s operation failed for process %s: %v", e.Op, e.ProcessName, e.Err)
}

func (e *ProcessDefinitionError) Unwrap() error {
	return e.Err
}

func (e *ProcessDefinitionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewProcessDefinitionError creates a definition error with context.
func NewProcessDefinitionError(op, processName string, err error) *ProcessDefinitionError {
	return &ProcessDefinitionError{
		Op:          op,
		ProcessName: processName,
		Err:         err,
	}
}

// IsProcessNotFound checks if an error indicates a missing definition.
func IsProcessNotFound(err error) bool {
	return errors.Is(err, ErrProcessNotFound)
}
