package registry

import "errors"

var (
	// ErrStepNotRegistered indicates an unknown step type name.
	ErrStepNotRegistered = errors.New("step type not registered")

	// ErrDuplicateFactory indicates a factory is already registered under
	// the same type name.
	ErrDuplicateFactory = errors.New("step type already registered")

	// ErrMissingParameter indicates step params lack a field the type's
	// schema requires.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrInvalidConfig indicates step params failed schema validation for
	// a reason other than a missing required field.
	ErrInvalidConfig = errors.New("invalid step configuration")
)
