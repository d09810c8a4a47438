package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// StepDefinition is the declarative description of one step in a process.
type StepDefinition struct {
	Name         string         `json:"name"                   validate:"required,min=1"`
	Type         string         `json:"type"                   validate:"required"`
	Dependencies []string       `json:"dependencies,omitempty"`
	RetryCount   int            `json:"retry_count,omitempty"  validate:"gte=0"`
	Critical     bool           `json:"critical,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
}

// ProcessDefinition describes a full saga process: an ordered set of step
// descriptors with named dependencies.
type ProcessDefinition struct {
	Name        string            `json:"name"                  validate:"required,min=3"`
	Description string            `json:"description,omitempty"`
	Steps       []*StepDefinition `json:"steps"                 validate:"required,min=1,dive"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

// Validate runs struct validation and checks cross-field constraints that
// validator tags cannot express: step names must be unique within a process,
// and dependencies must reference declared steps.
func (d *ProcessDefinition) Validate(v *validator.Validate) error {
	if err := v.Struct(d); err != nil {
		return fmt.Errorf("invalid process definition %q: %w", d.Name, err)
	}

	seen := make(map[string]bool, len(d.Steps))
	for _, step := range d.Steps {
		if seen[step.Name] {
			return fmt.Errorf("invalid process definition %q: duplicate step name %q", d.Name, step.Name)
		}

		seen[step.Name] = true
	}

	for _, step := range d.Steps {
		for _, dep := range step.Dependencies {
			if !seen[dep] {
				return fmt.Errorf("invalid process definition %q: step %q depends on undeclared step %q",
					d.Name, step.Name, dep)
			}
		}
	}

	return nil
}
