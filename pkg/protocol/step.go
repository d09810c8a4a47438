// Package protocol defines the contracts between the process engine and
// pluggable step implementations.
package protocol

import (
	"context"

	"github.com/prosaga/prosaga/pkg/models"
)

// Step is the unit of work the engine orchestrates. Implementations are free
// to perform blocking I/O inside Validate, Execute and Compensate; the engine
// awaits each call before proceeding.
//
// Execute may signal failure either by returning an error or by returning a
// StepResult with Success set to false. Both are treated identically by the
// engine. Idempotency of Execute is the implementer's responsibility.
type Step interface {
	// ID returns the step identifier, unique within a process definition.
	ID() string

	// Type classifies the step for audit metadata.
	Type() models.StepType

	// Validate is the pre-flight check. It is never retried; returning
	// false or an error fails the step without invoking Execute.
	Validate(ctx context.Context, pctx *models.Context) (bool, error)

	// Execute performs the step's effect against the shared context.
	Execute(ctx context.Context, pctx *models.Context) (*models.StepResult, error)

	// Compensate undoes a previously successful Execute as part of saga
	// rollback. Implementations without undo logic succeed trivially.
	Compensate(ctx context.Context, pctx *models.Context) (*models.StepResult, error)

	// Dependencies lists the step IDs that must complete successfully
	// before this step may run.
	Dependencies() []string
}

// StepFactory creates step instances of one registered type from declarative
// configuration.
type StepFactory interface {
	// Create builds a step from configuration. The registry injects the
	// step's "id", "dependencies" and "retry_count" into the config map
	// before calling Create.
	Create(config map[string]any) (Step, error)

	// ID returns the type name the factory is registered under.
	ID() string

	// Schema returns the JSON schema used to validate step params before
	// Create is called.
	Schema() map[string]any
}
