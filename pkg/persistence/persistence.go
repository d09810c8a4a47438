// Package persistence provides the storage abstraction for process
// definitions.
package persistence

import (
	"context"

	"github.com/prosaga/prosaga/pkg/models"
)

type Persistence interface {
	ProcessDefinitions(ctx context.Context) ([]*models.ProcessDefinition, error)
	ProcessDefinitionByName(ctx context.Context, name string) (*models.ProcessDefinition, error)
	SaveProcessDefinition(ctx context.Context, definition *models.ProcessDefinition) error
	DeleteProcessDefinition(ctx context.Context, name string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
