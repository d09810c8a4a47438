// Package query provides the read-only saga step: a named handler with no
// retry and no compensation logic.
package query

import (
	"context"

	"github.com/prosaga/prosaga/pkg/models"
	"github.com/prosaga/prosaga/pkg/protocol"
	"github.com/prosaga/prosaga/pkg/services"
	"github.com/prosaga/prosaga/pkg/steps/stepconf"
)

type Step struct {
	id           string
	dependencies []string
	handler      services.Handler
}

func (s *Step) ID() string            { return s.id }
func (s *Step) Type() models.StepType { return models.StepTypeQuery }
func (s *Step) Dependencies() []string {
	return s.dependencies
}

func (s *Step) Validate(_ context.Context, _ *models.Context) (bool, error) {
	return true, nil
}

func (s *Step) Execute(ctx context.Context, pctx *models.Context) (*models.StepResult, error) {
	output, err := s.handler(ctx, pctx)
	if err != nil {
		return &models.StepResult{Success: false, Error: err.Error()}, nil
	}

	return &models.StepResult{Success: true, Data: output}, nil
}

// Compensate succeeds trivially; queries have nothing to undo.
func (s *Step) Compensate(_ context.Context, _ *models.Context) (*models.StepResult, error) {
	return &models.StepResult{Success: true}, nil
}

type Factory struct {
	locator *services.Locator
}

func NewFactory(locator *services.Locator) *Factory {
	return &Factory{locator: locator}
}

func (f *Factory) ID() string { return "query" }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"handler": map[string]any{
				"type":        "string",
				"description": "Named handler resolved from the service locator",
			},
		},
		"required": []string{"handler"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Step, error) {
	handler, err := f.locator.Handler(stepconf.String(config, "handler"))
	if err != nil {
		return nil, err
	}

	return &Step{
		id:           stepconf.String(config, "id"),
		dependencies: stepconf.StringSlice(config, "dependencies"),
		handler:      handler,
	}, nil
}

var _ protocol.StepFactory = (*Factory)(nil)
