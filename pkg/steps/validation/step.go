// Package validation provides the pre-flight check step: it asserts required
// context keys are present and optionally runs a named predicate from the
// service locator.
package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/prosaga/prosaga/pkg/models"
	"github.com/prosaga/prosaga/pkg/protocol"
	"github.com/prosaga/prosaga/pkg/services"
	"github.com/prosaga/prosaga/pkg/steps/stepconf"
)

type Step struct {
	id           string
	dependencies []string
	requiredKeys []string
	predicate    string
	locator      *services.Locator
}

func (s *Step) ID() string            { return s.id }
func (s *Step) Type() models.StepType { return models.StepTypeValidation }
func (s *Step) Dependencies() []string {
	return s.dependencies
}

func (s *Step) Validate(_ context.Context, _ *models.Context) (bool, error) {
	return true, nil
}

func (s *Step) Execute(ctx context.Context, pctx *models.Context) (*models.StepResult, error) {
	missing := make([]string, 0)

	for _, key := range s.requiredKeys {
		if _, ok := pctx.Data[key]; !ok {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return &models.StepResult{
			Success: false,
			Data:    map[string]any{"is_valid": false},
			Error:   fmt.Sprintf("validation failed for %s: missing keys [%s]", s.id, strings.Join(missing, ", ")),
		}, nil
	}

	if s.predicate != "" {
		predicate, err := s.locator.Predicate(s.predicate)
		if err != nil {
			return &models.StepResult{Success: false, Error: err.Error()}, nil
		}

		valid, err := predicate(ctx, pctx)
		if err != nil {
			return &models.StepResult{Success: false, Error: err.Error()}, nil
		}

		if !valid {
			return &models.StepResult{
				Success: false,
				Data:    map[string]any{"is_valid": false},
				Error:   fmt.Sprintf("validation failed for %s: predicate %s rejected context", s.id, s.predicate),
			}, nil
		}
	}

	return &models.StepResult{
		Success: true,
		Data:    map[string]any{"is_valid": true},
	}, nil
}

func (s *Step) Compensate(_ context.Context, _ *models.Context) (*models.StepResult, error) {
	return &models.StepResult{Success: true}, nil
}

type Factory struct {
	locator *services.Locator
}

func NewFactory(locator *services.Locator) *Factory {
	return &Factory{locator: locator}
}

func (f *Factory) ID() string { return "validation" }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"required_keys": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Context data keys that must be present",
			},
			"predicate": map[string]any{
				"type":        "string",
				"description": "Named predicate resolved from the service locator",
			},
		},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Step, error) {
	return &Step{
		id:           stepconf.String(config, "id"),
		dependencies: stepconf.StringSlice(config, "dependencies"),
		requiredKeys: stepconf.StringSlice(config, "required_keys"),
		predicate:    stepconf.String(config, "predicate"),
		locator:      f.locator,
	}, nil
}

var _ protocol.StepFactory = (*Factory)(nil)
