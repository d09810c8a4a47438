// Package logstep provides a side-effect step that writes a structured log
// line. The message is a template rendered against the process context.
package logstep

import (
	"context"
	"log/slog"

	"github.com/prosaga/prosaga/pkg/models"
	"github.com/prosaga/prosaga/pkg/protocol"
	"github.com/prosaga/prosaga/pkg/steps/stepconf"
	"github.com/prosaga/prosaga/pkg/template"
)

type Step struct {
	id           string
	dependencies []string
	message      string
	level        string
	logger       *slog.Logger
}

func (s *Step) ID() string            { return s.id }
func (s *Step) Type() models.StepType { return models.StepTypeSideEffect }
func (s *Step) Dependencies() []string {
	return s.dependencies
}

func (s *Step) Validate(_ context.Context, _ *models.Context) (bool, error) {
	return true, nil
}

func (s *Step) Execute(_ context.Context, pctx *models.Context) (*models.StepResult, error) {
	message, err := template.RenderWithContext(s.message, pctx.ProcessID, pctx.Data, pctx.Metadata)
	if err != nil {
		return &models.StepResult{Success: false, Error: err.Error()}, nil
	}

	logger := s.logger.With("step_id", s.id, "process_id", pctx.ProcessID)

	switch s.level {
	case "debug":
		logger.Debug(message)
	case "warn":
		logger.Warn(message)
	case "error":
		logger.Error(message)
	default:
		logger.Info(message)
	}

	return &models.StepResult{
		Success: true,
		Data:    map[string]any{"logged_message": message, "level": s.level},
	}, nil
}

func (s *Step) Compensate(_ context.Context, _ *models.Context) (*models.StepResult, error) {
	return &models.StepResult{Success: true}, nil
}

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	return &Factory{logger: logger}
}

func (f *Factory) ID() string { return "log" }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Message template rendered against the process context",
			},
			"level": map[string]any{
				"type": "string",
				"enum": []string{"debug", "info", "warn", "error"},
			},
		},
		"required": []string{"message"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Step, error) {
	level := stepconf.String(config, "level")
	if level == "" {
		level = "info"
	}

	return &Step{
		id:           stepconf.String(config, "id"),
		dependencies: stepconf.StringSlice(config, "dependencies"),
		message:      stepconf.String(config, "message"),
		level:        level,
		logger:       f.logger,
	}, nil
}

var _ protocol.StepFactory = (*Factory)(nil)
