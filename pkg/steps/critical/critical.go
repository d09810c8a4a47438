// Package critical wraps a step with failure escalation: outcomes are logged
// at error level with full identity so critical-path failures stand out in
// aggregated logs. The wrapper delegates the whole Step contract to the
// inner step.
package critical

import (
	"context"
	"log/slog"

	"github.com/prosaga/prosaga/pkg/models"
	"github.com/prosaga/prosaga/pkg/protocol"
)

type Step struct {
	inner  protocol.Step
	logger *slog.Logger
}

func Wrap(inner protocol.Step, logger *slog.Logger) *Step {
	return &Step{
		inner:  inner,
		logger: logger.With("step_id", inner.ID(), "critical", true),
	}
}

func (s *Step) ID() string             { return s.inner.ID() }
func (s *Step) Type() models.StepType  { return s.inner.Type() }
func (s *Step) Dependencies() []string { return s.inner.Dependencies() }

func (s *Step) Validate(ctx context.Context, pctx *models.Context) (bool, error) {
	ok, err := s.inner.Validate(ctx, pctx)
	if err != nil || !ok {
		s.logger.Error("Critical step failed validation", "error", err)
	}

	return ok, err
}

func (s *Step) Execute(ctx context.Context, pctx *models.Context) (*models.StepResult, error) {
	result, err := s.inner.Execute(ctx, pctx)

	switch {
	case err != nil:
		s.logger.Error("Critical step failed", "error", err)
	case result != nil && !result.Success:
		s.logger.Error("Critical step failed", "error", result.Error)
	}

	return result, err
}

func (s *Step) Compensate(ctx context.Context, pctx *models.Context) (*models.StepResult, error) {
	s.logger.Warn("Compensating critical step")

	result, err := s.inner.Compensate(ctx, pctx)

	switch {
	case err != nil:
		s.logger.Error("Critical step compensation failed", "error", err)
	case result != nil && !result.Success:
		s.logger.Error("Critical step compensation failed", "error", result.Error)
	}

	return result, err
}

var _ protocol.Step = (*Step)(nil)
