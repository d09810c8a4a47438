// Package command provides the effectful saga step: a named handler executed
// with retry and exponential backoff, paired with an optional compensation
// handler for rollback.
package command

import (
	"context"
	"time"

	"github.com/prosaga/prosaga/pkg/models"
	"github.com/prosaga/prosaga/pkg/services"
)

// DefaultBackoff is the base wait between retry attempts; attempt n waits
// 2^n times this value.
const DefaultBackoff = time.Second

type Step struct {
	id           string
	dependencies []string
	retryCount   int
	backoff      time.Duration
	handler      services.Handler
	compensator  services.Handler
}

func (s *Step) ID() string            { return s.id }
func (s *Step) Type() models.StepType { return models.StepTypeCommand }
func (s *Step) Dependencies() []string {
	return s.dependencies
}

func (s *Step) Validate(_ context.Context, _ *models.Context) (bool, error) {
	return true, nil
}

// Execute runs the handler, retrying transient failures up to retryCount
// additional times. Only the final outcome surfaces; intermediate failures
// are invisible to the engine and its circuit breaker.
func (s *Step) Execute(ctx context.Context, pctx *models.Context) (*models.StepResult, error) {
	var lastErr error

	for attempt := 0; attempt <= s.retryCount; attempt++ {
		output, err := s.handler(ctx, pctx)
		if err == nil {
			return &models.StepResult{Success: true, Data: output}, nil
		}

		lastErr = err

		if attempt == s.retryCount {
			break
		}

		wait := s.backoff << uint(attempt)

		select {
		case <-ctx.Done():
			return &models.StepResult{Success: false, Error: ctx.Err().Error()}, nil
		case <-time.After(wait):
		}
	}

	return &models.StepResult{Success: false, Error: lastErr.Error()}, nil
}

func (s *Step) Compensate(ctx context.Context, pctx *models.Context) (*models.StepResult, error) {
	if s.compensator == nil {
		return &models.StepResult{Success: true}, nil
	}

	output, err := s.compensator(ctx, pctx)
	if err != nil {
		return &models.StepResult{Success: false, Error: err.Error()}, nil
	}

	return &models.StepResult{Success: true, Data: output}, nil
}
