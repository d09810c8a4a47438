package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/prosaga/prosaga/pkg/circuit"
	"github.com/prosaga/prosaga/pkg/eventbus"
	"github.com/prosaga/prosaga/pkg/events"
	"github.com/prosaga/prosaga/pkg/eventstore"
	"github.com/prosaga/prosaga/pkg/models"
	"github.com/prosaga/prosaga/pkg/otelhelper"
	"github.com/prosaga/prosaga/pkg/protocol"
)

// StepSource produces constructed step instances for a process definition.
// Step construction (type lookup, param validation, service injection) is a
// collaborator concern; the engine only consumes the result.
type StepSource interface {
	BuildSteps(definition *models.ProcessDefinition) ([]protocol.Step, error)
}

// Engine orchestrates saga process executions. A single engine instance
// serves many concurrent process runs; the only state shared between runs is
// the circuit breaker map, keyed by step ID.
type Engine struct {
	logger *slog.Logger
	source StepSource
	store  eventstore.EventStore

	eventBus eventbus.EventBus
	tracer   trace.Tracer

	failureThreshold int
	breakerTimeout   time.Duration

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

func NewEngine(logger *slog.Logger, source StepSource, store eventstore.EventStore) *Engine {
	return &Engine{
		logger:           logger,
		source:           source,
		store:            store,
		failureThreshold: circuit.DefaultFailureThreshold,
		breakerTimeout:   circuit.DefaultTimeout,
		breakers:         make(map[string]*circuit.Breaker),
	}
}

// WithEventBus attaches an event bus for process lifecycle events.
func (e *Engine) WithEventBus(bus eventbus.EventBus) *Engine {
	e.eventBus = bus

	return e
}

// WithTracer attaches a tracer; a span is started per process and per step.
func (e *Engine) WithTracer(tracer trace.Tracer) *Engine {
	e.tracer = tracer

	return e
}

// WithBreakerConfig overrides the circuit breaker defaults for breakers
// created after the call.
func (e *Engine) WithBreakerConfig(failureThreshold int, timeout time.Duration) *Engine {
	e.failureThreshold = failureThreshold
	e.breakerTimeout = timeout

	return e
}

// ExecuteProcess runs a full process: builds steps, resolves their order and
// drives each one through the step execution state machine. On the first
// non-successful step it compensates previously succeeded steps in reverse
// order and returns a ProcessError naming the failing step. On success it
// returns the same context, mutated with accumulated data and trace.
func (e *Engine) ExecuteProcess(ctx context.Context, definition *models.ProcessDefinition, pctx *models.Context) (*models.Context, error) {
	logger := e.logger.With(
		"process_name", definition.Name,
		"process_id", pctx.ProcessID,
	)

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "process.execute",
			attribute.String(otelhelper.ProcessIDKey, pctx.ProcessID),
			attribute.String(otelhelper.ProcessNameKey, definition.Name),
		)
		defer span.End()
	}

	logger.Info("Starting process execution", "steps", len(definition.Steps))

	steps, err := e.source.BuildSteps(definition)
	if err != nil {
		logger.Error("Failed to build steps", "error", err)

		return nil, &ProcessError{
			ProcessID:   pctx.ProcessID,
			ProcessName: definition.Name,
			Err:         fmt.Errorf("failed to build steps: %w", err),
		}
	}

	order, err := resolveOrder(steps)
	if err != nil {
		logger.Error("Failed to resolve step order", "error", err)

		return nil, &ProcessError{
			ProcessID:   pctx.ProcessID,
			ProcessName: definition.Name,
			Err:         err,
		}
	}

	e.publish(ctx, pctx.ProcessID, events.ProcessStarted{
		BaseEvent: events.NewBaseEvent(events.ProcessStartedEvent, pctx.ProcessID, definition.Name),
		StepCount: len(order),
	})

	executed := make([]protocol.Step, 0, len(order))

	for _, step := range order {
		record, stepErr := e.executeStep(ctx, logger, step, pctx)

		if stepErr == nil {
			executed = append(executed, step)
			pctx.Data[models.ResultKey(step.ID())] = record.OutputData

			e.publish(ctx, pctx.ProcessID, events.StepFinished{
				BaseEvent:  events.NewBaseEvent(events.StepFinishedEvent, pctx.ProcessID, definition.Name),
				StepID:     step.ID(),
				DurationMS: float64(record.CompletedAt.Sub(record.StartedAt).Milliseconds()),
			})

			continue
		}

		logger.Error("Step failed, compensating executed steps",
			"step_id", step.ID(),
			"error", record.ErrorMessage,
		)

		e.publish(ctx, pctx.ProcessID, events.StepFailed{
			BaseEvent: events.NewBaseEvent(events.StepFailedEvent, pctx.ProcessID, definition.Name),
			StepID:    step.ID(),
			Error:     record.ErrorMessage,
		})

		e.compensate(ctx, logger, definition.Name, executed, pctx)

		e.publish(ctx, pctx.ProcessID, events.ProcessFailed{
			BaseEvent: events.NewBaseEvent(events.ProcessFailedEvent, pctx.ProcessID, definition.Name),
			StepID:    step.ID(),
			Error:     record.ErrorMessage,
		})

		return nil, &ProcessError{
			ProcessID:   pctx.ProcessID,
			ProcessName: definition.Name,
			StepID:      step.ID(),
			Err:         stepErr,
		}
	}

	logger.Info("Process completed successfully")

	e.publish(ctx, pctx.ProcessID, events.ProcessCompleted{
		BaseEvent:      events.NewBaseEvent(events.ProcessCompletedEvent, pctx.ProcessID, definition.Name),
		ExecutionTrace: pctx.ExecutionTrace,
	})

	return pctx, nil
}

// ReplayProcess rebuilds a context from the recorded history of a prior run
// without re-executing any side effects.
func (e *Engine) ReplayProcess(ctx context.Context, processID string) (*models.Context, error) {
	return e.store.ReplayProcess(ctx, processID)
}

// executeStep runs the per-step state machine: breaker gate, validate,
// execute, record, trace. The returned error is the typed failure cause, nil
// on success; the record carries the same failure as its ErrorMessage.
func (e *Engine) executeStep(ctx context.Context, logger *slog.Logger, step protocol.Step, pctx *models.Context) (*models.StepExecution, error) {
	var span trace.Span

	if e.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "step.execute",
			attribute.String(otelhelper.StepIDKey, step.ID()),
			attribute.String(otelhelper.StepTypeKey, string(step.Type())),
		)
		defer span.End()
	}

	breaker := e.breakerFor(step.ID())

	if !breaker.CanExecute() {
		now := time.Now()
		record := &models.StepExecution{
			StepID:       step.ID(),
			ProcessID:    pctx.ProcessID,
			StartedAt:    now,
			CompletedAt:  now,
			InputData:    pctx.SnapshotData(),
			Status:       models.ExecutionStatusFailed,
			ErrorMessage: ErrCircuitOpen.Error(),
			Metadata: map[string]any{
				"execution_time_ms": float64(0),
				"step_type":         string(step.Type()),
			},
		}

		logger.Warn("Step skipped, circuit breaker is open", "step_id", step.ID())
		e.storeRecord(ctx, logger, record)

		if span != nil {
			otelhelper.RecordStepFailure(span, ErrCircuitOpen, step.ID())
		}

		return record, ErrCircuitOpen
	}

	record := &models.StepExecution{
		StepID:    step.ID(),
		ProcessID: pctx.ProcessID,
		StartedAt: time.Now(),
		InputData: pctx.SnapshotData(),
		Status:    models.ExecutionStatusPending,
	}

	var failure error

	ok, err := step.Validate(ctx, pctx)

	switch {
	case err != nil:
		failure = fmt.Errorf("%w for step %s: %v", ErrValidationFailed, step.ID(), err)
	case !ok:
		failure = fmt.Errorf("%w for step %s", ErrValidationFailed, step.ID())
	default:
		record.Status = models.ExecutionStatusRunning

		result, err := step.Execute(ctx, pctx)

		switch {
		case err != nil:
			failure = err
		case result == nil:
			failure = errors.New("step returned no result")
		case result.Success:
			record.Status = models.ExecutionStatusSuccess
			record.OutputData = result.Data

			breaker.RecordSuccess()
		default:
			failure = errors.New(result.Error)
		}
	}

	if failure != nil {
		record.Status = models.ExecutionStatusFailed
		record.ErrorMessage = failure.Error()

		breaker.RecordFailure()

		if span != nil {
			otelhelper.RecordStepFailure(span, failure, step.ID())
		}
	}

	record.CompletedAt = time.Now()
	record.Metadata = map[string]any{
		"execution_time_ms": float64(record.CompletedAt.Sub(record.StartedAt).Microseconds()) / 1000.0,
		"step_type":         string(step.Type()),
	}

	e.storeRecord(ctx, logger, record)

	pctx.ExecutionTrace = append(pctx.ExecutionTrace, models.TraceEntry{
		StepID:    step.ID(),
		Status:    record.Status,
		Timestamp: record.CompletedAt,
	})

	return record, failure
}

// compensate invokes Compensate on previously succeeded steps in reverse
// order. A compensation failure is logged and does not stop the sweep; every
// succeeded step gets its compensation attempt.
func (e *Engine) compensate(ctx context.Context, logger *slog.Logger, processName string, executed []protocol.Step, pctx *models.Context) {
	for i := len(executed) - 1; i >= 0; i-- {
		step := executed[i]

		result, err := step.Compensate(ctx, pctx)

		succeeded := err == nil && result != nil && result.Success

		switch {
		case err != nil:
			logger.Error("Compensation failed", "step_id", step.ID(), "error", err)
		case result == nil || !result.Success:
			errorMessage := ""
			if result != nil {
				errorMessage = result.Error
			}

			logger.Error("Compensation unsuccessful", "step_id", step.ID(), "error", errorMessage)
		default:
			logger.Info("Compensated step", "step_id", step.ID())

			now := time.Now()
			e.storeRecord(ctx, logger, &models.StepExecution{
				StepID:      step.ID(),
				ProcessID:   pctx.ProcessID,
				StartedAt:   now,
				CompletedAt: now,
				Status:      models.ExecutionStatusCompensated,
				Metadata: map[string]any{
					"step_type": string(step.Type()),
				},
			})
		}

		e.publish(ctx, pctx.ProcessID, events.StepCompensated{
			BaseEvent: events.NewBaseEvent(events.StepCompensatedEvent, pctx.ProcessID, processName),
			StepID:    step.ID(),
			Success:   succeeded,
		})
	}
}

// breakerFor returns the circuit breaker for a step ID, creating it lazily.
// Breakers outlive individual process runs.
func (e *Engine) breakerFor(stepID string) *circuit.Breaker {
	e.mu.Lock()
	defer e.mu.Unlock()

	breaker, exists := e.breakers[stepID]
	if !exists {
		breaker = circuit.NewBreaker(e.failureThreshold, e.breakerTimeout)
		e.breakers[stepID] = breaker
	}

	return breaker
}

func (e *Engine) storeRecord(ctx context.Context, logger *slog.Logger, record *models.StepExecution) {
	if err := e.store.StoreExecution(ctx, record); err != nil {
		logger.Error("Failed to store execution record",
			"step_id", record.StepID,
			"error", err,
		)
	}
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, key, event); err != nil {
		e.logger.Error("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
