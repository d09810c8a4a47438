// Package events defines the process lifecycle event types published by the
// engine for observability and downstream integration.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/prosaga/prosaga/pkg/models"
)

type EventType string

// Topic is the event bus topic all process lifecycle events go to.
const Topic = "prosaga.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ProcessStartedEvent   EventType = "process.started"
	ProcessCompletedEvent EventType = "process.completed"
	ProcessFailedEvent    EventType = "process.failed"

	StepFinishedEvent    EventType = "step.finished"
	StepFailedEvent      EventType = "step.failed"
	StepCompensatedEvent EventType = "step.compensated"
)

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	ProcessID   string         `json:"process_id"`
	ProcessName string         `json:"process_name,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, processID, processName string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		ProcessID:   processID,
		ProcessName: processName,
	}
}

type ProcessStarted struct {
	BaseEvent

	StepCount int `json:"step_count"`
}

func (e ProcessStarted) GetType() EventType { return ProcessStartedEvent }

type ProcessCompleted struct {
	BaseEvent

	ExecutionTrace []models.TraceEntry `json:"execution_trace,omitempty"`
}

func (e ProcessCompleted) GetType() EventType { return ProcessCompletedEvent }

type ProcessFailed struct {
	BaseEvent

	StepID string `json:"step_id"`
	Error  string `json:"error,omitempty"`
}

func (e ProcessFailed) GetType() EventType { return ProcessFailedEvent }

type StepFinished struct {
	BaseEvent

	StepID     string  `json:"step_id"`
	DurationMS float64 `json:"duration_ms"`
}

func (e StepFinished) GetType() EventType { return StepFinishedEvent }

type StepFailed struct {
	BaseEvent

	StepID string `json:"step_id"`
	Error  string `json:"error,omitempty"`
}

func (e StepFailed) GetType() EventType { return StepFailedEvent }

type StepCompensated struct {
	BaseEvent

	StepID  string `json:"step_id"`
	Success bool   `json:"success"`
}

func (e StepCompensated) GetType() EventType { return StepCompensatedEvent }
