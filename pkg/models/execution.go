package models

import "time"

// ExecutionStatus is the lifecycle state of one step execution attempt.
type ExecutionStatus string

const (
	ExecutionStatusPending     ExecutionStatus = "pending"
	ExecutionStatusRunning     ExecutionStatus = "running"
	ExecutionStatusSuccess     ExecutionStatus = "success"
	ExecutionStatusFailed      ExecutionStatus = "failed"
	ExecutionStatusCompensated ExecutionStatus = "compensated"
)

// StepType classifies a step implementation.
type StepType string

const (
	StepTypeCommand    StepType = "command"
	StepTypeQuery      StepType = "query"
	StepTypeValidation StepType = "validation"
	StepTypeSideEffect StepType = "side_effect"
)

// StepResult is the outcome of a single step invocation. It is ephemeral,
// produced and consumed within one invocation.
type StepResult struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StepExecution is the durable audit record for one step attempt. It is
// stored at most once, at attempt completion, and never mutated afterwards.
type StepExecution struct {
	StepID       string          `json:"step_id"`
	ProcessID    string          `json:"process_id"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  time.Time       `json:"completed_at"`
	InputData    map[string]any  `json:"input_data,omitempty"`
	OutputData   any             `json:"output_data,omitempty"`
	Status       ExecutionStatus `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Metadata     map[string]any  `json:"metadata,omitempty"`
}
