// Package models defines the core domain models for saga process orchestration.
package models

import (
	"time"

	"github.com/google/uuid"
)

// TraceEntry records the completion of one step attempt. Entries are appended
// in the order completions happen and are never reordered.
type TraceEntry struct {
	StepID    string          `json:"step_id"`
	Status    ExecutionStatus `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

// Context is the mutable shared state of a single process run. It is owned by
// exactly one run and must not be shared across concurrent executions.
type Context struct {
	ProcessID      string         `json:"process_id"`
	UserID         string         `json:"user_id,omitempty"`
	TenantID       string         `json:"tenant_id,omitempty"`
	Data           map[string]any `json:"data"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	ExecutionTrace []TraceEntry   `json:"execution_trace"`
}

// NewContext creates a context with a freshly generated process ID.
func NewContext() *Context {
	return NewContextWithID(uuid.New().String())
}

// NewContextWithID creates a context for a known process ID, used by replay
// and by callers that generate their own identifiers.
func NewContextWithID(processID string) *Context {
	return &Context{
		ProcessID:      processID,
		Data:           make(map[string]any),
		Metadata:       make(map[string]any),
		ExecutionTrace: make([]TraceEntry, 0),
	}
}

// SnapshotData returns a shallow copy of Data, taken before a step runs so the
// audit record is not corrupted by later mutation.
func (c *Context) SnapshotData() map[string]any {
	snapshot := make(map[string]any, len(c.Data))
	for k, v := range c.Data {
		snapshot[k] = v
	}

	return snapshot
}

// ResultKey is the Data key under which a step's output is stored.
func ResultKey(stepID string) string {
	return stepID + "_result"
}
