// Package eventstore provides the append-only ledger of step executions and
// the replay mechanism that rebuilds process context from history.
package eventstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/prosaga/prosaga/pkg/models"
)

// ErrProcessHistoryNotFound indicates no executions were recorded for the
// given process ID.
var ErrProcessHistoryNotFound = errors.New("process history not found")

// IsProcessHistoryNotFound checks if an error indicates an empty history.
func IsProcessHistoryNotFound(err error) bool {
	return errors.Is(err, ErrProcessHistoryNotFound)
}

// EventStore is the ledger of step execution records. Append is the only
// mutating operation; stored records are never overwritten or removed.
type EventStore interface {
	// StoreExecution appends a completed execution record to the ledger.
	StoreExecution(ctx context.Context, execution *models.StepExecution) error

	// ProcessHistory returns every stored record for the process, in
	// storage order.
	ProcessHistory(ctx context.Context, processID string) ([]*models.StepExecution, error)

	// ReplayProcess reconstructs a fresh context from the process history
	// without re-executing any side effects.
	ReplayProcess(ctx context.Context, processID string) (*models.Context, error)

	Close(ctx context.Context) error
}

// replayHistory rebuilds derived context state from a recorded history. The
// history is walked sorted by start time: successful records write their
// output under the step's result key, compensated records remove it, and
// every other status is skipped.
func replayHistory(processID string, history []*models.StepExecution) (*models.Context, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrProcessHistoryNotFound, processID)
	}

	sorted := make([]*models.StepExecution, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.Before(sorted[j].StartedAt)
	})

	pctx := models.NewContextWithID(processID)

	for _, record := range sorted {
		switch record.Status {
		case models.ExecutionStatusSuccess:
			pctx.Data[models.ResultKey(record.StepID)] = record.OutputData
		case models.ExecutionStatusCompensated:
			delete(pctx.Data, models.ResultKey(record.StepID))
		default:
		}
	}

	return pctx, nil
}
