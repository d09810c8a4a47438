package eventstore

import (
	"context"
	"sync"

	"github.com/prosaga/prosaga/pkg/models"
)

// MemoryStore is an in-process, non-durable ledger. Suitable for tests and
// single-instance deployments that do not need history to survive restarts.
type MemoryStore struct {
	mu     sync.Mutex
	events []*models.StepExecution
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make([]*models.StepExecution, 0),
	}
}

func (s *MemoryStore) StoreExecution(_ context.Context, execution *models.StepExecution) error {
	// Store a copy so callers cannot mutate the ledger afterwards.
	record := *execution

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, &record)

	return nil
}

func (s *MemoryStore) ProcessHistory(_ context.Context, processID string) ([]*models.StepExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]*models.StepExecution, 0)

	for _, record := range s.events {
		if record.ProcessID == processID {
			history = append(history, record)
		}
	}

	return history, nil
}

func (s *MemoryStore) ReplayProcess(ctx context.Context, processID string) (*models.Context, error) {
	history, err := s.ProcessHistory(ctx, processID)
	if err != nil {
		return nil, err
	}

	return replayHistory(processID, history)
}

func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}
