package eventstore

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/prosaga/prosaga/pkg/models"
)

// FileStore appends execution records as JSON lines, one file per process,
// under <root>/executions. The append-only file layout mirrors the ledger
// contract: records are only ever added at the end.
type FileStore struct {
	root string
	mu   sync.Mutex
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// validateProcessID rejects identifiers that could escape the store root.
func (s *FileStore) validateProcessID(processID string) error {
	if processID == "" {
		return errors.New("process ID cannot be empty")
	}

	if strings.Contains(processID, "..") || strings.ContainsAny(processID, `/\`) {
		return errors.New("process ID contains invalid characters")
	}

	return nil
}

func (s *FileStore) processPath(processID string) string {
	return filepath.Join(s.root, "executions", processID+".jsonl")
}

func (s *FileStore) StoreExecution(_ context.Context, execution *models.StepExecution) error {
	if err := s.validateProcessID(execution.ProcessID); err != nil {
		return fmt.Errorf("invalid process ID: %w", err)
	}

	data, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution record for step %s: %w", execution.StepID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, "executions")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	f, err := os.OpenFile(s.processPath(execution.ProcessID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open ledger for process %s: %w", execution.ProcessID, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append execution record for process %s: %w", execution.ProcessID, err)
	}

	return nil
}

func (s *FileStore) ProcessHistory(_ context.Context, processID string) ([]*models.StepExecution, error) {
	if err := s.validateProcessID(processID); err != nil {
		return nil, fmt.Errorf("invalid process ID: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.processPath(processID)) // #nosec G304 -- processID is validated above
	if err != nil {
		if os.IsNotExist(err) {
			return make([]*models.StepExecution, 0), nil
		}

		return nil, fmt.Errorf("failed to open ledger for process %s: %w", processID, err)
	}
	defer f.Close()

	history := make([]*models.StepExecution, 0)
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record models.StepExecution
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to decode execution record for process %s: %w", processID, err)
		}

		history = append(history, &record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger for process %s: %w", processID, err)
	}

	return history, nil
}

func (s *FileStore) ReplayProcess(ctx context.Context, processID string) (*models.Context, error) {
	history, err := s.ProcessHistory(ctx, processID)
	if err != nil {
		return nil, err
	}

	return replayHistory(processID, history)
}

func (s *FileStore) Close(_ context.Context) error {
	return nil
}
