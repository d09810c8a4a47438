package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/prosaga/prosaga/pkg/models"
)

const createExecutionsTable = `
CREATE TABLE IF NOT EXISTS step_executions (
	id            BIGSERIAL PRIMARY KEY,
	step_id       TEXT        NOT NULL,
	process_id    TEXT        NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ NOT NULL,
	input_data    JSONB,
	output_data   JSONB,
	status        TEXT        NOT NULL,
	error_message TEXT,
	metadata      JSONB,
	stored_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_step_executions_process_id ON step_executions (process_id, id);
`

// PostgresStore is the durable ledger backend. Rows are insert-only; the
// serial primary key preserves storage order per process.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresStore(ctx context.Context, logger *slog.Logger, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, createExecutionsTable); err != nil {
		return nil, fmt.Errorf("failed to create step_executions table: %w", err)
	}

	logger.InfoContext(ctx, "PostgreSQL event store ready")

	return &PostgresStore{db: db, logger: logger}, nil
}

func (s *PostgresStore) StoreExecution(ctx context.Context, execution *models.StepExecution) error {
	inputData, err := json.Marshal(execution.InputData)
	if err != nil {
		return fmt.Errorf("failed to marshal input data for step %s: %w", execution.StepID, err)
	}

	outputData, err := json.Marshal(execution.OutputData)
	if err != nil {
		return fmt.Errorf("failed to marshal output data for step %s: %w", execution.StepID, err)
	}

	metadata, err := json.Marshal(execution.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata for step %s: %w", execution.StepID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO step_executions
			(step_id, process_id, started_at, completed_at, input_data, output_data, status, error_message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		execution.StepID,
		execution.ProcessID,
		execution.StartedAt,
		execution.CompletedAt,
		inputData,
		outputData,
		string(execution.Status),
		execution.ErrorMessage,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to append execution record for process %s: %w", execution.ProcessID, err)
	}

	return nil
}

func (s *PostgresStore) ProcessHistory(ctx context.Context, processID string) ([]*models.StepExecution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step_id, process_id, started_at, completed_at, input_data, output_data, status, error_message, metadata
		FROM step_executions
		WHERE process_id = $1
		ORDER BY id`,
		processID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger for process %s: %w", processID, err)
	}
	defer rows.Close()

	history := make([]*models.StepExecution, 0)

	for rows.Next() {
		var (
			record       models.StepExecution
			startedAt    time.Time
			completedAt  time.Time
			inputData    []byte
			outputData   []byte
			metadata     []byte
			status       string
			errorMessage sql.NullString
		)

		err := rows.Scan(
			&record.StepID,
			&record.ProcessID,
			&startedAt,
			&completedAt,
			&inputData,
			&outputData,
			&status,
			&errorMessage,
			&metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution record for process %s: %w", processID, err)
		}

		record.StartedAt = startedAt
		record.CompletedAt = completedAt
		record.Status = models.ExecutionStatus(status)
		record.ErrorMessage = errorMessage.String

		if len(inputData) > 0 {
			if err := json.Unmarshal(inputData, &record.InputData); err != nil {
				return nil, fmt.Errorf("failed to decode input data for process %s: %w", processID, err)
			}
		}

		if len(outputData) > 0 {
			if err := json.Unmarshal(outputData, &record.OutputData); err != nil {
				return nil, fmt.Errorf("failed to decode output data for process %s: %w", processID, err)
			}
		}

		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &record.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for process %s: %w", processID, err)
			}
		}

		history = append(history, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger for process %s: %w", processID, err)
	}

	return history, nil
}

func (s *PostgresStore) ReplayProcess(ctx context.Context, processID string) (*models.Context, error) {
	history, err := s.ProcessHistory(ctx, processID)
	if err != nil {
		return nil, err
	}

	return replayHistory(processID, history)
}

func (s *PostgresStore) Close(_ context.Context) error {
	return s.db.Close()
}
