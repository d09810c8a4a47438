package eventstore

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/prosaga/prosaga/pkg/models"
)

const redisKeyPrefix = "prosaga:executions:"

// RedisStore keeps each process ledger in a Redis list, appended with RPUSH
// so storage order is preserved.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore connects to Redis using the given URL
// (redis://[user:pass@]host:port/db) and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client, mainly for tests.
func NewRedisStoreWithClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) StoreExecution(ctx context.Context, execution *models.StepExecution) error {
	data, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution record for step %s: %w", execution.StepID, err)
	}

	err = s.client.RPush(ctx, redisKeyPrefix+execution.ProcessID, data).Err()
	if err != nil {
		return fmt.Errorf("failed to append execution record for process %s: %w", execution.ProcessID, err)
	}

	return nil
}

func (s *RedisStore) ProcessHistory(ctx context.Context, processID string) ([]*models.StepExecution, error) {
	entries, err := s.client.LRange(ctx, redisKeyPrefix+processID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger for process %s: %w", processID, err)
	}

	history := make([]*models.StepExecution, 0, len(entries))

	for _, entry := range entries {
		var record models.StepExecution
		if err := json.Unmarshal([]byte(entry), &record); err != nil {
			return nil, fmt.Errorf("failed to decode execution record for process %s: %w", processID, err)
		}

		history = append(history, &record)
	}

	return history, nil
}

func (s *RedisStore) ReplayProcess(ctx context.Context, processID string) (*models.Context, error) {
	history, err := s.ProcessHistory(ctx, processID)
	if err != nil {
		return nil, err
	}

	return replayHistory(processID, history)
}

func (s *RedisStore) Close(_ context.Context) error {
	return s.client.Close()
}
