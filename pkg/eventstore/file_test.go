package eventstore_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prosaga/prosaga/pkg/eventstore"
	"github.com/prosaga/prosaga/pkg/models"
)

func TestFileStore_AppendAndReadBack(t *testing.T) {
	t.Parallel()

	store := eventstore.NewFileStore(t.TempDir())
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, store.StoreExecution(ctx,
		record("p1", "a", models.ExecutionStatusSuccess, base, map[string]any{"v": "1"})))
	require.NoError(t, store.StoreExecution(ctx,
		record("p1", "b", models.ExecutionStatusFailed, base.Add(time.Second), nil)))

	history, err := store.ProcessHistory(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "a", history[0].StepID)
	assert.Equal(t, models.ExecutionStatusSuccess, history[0].Status)
	assert.Equal(t, map[string]any{"v": "1"}, history[0].OutputData)
	assert.Equal(t, "b", history[1].StepID)
}

func TestFileStore_OneLedgerFilePerProcess(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := eventstore.NewFileStore(root)
	ctx := context.Background()

	require.NoError(t, store.StoreExecution(ctx,
		record("p1", "a", models.ExecutionStatusSuccess, time.Now(), nil)))
	require.NoError(t, store.StoreExecution(ctx,
		record("p2", "a", models.ExecutionStatusSuccess, time.Now(), nil)))

	entries, err := os.ReadDir(filepath.Join(root, "executions"))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, entry := range entries {
		assert.True(t, strings.HasSuffix(entry.Name(), ".jsonl"))
	}
}

func TestFileStore_HistoryOfUnknownProcessIsEmpty(t *testing.T) {
	t.Parallel()

	store := eventstore.NewFileStore(t.TempDir())

	history, err := store.ProcessHistory(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestFileStore_ReplaySurvivesReopen(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ctx := context.Background()
	base := time.Now()

	store := eventstore.NewFileStore(root)
	require.NoError(t, store.StoreExecution(ctx,
		record("p1", "reserve", models.ExecutionStatusSuccess, base, map[string]any{"sku": "x"})))
	require.NoError(t, store.Close(ctx))

	reopened := eventstore.NewFileStore(root)

	replayed, err := reopened.ReplayProcess(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"sku": "x"}, replayed.Data[models.ResultKey("reserve")])
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	store := eventstore.NewFileStore(t.TempDir())
	ctx := context.Background()

	err := store.StoreExecution(ctx, record("../escape", "a", models.ExecutionStatusSuccess, time.Now(), nil))
	require.Error(t, err)

	_, err = store.ProcessHistory(ctx, "nested/id")
	require.Error(t, err)
}
