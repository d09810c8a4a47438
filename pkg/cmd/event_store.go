package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prosaga/prosaga/pkg/eventstore"
)

// NewEventStore creates an execution ledger from a URL. Supported schemes
// are memory://, file://<path>, redis://... and postgres://...
func NewEventStore(ctx context.Context, logger *slog.Logger, storeURL string) eventstore.EventStore {
	switch {
	case storeURL == "" || strings.HasPrefix(storeURL, "memory://"):
		return eventstore.NewMemoryStore()
	case strings.HasPrefix(storeURL, "file://"):
		return eventstore.NewFileStore(strings.TrimPrefix(storeURL, "file://"))
	case strings.HasPrefix(storeURL, "redis://"), strings.HasPrefix(storeURL, "rediss://"):
		store, err := eventstore.NewRedisStore(ctx, storeURL)
		if err != nil {
			panic(fmt.Errorf("failed to create redis event store: %w", err))
		}

		return store
	case strings.HasPrefix(storeURL, "postgres://"), strings.HasPrefix(storeURL, "postgresql://"):
		store, err := eventstore.NewPostgresStore(ctx, logger, storeURL)
		if err != nil {
			panic(fmt.Errorf("failed to create postgres event store: %w", err))
		}

		return store
	default:
		panic("Unsupported event store URL: " + storeURL)
	}
}
