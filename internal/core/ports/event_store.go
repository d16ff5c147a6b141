package ports

import (
	"context"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

// EventStore is the durable, append-only event log plus the forwarding
// bookkeeping the notifier loop relies on.
type EventStore interface {
	Write(ctx context.Context, events []domain.Event) error
	List(ctx context.Context, filter domain.EventFilter) ([]domain.EventRecord, error)
	FetchUnforwarded(ctx context.Context, limit int) ([]domain.EventRecord, error)
	MarkForwarded(ctx context.Context, rowID int64) error
	MarkForwardFailed(ctx context.Context, rowID int64, attempts int, nextAttemptAt string, errMsg string) error
	MarkForwardDead(ctx context.Context, rowID int64, attempts int, errMsg string) error
}
