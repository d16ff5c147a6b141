package ports

import (
	"context"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

// Notifier pushes one persisted event to a downstream human-facing channel.
type Notifier interface {
	Notify(ctx context.Context, record domain.EventRecord) error
}
