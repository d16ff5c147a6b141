package ports

import (
	"context"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

// FeedSource pulls a raw payload from the OMS export feed for a scheduled job.
type FeedSource interface {
	Pull(ctx context.Context, messageType domain.MessageType, channelID string) (string, error)
}
