package ports

import (
	"context"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

// ChannelOperations is the per-marketplace implementation of the business
// operations. A *domain.BusinessError return records the outcome as a
// domain.<op>_failed event; any other error is treated the same way, since a
// failing downstream call is always a business outcome, not a system one.
type ChannelOperations interface {
	Range(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error
	Derange(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error
	UpdateInventory(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error
	UpdatePrice(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error
}
