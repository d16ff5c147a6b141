package channels

import (
	"context"
	"time"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

// Flipkart uses per-operation endpoints with a seller-scoped request body.
type Flipkart struct {
	rc *restClient
}

func NewFlipkart(timeout time.Duration) *Flipkart {
	return &Flipkart{rc: newRESTClient(timeout)}
}

type flipkartRequest struct {
	SellerID string            `json:"sellerId"`
	Skus     []domain.LineItem `json:"skus"`
}

func (f *Flipkart) Range(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error {
	return f.rc.post(ctx, domain.ChannelFlipkart, domain.OperationRanging, cfg, "/sellers/skus/activate", flipkartRequest{SellerID: cfg.ID, Skus: items})
}

func (f *Flipkart) Derange(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error {
	return f.rc.post(ctx, domain.ChannelFlipkart, domain.OperationDeranging, cfg, "/sellers/skus/deactivate", flipkartRequest{SellerID: cfg.ID, Skus: items})
}

func (f *Flipkart) UpdateInventory(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error {
	return f.rc.post(ctx, domain.ChannelFlipkart, domain.OperationInventoryUpdate, cfg, "/sellers/skus/stock", flipkartRequest{SellerID: cfg.ID, Skus: items})
}

func (f *Flipkart) UpdatePrice(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error {
	return f.rc.post(ctx, domain.ChannelFlipkart, domain.OperationPriceUpdate, cfg, "/sellers/skus/price", flipkartRequest{SellerID: cfg.ID, Skus: items})
}
