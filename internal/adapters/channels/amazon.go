package channels

import (
	"context"
	"time"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

// Amazon speaks the marketplace's listings/inventory feed endpoints.
type Amazon struct {
	rc *restClient
}

func NewAmazon(timeout time.Duration) *Amazon {
	return &Amazon{rc: newRESTClient(timeout)}
}

type amazonListingFeed struct {
	MerchantID string            `json:"merchant_id"`
	Active     bool              `json:"active"`
	Listings   []domain.LineItem `json:"listings"`
}

func (a *Amazon) Range(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error {
	return a.rc.post(ctx, domain.ChannelAmazon, domain.OperationRanging, cfg, "/feeds/listings", amazonListingFeed{MerchantID: cfg.ID, Active: true, Listings: items})
}

func (a *Amazon) Derange(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error {
	return a.rc.post(ctx, domain.ChannelAmazon, domain.OperationDeranging, cfg, "/feeds/listings", amazonListingFeed{MerchantID: cfg.ID, Active: false, Listings: items})
}

func (a *Amazon) UpdateInventory(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error {
	return a.rc.post(ctx, domain.ChannelAmazon, domain.OperationInventoryUpdate, cfg, "/feeds/inventory", amazonListingFeed{MerchantID: cfg.ID, Active: true, Listings: items})
}

func (a *Amazon) UpdatePrice(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error {
	return a.rc.post(ctx, domain.ChannelAmazon, domain.OperationPriceUpdate, cfg, "/feeds/pricing", amazonListingFeed{MerchantID: cfg.ID, Active: true, Listings: items})
}
