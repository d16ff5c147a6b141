package channels

import (
	"context"
	"time"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

// Snapdeal batches everything through a single catalog endpoint with an
// action discriminator.
type Snapdeal struct {
	rc *restClient
}

func NewSnapdeal(timeout time.Duration) *Snapdeal {
	return &Snapdeal{rc: newRESTClient(timeout)}
}

type snapdealBatch struct {
	StoreCode string            `json:"store_code"`
	Action    string            `json:"action"`
	Products  []domain.LineItem `json:"products"`
}

func (s *Snapdeal) Range(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error {
	return s.rc.post(ctx, domain.ChannelSnapdeal, domain.OperationRanging, cfg, "/catalog/batch", snapdealBatch{StoreCode: cfg.ID, Action: "list", Products: items})
}

func (s *Snapdeal) Derange(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error {
	return s.rc.post(ctx, domain.ChannelSnapdeal, domain.OperationDeranging, cfg, "/catalog/batch", snapdealBatch{StoreCode: cfg.ID, Action: "unlist", Products: items})
}

func (s *Snapdeal) UpdateInventory(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error {
	return s.rc.post(ctx, domain.ChannelSnapdeal, domain.OperationInventoryUpdate, cfg, "/catalog/batch", snapdealBatch{StoreCode: cfg.ID, Action: "stock", Products: items})
}

func (s *Snapdeal) UpdatePrice(ctx context.Context, cfg domain.ChannelConfig, items []domain.LineItem) error {
	return s.rc.post(ctx, domain.ChannelSnapdeal, domain.OperationPriceUpdate, cfg, "/catalog/batch", snapdealBatch{StoreCode: cfg.ID, Action: "price", Products: items})
}
