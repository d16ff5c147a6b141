package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/omnicart/channelbridge/internal/core/domain"
	"github.com/omnicart/channelbridge/internal/core/ports"
)

// FanoutSink writes each batch to every configured sink in order. A failing
// sink never suppresses the others; all failures are joined and surfaced so a
// lost event is always distinguishable from the outcome it described.
type FanoutSink struct {
	sinks []ports.EventSink
}

func NewFanoutSink(sinks ...ports.EventSink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

func (s *FanoutSink) Write(ctx context.Context, events []domain.Event) error {
	var errs []error
	for i, sink := range s.sinks {
		if err := sink.Write(ctx, events); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
