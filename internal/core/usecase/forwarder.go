package usecase

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omnicart/channelbridge/internal/core/ports"
)

// EventForwarder pushes persisted error-level events to the downstream
// notifier. A notification failure is never equivalent to success: the
// attempt is recorded, retried with backoff, and dead-lettered once the
// attempt budget is spent, so every undelivered notification stays visible in
// the store.
type EventForwarder struct {
	store    ports.EventStore
	notifier ports.Notifier
	interval time.Duration
	batchSize int
	maxRetry  int

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	forwardSuccessTotal atomic.Int64
	forwardFailureTotal atomic.Int64
	forwardDeadTotal    atomic.Int64
}

type EventForwarderMetrics struct {
	ForwardSuccessTotal int64
	ForwardFailureTotal int64
	ForwardDeadTotal    int64
}

func NewEventForwarder(store ports.EventStore, notifier ports.Notifier, interval time.Duration, batchSize int) *EventForwarder {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &EventForwarder{store: store, notifier: notifier, interval: interval, batchSize: batchSize, maxRetry: 5}
}

func (f *EventForwarder) Start(parent context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	f.cancel = cancel
	f.wg.Add(1)
	go f.loop(ctx)
}

func (f *EventForwarder) Close() error {
	f.mu.Lock()
	cancel := f.cancel
	f.cancel = nil
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	f.wg.Wait()
	return nil
}

func (f *EventForwarder) loop(ctx context.Context) {
	defer f.wg.Done()
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		if err := f.forwardBatch(ctx); err != nil {
			log.Printf("event forward batch error: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (f *EventForwarder) forwardBatch(ctx context.Context) error {
	records, err := f.store.FetchUnforwarded(ctx, f.batchSize)
	if err != nil {
		return err
	}

	for _, record := range records {
		if err := f.notifier.Notify(ctx, record); err != nil {
			if markErr := f.markFailure(ctx, record.RowID, record.ForwardAttempts, err.Error()); markErr != nil {
				return markErr
			}
			f.forwardFailureTotal.Add(1)
			continue
		}
		if err := f.store.MarkForwarded(ctx, record.RowID); err != nil {
			return err
		}
		f.forwardSuccessTotal.Add(1)
	}
	return nil
}

func (f *EventForwarder) markFailure(ctx context.Context, rowID int64, prevAttempts int, errMsg string) error {
	attempts := prevAttempts + 1
	if attempts >= f.maxRetry {
		if err := f.store.MarkForwardDead(ctx, rowID, attempts, errMsg); err != nil {
			return err
		}
		f.forwardDeadTotal.Add(1)
		return nil
	}
	next := time.Now().UTC().Add(backoffDuration(attempts)).Format(time.RFC3339Nano)
	return f.store.MarkForwardFailed(ctx, rowID, attempts, next, errMsg)
}

func (f *EventForwarder) Metrics() EventForwarderMetrics {
	return EventForwarderMetrics{
		ForwardSuccessTotal: f.forwardSuccessTotal.Load(),
		ForwardFailureTotal: f.forwardFailureTotal.Load(),
		ForwardDeadTotal:    f.forwardDeadTotal.Load(),
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	d := time.Duration(attempt*attempt) * time.Second
	if d > 5*time.Minute {
		return 5 * time.Minute
	}
	return d
}
