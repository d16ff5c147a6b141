package usecase

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/omnicart/channelbridge/internal/core/domain"
	"github.com/omnicart/channelbridge/internal/core/ports"
)

const defaultOperationTimeout = 10 * time.Second

// Dispatcher turns one inbound envelope into an ordered, causally linked batch
// of events. Nothing escapes Handle as an error or panic: every outcome of
// processing an envelope becomes an event in the returned batch.
type Dispatcher struct {
	pipeline  *Pipeline
	registry  *ChannelRegistry
	sink      ports.EventSink
	opTimeout time.Duration

	handledTotal     atomic.Int64
	parseFailedTotal atomic.Int64
	channelMissTotal atomic.Int64
	opFailedTotal    atomic.Int64
	panicTotal       atomic.Int64
}

type DispatcherMetrics struct {
	HandledTotal     int64
	ParseFailedTotal int64
	ChannelMissTotal int64
	OpFailedTotal    int64
	PanicTotal       int64
}

func NewDispatcher(pipeline *Pipeline, registry *ChannelRegistry, sink ports.EventSink, opTimeout time.Duration) *Dispatcher {
	if opTimeout <= 0 {
		opTimeout = defaultOperationTimeout
	}
	return &Dispatcher{pipeline: pipeline, registry: registry, sink: sink, opTimeout: opTimeout}
}

// Handle runs the envelope through receipt, validation, parsing and
// per-channel dispatch. The oms receipt event is always first; subsequent
// events follow source document order. A panic anywhere inside collapses the
// batch to a single system.processing_failed event.
func (d *Dispatcher) Handle(ctx context.Context, env domain.Envelope) (events []domain.Event) {
	d.handledTotal.Add(1)
	defer func() {
		if r := recover(); r != nil {
			d.panicTotal.Add(1)
			events = []domain.Event{NewProcessingFailedEvent(fmt.Errorf("handle %s envelope: %v", env.Type, r), debug.Stack())}
		}
	}()

	parent := d.receiptEvent(env)
	events = append(events, parent)

	if err := d.pipeline.ValidateSchema(env); err != nil {
		d.parseFailedTotal.Add(1)
		return append(events, NewParsingFailedEvent(parent.ID, env.Type, err.Error()))
	}

	doc, err := d.pipeline.Parse(env)
	if err != nil {
		d.parseFailedTotal.Add(1)
		return append(events, NewParsingFailedEvent(parent.ID, env.Type, err.Error()))
	}
	if err := d.pipeline.ValidateShape(doc, env.Type); err != nil {
		d.parseFailedTotal.Add(1)
		return append(events, NewParsingFailedEvent(parent.ID, env.Type, err.Error()))
	}

	op := env.Type.Operation()
	for _, ref := range doc.Channels {
		cfg, ok := d.registry.Lookup(ref.ChannelID)
		if !ok {
			d.channelMissTotal.Add(1)
			events = append(events, NewChannelNotFoundEvent(parent.ID, ref.ChannelID))
			continue
		}
		ops, ok := d.registry.Operations(cfg.Name)
		if !ok {
			// Registry validation at startup makes this unreachable; treat a
			// hole as the contract violation it is.
			panic(fmt.Sprintf("no operations registered for channel %q", cfg.Name))
		}
		events = append(events, d.dispatchOperation(ctx, parent.ID, op, ops, cfg, ref))
	}
	return events
}

// Process is the entry point shared by the transport and scheduler adapters:
// handle the envelope, then write the batch to the sink in order. The sink's
// own failure is the only error a caller sees.
func (d *Dispatcher) Process(ctx context.Context, env domain.Envelope) ([]domain.Event, error) {
	events := d.Handle(ctx, env)
	if err := d.sink.Write(ctx, events); err != nil {
		return events, fmt.Errorf("record events: %w", err)
	}
	return events, nil
}

func (d *Dispatcher) Metrics() DispatcherMetrics {
	return DispatcherMetrics{
		HandledTotal:     d.handledTotal.Load(),
		ParseFailedTotal: d.parseFailedTotal.Load(),
		ChannelMissTotal: d.channelMissTotal.Load(),
		OpFailedTotal:    d.opFailedTotal.Load(),
		PanicTotal:       d.panicTotal.Load(),
	}
}

// receiptEvent always produces the batch parent. The envelope id becomes the
// event id so events correlate with the transport delivery. A blank payload
// fails the constructor's contract but the receipt must still be recorded, so
// it falls back to direct construction; validation will fail the message next.
func (d *Dispatcher) receiptEvent(env domain.Envelope) domain.Event {
	name := env.Type.ReceiptName()
	e, err := NewOMSEvent(name, env.Message)
	if err != nil {
		e = domain.Event{
			ID:        env.ID,
			Name:      name,
			Type:      domain.EventTypeOMS,
			Level:     domain.LevelInfo,
			Timestamp: domain.FormatTimestamp(time.Now()),
			Payload:   domain.OMSMessagePayload{Type: name, Message: env.Message},
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		return e
	}
	if env.ID != "" {
		e.ID = env.ID
	}
	return e
}

// dispatchOperation invokes one channel operation under the configured
// timeout. An error return, timeout expiry included, is a business outcome
// and becomes the failed domain event; it never aborts the rest of the batch.
func (d *Dispatcher) dispatchOperation(ctx context.Context, parentID string, op domain.OperationKind, ops ports.ChannelOperations, cfg domain.ChannelConfig, ref domain.ChannelReference) domain.Event {
	opCtx, cancel := context.WithTimeout(ctx, d.opTimeout)
	defer cancel()

	err := invokeOperation(opCtx, op, ops, cfg, ref.Items)
	if err != nil {
		d.opFailedTotal.Add(1)
		e, buildErr := NewOperationFailedEvent(parentID, op, cfg, ref.Items, err)
		if buildErr != nil {
			panic(fmt.Sprintf("operation failed event construction: %v", buildErr))
		}
		return e
	}
	e, buildErr := NewOperationSucceededEvent(parentID, op, cfg, ref.Items)
	if buildErr != nil {
		panic(fmt.Sprintf("operation succeeded event construction: %v", buildErr))
	}
	return e
}

func invokeOperation(ctx context.Context, op domain.OperationKind, ops ports.ChannelOperations, cfg domain.ChannelConfig, items []domain.LineItem) error {
	switch op {
	case domain.OperationRanging:
		return ops.Range(ctx, cfg, items)
	case domain.OperationDeranging:
		return ops.Derange(ctx, cfg, items)
	case domain.OperationInventoryUpdate:
		return ops.UpdateInventory(ctx, cfg, items)
	case domain.OperationPriceUpdate:
		return ops.UpdatePrice(ctx, cfg, items)
	default:
		panic(fmt.Sprintf("unknown operation kind %q", op))
	}
}
