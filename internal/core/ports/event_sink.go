package ports

import (
	"context"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

// EventSink consumes one dispatch batch in order. Implementations must not
// reorder events and must surface a failure to record any of them.
type EventSink interface {
	Write(ctx context.Context, events []domain.Event) error
}
