package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

// LogSink renders each event as one structured JSON line:
// {"timestamp":...,"level":...,"event":{...}}. Events are written strictly in
// batch order; a write failure for any line is surfaced, never swallowed.
type LogSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewLogSink(w io.Writer) *LogSink {
	return &LogSink{w: w}
}

type logLine struct {
	Timestamp string       `json:"timestamp"`
	Level     domain.Level `json:"level"`
	Event     domain.Event `json:"event"`
}

func (s *LogSink) Write(_ context.Context, events []domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, e := range events {
		line, err := json.Marshal(logLine{Timestamp: e.Timestamp, Level: e.Level, Event: e})
		if err != nil {
			errs = append(errs, fmt.Errorf("marshal event %s: %w", e.ID, err))
			continue
		}
		if _, err := fmt.Fprintf(s.w, "%s\n", line); err != nil {
			errs = append(errs, fmt.Errorf("write event %s: %w", e.ID, err))
		}
	}
	return errors.Join(errs...)
}
