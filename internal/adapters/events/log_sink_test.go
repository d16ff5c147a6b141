package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

func sampleEvent(id string) domain.Event {
	return domain.Event{
		ID:        id,
		ParentID:  "parent-1",
		Name:      domain.NameChannelNotFound,
		Type:      domain.EventTypeSystem,
		Level:     domain.LevelError,
		Timestamp: domain.FormatTimestamp(time.Now()),
		Payload: domain.ChannelNotFoundPayload{
			Type:      domain.NameChannelNotFound,
			ChannelID: "ZZ",
		},
	}
}

func TestLogSinkWritesOneJSONLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(&buf)

	events := []domain.Event{sampleEvent("evt-1"), sampleEvent("evt-2")}
	if err := sink.Write(context.Background(), events); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line is not valid json: %v", err)
	}
	if first["level"] != "error" {
		t.Fatalf("expected top-level level, got %v", first["level"])
	}
	event, ok := first["event"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested event object, got %T", first["event"])
	}
	if event["id"] != "evt-1" {
		t.Fatalf("unexpected event id %v", event["id"])
	}
	payload, ok := event["payload"].(map[string]any)
	if !ok {
		t.Fatalf("expected payload object, got %T", event["payload"])
	}
	if payload["channel_id"] != "ZZ" {
		t.Fatalf("unexpected payload channel %v", payload["channel_id"])
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("writer closed")
}

func TestLogSinkSurfacesWriteFailure(t *testing.T) {
	sink := NewLogSink(failingWriter{})
	err := sink.Write(context.Background(), []domain.Event{sampleEvent("evt-1")})
	if err == nil {
		t.Fatal("expected write failure to surface")
	}
	if !strings.Contains(err.Error(), "evt-1") {
		t.Fatalf("error does not identify the event: %v", err)
	}
}
