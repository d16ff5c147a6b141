package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/omnicart/channelbridge/internal/adapters/sqlite/gormsqlite"
	"github.com/omnicart/channelbridge/internal/core/domain"
	"github.com/omnicart/channelbridge/migrations"
)

func newTestRepository(t *testing.T) *EventRepository {
	t.Helper()

	db, err := gormsqlite.Open(filepath.Join(t.TempDir(), "events.sqlite"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.WriteSQLDB()
	if err != nil {
		t.Fatalf("writer sql db: %v", err)
	}
	if err := migrations.Up(context.Background(), sqlDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewEventRepository(db)
}

func testEvent(id, parentID string, name domain.EventName, eventType domain.EventType, level domain.Level) domain.Event {
	e := domain.Event{
		ID:        id,
		ParentID:  parentID,
		Name:      name,
		Type:      eventType,
		Level:     level,
		Timestamp: domain.FormatTimestamp(time.Now()),
	}
	switch eventType {
	case domain.EventTypeOMS:
		e.Payload = domain.OMSMessagePayload{Type: name, Message: "<EXTNChannelList/>"}
	case domain.EventTypeSystem:
		if name == domain.NameChannelNotFound {
			e.Payload = domain.ChannelNotFoundPayload{Type: name, ChannelID: "ZZ"}
		} else {
			e.Payload = domain.ParsingFailedPayload{Type: name, MessageType: domain.MessageTypeRanging, Error: "boom"}
		}
	case domain.EventTypeDomain:
		e.ChannelID = "UA"
		e.ChannelName = domain.ChannelAmazon
		e.Payload = domain.OperationPayload{Type: name}
	}
	return e
}

func TestWriteAndListPreservesBatch(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	batch := []domain.Event{
		testEvent("evt-1", "", domain.NameItemsRanged, domain.EventTypeOMS, domain.LevelInfo),
		testEvent("evt-2", "evt-1", domain.OperationRanging.SucceededName(), domain.EventTypeDomain, domain.LevelInfo),
	}
	if err := repo.Write(ctx, batch); err != nil {
		t.Fatalf("write: %v", err)
	}

	records, err := repo.List(ctx, domain.EventFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// listing is newest-first
	if records[0].ID != "evt-2" || records[1].ID != "evt-1" {
		t.Fatalf("unexpected order: %s, %s", records[0].ID, records[1].ID)
	}
	if records[1].ParentID != "" || records[0].ParentID != "evt-1" {
		t.Fatalf("parent links not preserved: %q, %q", records[1].ParentID, records[0].ParentID)
	}
	if len(records[0].PayloadJSON) == 0 {
		t.Fatal("payload json must be persisted")
	}
}

func TestListFilters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	batch := []domain.Event{
		testEvent("evt-1", "", domain.NameItemsRanged, domain.EventTypeOMS, domain.LevelInfo),
		testEvent("evt-2", "evt-1", domain.NameParsingFailed, domain.EventTypeSystem, domain.LevelError),
		testEvent("evt-3", "evt-1", domain.OperationRanging.FailedName(), domain.EventTypeDomain, domain.LevelError),
	}
	if err := repo.Write(ctx, batch); err != nil {
		t.Fatalf("write: %v", err)
	}

	byType, err := repo.List(ctx, domain.EventFilter{Type: domain.EventTypeSystem})
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}
	if len(byType) != 1 || byType[0].ID != "evt-2" {
		t.Fatalf("unexpected type filter result: %+v", byType)
	}

	byChannel, err := repo.List(ctx, domain.EventFilter{ChannelID: "UA"})
	if err != nil {
		t.Fatalf("list by channel: %v", err)
	}
	if len(byChannel) != 1 || byChannel[0].ID != "evt-3" {
		t.Fatalf("unexpected channel filter result: %+v", byChannel)
	}

	byLevel, err := repo.List(ctx, domain.EventFilter{Level: domain.LevelError})
	if err != nil {
		t.Fatalf("list by level: %v", err)
	}
	if len(byLevel) != 2 {
		t.Fatalf("expected 2 error-level records, got %d", len(byLevel))
	}
}

func TestListPagesBackwards(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Write(ctx, []domain.Event{
		testEvent("evt-1", "", domain.NameItemsRanged, domain.EventTypeOMS, domain.LevelInfo),
		testEvent("evt-2", "evt-1", domain.OperationRanging.SucceededName(), domain.EventTypeDomain, domain.LevelInfo),
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	first, err := repo.List(ctx, domain.EventFilter{Limit: 1})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 record, got %d", len(first))
	}
	second, err := repo.List(ctx, domain.EventFilter{Limit: 1, AfterID: first[0].RowID})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second) != 1 || second[0].ID == first[0].ID {
		t.Fatalf("paging returned wrong record: %+v", second)
	}
}

func TestOnlyErrorLevelEventsArePending(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Write(ctx, []domain.Event{
		testEvent("evt-1", "", domain.NameItemsRanged, domain.EventTypeOMS, domain.LevelInfo),
		testEvent("evt-2", "evt-1", domain.NameParsingFailed, domain.EventTypeSystem, domain.LevelError),
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	pending, err := repo.FetchUnforwarded(ctx, 10)
	if err != nil {
		t.Fatalf("fetch unforwarded: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "evt-2" {
		t.Fatalf("expected only the error event pending, got %+v", pending)
	}
	if pending[0].ForwardStatus != domain.ForwardStatusPending {
		t.Fatalf("unexpected status %q", pending[0].ForwardStatus)
	}
}

func TestForwardStatusTransitions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Write(ctx, []domain.Event{
		testEvent("evt-1", "", domain.NameItemsRanged, domain.EventTypeOMS, domain.LevelInfo),
		testEvent("evt-2", "evt-1", domain.NameParsingFailed, domain.EventTypeSystem, domain.LevelError),
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	pending, err := repo.FetchUnforwarded(ctx, 10)
	if err != nil {
		t.Fatalf("fetch unforwarded: %v", err)
	}
	rowID := pending[0].RowID

	// a failure pushes the next attempt into the future
	next := time.Now().UTC().Add(time.Hour).Format(time.RFC3339Nano)
	if err := repo.MarkForwardFailed(ctx, rowID, 1, next, "webhook 503"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	pending, err = repo.FetchUnforwarded(ctx, 10)
	if err != nil {
		t.Fatalf("fetch after failure: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("backed-off record must not be due, got %+v", pending)
	}

	// bring it due again, then deliver
	due := time.Now().UTC().Add(-time.Minute).Format(time.RFC3339Nano)
	if err := repo.MarkForwardFailed(ctx, rowID, 2, due, "webhook 503"); err != nil {
		t.Fatalf("mark failed again: %v", err)
	}
	pending, err = repo.FetchUnforwarded(ctx, 10)
	if err != nil {
		t.Fatalf("fetch when due: %v", err)
	}
	if len(pending) != 1 || pending[0].ForwardAttempts != 2 {
		t.Fatalf("expected due record with 2 attempts, got %+v", pending)
	}
	if pending[0].LastForwardError != "webhook 503" {
		t.Fatalf("unexpected last error %q", pending[0].LastForwardError)
	}

	if err := repo.MarkForwarded(ctx, rowID); err != nil {
		t.Fatalf("mark forwarded: %v", err)
	}
	pending, err = repo.FetchUnforwarded(ctx, 10)
	if err != nil {
		t.Fatalf("fetch after forwarded: %v", err)
	}
	if len(pending) != 0 {
		t.Fatal("forwarded record must leave the queue")
	}

	records, err := repo.List(ctx, domain.EventFilter{Name: domain.NameParsingFailed})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if records[0].ForwardStatus != domain.ForwardStatusForwarded || records[0].ForwardedAt == nil {
		t.Fatalf("expected forwarded bookkeeping, got %+v", records[0])
	}
}

func TestMarkForwardDeadRemovesFromQueue(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Write(ctx, []domain.Event{
		testEvent("evt-1", "", domain.NameItemsRanged, domain.EventTypeOMS, domain.LevelInfo),
		testEvent("evt-2", "evt-1", domain.NameChannelNotFound, domain.EventTypeSystem, domain.LevelError),
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	pending, err := repo.FetchUnforwarded(ctx, 10)
	if err != nil {
		t.Fatalf("fetch unforwarded: %v", err)
	}
	if err := repo.MarkForwardDead(ctx, pending[0].RowID, 5, "gave up"); err != nil {
		t.Fatalf("mark dead: %v", err)
	}

	pending, err = repo.FetchUnforwarded(ctx, 10)
	if err != nil {
		t.Fatalf("fetch after dead: %v", err)
	}
	if len(pending) != 0 {
		t.Fatal("dead record must leave the queue")
	}

	records, err := repo.List(ctx, domain.EventFilter{Name: domain.NameChannelNotFound})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if records[0].ForwardStatus != domain.ForwardStatusDead || records[0].ForwardAttempts != 5 {
		t.Fatalf("expected dead bookkeeping, got %+v", records[0])
	}
}
