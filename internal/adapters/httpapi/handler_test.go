package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/omnicart/channelbridge/internal/core/domain"
	"github.com/omnicart/channelbridge/internal/core/usecase"
)

type memoryStore struct {
	events     []domain.Event
	listResult []domain.EventRecord
	gotFilter  domain.EventFilter
}

func (s *memoryStore) Write(_ context.Context, events []domain.Event) error {
	s.events = append(s.events, events...)
	return nil
}

func (s *memoryStore) List(_ context.Context, filter domain.EventFilter) ([]domain.EventRecord, error) {
	s.gotFilter = filter
	return s.listResult, nil
}

func (s *memoryStore) FetchUnforwarded(_ context.Context, _ int) ([]domain.EventRecord, error) {
	return nil, nil
}

func (s *memoryStore) MarkForwarded(_ context.Context, _ int64) error { return nil }

func (s *memoryStore) MarkForwardFailed(_ context.Context, _ int64, _ int, _ string, _ string) error {
	return nil
}

func (s *memoryStore) MarkForwardDead(_ context.Context, _ int64, _ int, _ string) error {
	return nil
}

type okValidator struct{}

func (okValidator) Validate(_ domain.MessageType, _ string) error { return nil }

type noopOps struct{}

func (noopOps) Range(context.Context, domain.ChannelConfig, []domain.LineItem) error { return nil }
func (noopOps) Derange(context.Context, domain.ChannelConfig, []domain.LineItem) error {
	return nil
}
func (noopOps) UpdateInventory(context.Context, domain.ChannelConfig, []domain.LineItem) error {
	return nil
}
func (noopOps) UpdatePrice(context.Context, domain.ChannelConfig, []domain.LineItem) error {
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *memoryStore) {
	t.Helper()

	registry := usecase.NewChannelRegistry()
	registry.RegisterChannel(domain.ChannelConfig{ID: "UA", Name: domain.ChannelAmazon})
	registry.RegisterOperations(domain.ChannelAmazon, noopOps{})
	if err := registry.Validate(); err != nil {
		t.Fatalf("registry: %v", err)
	}

	store := &memoryStore{}
	dispatcher := usecase.NewDispatcher(usecase.NewPipeline(okValidator{}), registry, store, 0)
	return NewHandler(dispatcher, store, nil), store
}

func TestIngestReturnsBatch(t *testing.T) {
	handler, store := newTestHandler(t)
	body := `<EXTNChannelList><EXTNChannelItemList>` +
		`<EXTNChannelItem ChannelID="UA" EAN="EAN_1" ItemID="SKU1" RangeFlag="Y"/>` +
		`</EXTNChannelItemList></EXTNChannelList>`

	req := httptest.NewRequest(http.MethodPost, "/v1/messages/ranging", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		EnvelopeID string `json:"envelope_id"`
		Events     []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.EnvelopeID == "" {
		t.Fatal("response must carry the envelope id")
	}
	if len(resp.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(resp.Events))
	}
	if resp.Events[0].Name != "oms.items_ranged" || resp.Events[1].Name != "domain.ranging_succeeded" {
		t.Fatalf("unexpected event names: %s, %s", resp.Events[0].Name, resp.Events[1].Name)
	}
	if len(store.events) != 2 {
		t.Fatalf("expected 2 persisted events, got %d", len(store.events))
	}
}

func TestIngestRejectsUnknownMessageType(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages/returns", strings.NewReader("<x/>"))
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListEventsPassesFilter(t *testing.T) {
	handler, store := newTestHandler(t)
	store.listResult = []domain.EventRecord{{RowID: 4, ID: "evt-4", Name: domain.NameParsingFailed}}

	req := httptest.NewRequest(http.MethodGet, "/v1/events?type=system&channel_id=UA&after_id=9&limit=5", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.gotFilter.Type != domain.EventTypeSystem || store.gotFilter.ChannelID != "UA" {
		t.Fatalf("filter not passed through: %+v", store.gotFilter)
	}
	if store.gotFilter.AfterID != 9 || store.gotFilter.Limit != 5 {
		t.Fatalf("paging not passed through: %+v", store.gotFilter)
	}
	if !strings.Contains(rec.Body.String(), "evt-4") {
		t.Fatalf("response missing listed record: %s", rec.Body.String())
	}
}

func TestListEventsRejectsBadPaging(t *testing.T) {
	handler, _ := newTestHandler(t)

	for _, target := range []string{"/v1/events?after_id=abc", "/v1/events?limit=0"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		handler.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if _, ok := body["dispatcher"]; !ok {
		t.Fatal("metrics must include dispatcher counters")
	}
	if _, ok := body["forwarder"]; ok {
		t.Fatal("forwarder metrics must be absent when the forwarder is disabled")
	}
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
