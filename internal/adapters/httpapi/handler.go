package httpapi

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/omnicart/channelbridge/internal/core/domain"
	"github.com/omnicart/channelbridge/internal/core/ports"
	"github.com/omnicart/channelbridge/internal/core/usecase"
)

const maxMessageBodySize = 1 << 20

// Handler is the synchronous transport adapter plus the operational read
// surface over the event log. A queue listener would call the same Process
// entry point this handler does.
type Handler struct {
	dispatcher *usecase.Dispatcher
	store      ports.EventStore
	forwarder  *usecase.EventForwarder
}

func NewHandler(dispatcher *usecase.Dispatcher, store ports.EventStore, forwarder *usecase.EventForwarder) *Handler {
	return &Handler{dispatcher: dispatcher, store: store, forwarder: forwarder}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)
	r.Post("/v1/messages/{type}", h.ingest)
	r.Get("/v1/events", h.listEvents)
	r.Get("/v1/metrics", h.metrics)
	return r
}

type ingestResponse struct {
	EnvelopeID string         `json:"envelope_id"`
	Events     []domain.Event `json:"events"`
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	messageType, err := domain.ParseMessageType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read message body")
		return
	}

	env := domain.Envelope{
		ID:      uuid.NewString(),
		Type:    messageType,
		Message: string(body),
	}

	events, err := h.dispatcher.Process(r.Context(), env)
	if err != nil {
		// The batch outcome is already decided; what failed is recording it.
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{EnvelopeID: env.ID, Events: events})
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		Type:      domain.EventType(q.Get("type")),
		Name:      domain.EventName(q.Get("name")),
		ChannelID: q.Get("channel_id"),
		Level:     domain.Level(q.Get("level")),
	}
	if after := q.Get("after_id"); after != "" {
		id, err := strconv.ParseInt(after, 10, 64)
		if err != nil || id < 0 {
			writeError(w, http.StatusBadRequest, "invalid after_id")
			return
		}
		filter.AfterID = id
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	records, err := h.store.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": records})
}

func (h *Handler) metrics(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"dispatcher": h.dispatcher.Metrics(),
	}
	if h.forwarder != nil {
		body["forwarder"] = h.forwarder.Metrics()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
