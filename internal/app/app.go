package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/omnicart/channelbridge/internal/adapters/channels"
	"github.com/omnicart/channelbridge/internal/adapters/events"
	"github.com/omnicart/channelbridge/internal/adapters/httpapi"
	"github.com/omnicart/channelbridge/internal/adapters/omsfeed"
	"github.com/omnicart/channelbridge/internal/adapters/schemaval"
	sqliteadapter "github.com/omnicart/channelbridge/internal/adapters/sqlite"
	"github.com/omnicart/channelbridge/internal/adapters/sqlite/gormsqlite"
	"github.com/omnicart/channelbridge/internal/core/domain"
	"github.com/omnicart/channelbridge/internal/core/usecase"
	"github.com/omnicart/channelbridge/migrations"
)

type Config struct {
	Addr          string
	DBPath        string
	ConfigPath    string
	WebhookURL    string
	WebhookSecret string
	FeedBaseURL   string
	FeedAPIKey    string
}

// FileConfig is the static configuration surface: the channel registry plus
// the scheduled-job descriptors for the periodic puller.
type FileConfig struct {
	Channels []ChannelEntry `json:"channels"`
	Jobs     []JobEntry     `json:"jobs"`
}

type ChannelEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
}

type JobEntry struct {
	Type      string `json:"type"`
	ChannelID string `json:"channel_id"`
	Every     string `json:"every"`
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func NewServer(ctx context.Context, cfg Config) (*http.Server, io.Closer, error) {
	fileCfg, err := loadFileConfig(cfg.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	db, err := gormsqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(migCtx, writeSQLDB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	registry, err := buildRegistry(fileCfg.Channels)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	eventRepo := sqliteadapter.NewEventRepository(db)
	sink := usecase.NewFanoutSink(events.NewLogSink(os.Stdout), eventRepo)
	pipeline := usecase.NewPipeline(schemaval.New())
	dispatcher := usecase.NewDispatcher(pipeline, registry, sink, 0)

	closers := []io.Closer{db}

	var forwarder *usecase.EventForwarder
	if cfg.WebhookURL != "" {
		notifier := events.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookSecret, 0)
		forwarder = usecase.NewEventForwarder(eventRepo, notifier, 2*time.Second, 100)
		forwarder.Start(context.Background())
		closers = append([]io.Closer{forwarder}, closers...)
	}

	if len(fileCfg.Jobs) > 0 {
		if cfg.FeedBaseURL == "" {
			_ = db.Close()
			return nil, nil, fmt.Errorf("jobs configured but no feed url set")
		}
		jobs, err := buildJobs(fileCfg.Jobs)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		feed := omsfeed.NewClient(cfg.FeedBaseURL, cfg.FeedAPIKey, 0)
		scheduler := usecase.NewScheduler(dispatcher, feed, jobs)
		scheduler.Start(context.Background())
		closers = append([]io.Closer{closerFunc(scheduler.Close)}, closers...)
	}

	handler := httpapi.NewHandler(dispatcher, eventRepo, forwarder)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, resourceCloser{closers: closers}, nil
}

func loadFileConfig(path string) (FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config: %w", err)
	}
	var cfg FileConfig
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return FileConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func buildRegistry(entries []ChannelEntry) (*usecase.ChannelRegistry, error) {
	registry := usecase.NewChannelRegistry()
	registry.RegisterOperations(domain.ChannelAmazon, channels.NewAmazon(0))
	registry.RegisterOperations(domain.ChannelFlipkart, channels.NewFlipkart(0))
	registry.RegisterOperations(domain.ChannelSnapdeal, channels.NewSnapdeal(0))

	for _, entry := range entries {
		if entry.ID == "" {
			return nil, fmt.Errorf("channel entry with blank id")
		}
		registry.RegisterChannel(domain.ChannelConfig{
			ID:      entry.ID,
			Name:    domain.ChannelName(entry.Name),
			BaseURL: entry.BaseURL,
			APIKey:  entry.APIKey,
		})
	}
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("channel registry: %w", err)
	}
	return registry, nil
}

func buildJobs(entries []JobEntry) ([]usecase.Job, error) {
	jobs := make([]usecase.Job, 0, len(entries))
	for _, entry := range entries {
		messageType, err := domain.ParseMessageType(entry.Type)
		if err != nil {
			return nil, fmt.Errorf("job for channel %s: %w", entry.ChannelID, err)
		}
		every, err := time.ParseDuration(entry.Every)
		if err != nil || every <= 0 {
			return nil, fmt.Errorf("job %s/%s: invalid interval %q", entry.Type, entry.ChannelID, entry.Every)
		}
		jobs = append(jobs, usecase.Job{Type: messageType, ChannelID: entry.ChannelID, Every: every})
	}
	return jobs, nil
}
