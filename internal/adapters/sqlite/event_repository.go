package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/omnicart/channelbridge/internal/adapters/sqlite/gormsqlite"
	"github.com/omnicart/channelbridge/internal/core/domain"
)

type eventModel struct {
	RowID            int64      `gorm:"column:id;primaryKey;autoIncrement"`
	EventID          string     `gorm:"column:event_id;not null"`
	ParentID         string     `gorm:"column:parent_id;not null"`
	Name             string     `gorm:"column:name;not null"`
	Type             string     `gorm:"column:type;not null"`
	Level            string     `gorm:"column:level;not null"`
	Timestamp        string     `gorm:"column:timestamp;not null"`
	ChannelID        string     `gorm:"column:channel_id;not null"`
	ChannelName      string     `gorm:"column:channel_name;not null"`
	PayloadJSON      string     `gorm:"column:payload_json;not null"`
	ForwardStatus    string     `gorm:"column:forward_status;not null"`
	ForwardAttempts  int        `gorm:"column:forward_attempts;not null"`
	NextForwardAt    time.Time  `gorm:"column:next_forward_at;not null"`
	LastForwardError string     `gorm:"column:last_forward_error;not null"`
	CreatedAt        time.Time  `gorm:"column:created_at;not null"`
	ForwardedAt      *time.Time `gorm:"column:forwarded_at"`
}

func (eventModel) TableName() string {
	return "events"
}

// EventRepository is the durable event sink and store: one batch is appended
// in a single write transaction, preserving batch order through the
// monotonically increasing row id.
type EventRepository struct {
	db *gormsqlite.DB
}

func NewEventRepository(db *gormsqlite.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Write(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]eventModel, 0, len(events))
	for _, e := range events {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload of event %s: %w", e.ID, err)
		}
		status := domain.ForwardStatusNone
		if e.Level.AtLeast(domain.ForwardLevel) {
			status = domain.ForwardStatusPending
		}
		rows = append(rows, eventModel{
			EventID:       e.ID,
			ParentID:      e.ParentID,
			Name:          string(e.Name),
			Type:          string(e.Type),
			Level:         string(e.Level),
			Timestamp:     e.Timestamp,
			ChannelID:     e.ChannelID,
			ChannelName:   string(e.ChannelName),
			PayloadJSON:   string(payload),
			ForwardStatus: status,
			NextForwardAt: now,
			CreatedAt:     now,
		})
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	return nil
}

func (r *EventRepository) List(ctx context.Context, filter domain.EventFilter) ([]domain.EventRecord, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	var rows []eventModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		query := tx.Model(&eventModel{})
		if filter.Type != "" {
			query = query.Where("type = ?", string(filter.Type))
		}
		if filter.Name != "" {
			query = query.Where("name = ?", string(filter.Name))
		}
		if filter.ChannelID != "" {
			query = query.Where("channel_id = ?", filter.ChannelID)
		}
		if filter.Level != "" {
			query = query.Where("level = ?", string(filter.Level))
		}
		if filter.AfterID > 0 {
			query = query.Where("id < ?", filter.AfterID)
		}
		return query.Order("id DESC").Limit(filter.Limit).Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	result := make([]domain.EventRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, toRecord(row))
	}
	return result, nil
}

func (r *EventRepository) FetchUnforwarded(ctx context.Context, limit int) ([]domain.EventRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []eventModel
	now := time.Now().UTC()
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("forward_status = ? AND next_forward_at <= ?", domain.ForwardStatusPending, now).
			Order("id ASC").
			Limit(limit).
			Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("fetch unforwarded events: %w", err)
	}

	result := make([]domain.EventRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, toRecord(row))
	}
	return result, nil
}

func (r *EventRepository) MarkForwarded(ctx context.Context, rowID int64) error {
	now := time.Now().UTC()
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&eventModel{}).
			Where("id = ?", rowID).
			Updates(map[string]any{"forward_status": domain.ForwardStatusForwarded, "forwarded_at": &now, "last_forward_error": ""}).Error
	})
	if err != nil {
		return fmt.Errorf("mark event forwarded: %w", err)
	}
	return nil
}

func (r *EventRepository) MarkForwardFailed(ctx context.Context, rowID int64, attempts int, nextAttemptAt string, errMsg string) error {
	parsed, err := time.Parse(time.RFC3339Nano, nextAttemptAt)
	if err != nil {
		return fmt.Errorf("parse next attempt: %w", err)
	}
	err = r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&eventModel{}).
			Where("id = ?", rowID).
			Updates(map[string]any{"forward_attempts": attempts, "next_forward_at": parsed, "last_forward_error": errMsg}).Error
	})
	if err != nil {
		return fmt.Errorf("mark event forward failed: %w", err)
	}
	return nil
}

func (r *EventRepository) MarkForwardDead(ctx context.Context, rowID int64, attempts int, errMsg string) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&eventModel{}).
			Where("id = ?", rowID).
			Updates(map[string]any{"forward_status": domain.ForwardStatusDead, "forward_attempts": attempts, "last_forward_error": errMsg}).Error
	})
	if err != nil {
		return fmt.Errorf("mark event forward dead: %w", err)
	}
	return nil
}

func toRecord(row eventModel) domain.EventRecord {
	return domain.EventRecord{
		RowID:            row.RowID,
		ID:               row.EventID,
		ParentID:         row.ParentID,
		Name:             domain.EventName(row.Name),
		Type:             domain.EventType(row.Type),
		Level:            domain.Level(row.Level),
		Timestamp:        row.Timestamp,
		ChannelID:        row.ChannelID,
		ChannelName:      domain.ChannelName(row.ChannelName),
		PayloadJSON:      json.RawMessage(row.PayloadJSON),
		ForwardStatus:    row.ForwardStatus,
		ForwardAttempts:  row.ForwardAttempts,
		NextForwardAt:    row.NextForwardAt,
		LastForwardError: row.LastForwardError,
		CreatedAt:        row.CreatedAt,
		ForwardedAt:      row.ForwardedAt,
	}
}
