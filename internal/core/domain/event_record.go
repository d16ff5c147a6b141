package domain

import (
	"encoding/json"
	"time"
)

// Forward status values for persisted events. Only events severe enough to
// notify a human channel start as pending.
const (
	ForwardStatusNone      = "none"
	ForwardStatusPending   = "pending"
	ForwardStatusForwarded = "forwarded"
	ForwardStatusDead      = "dead"
)

// ForwardLevel is the minimum severity at which a persisted event is queued
// for downstream notification.
const ForwardLevel = LevelError

// EventRecord is the persisted form of an Event: the payload is kept as raw
// JSON and forwarding bookkeeping is attached.
type EventRecord struct {
	RowID            int64           `json:"row_id"`
	ID               string          `json:"id"`
	ParentID         string          `json:"parent_id,omitempty"`
	Name             EventName       `json:"name"`
	Type             EventType       `json:"type"`
	Level            Level           `json:"level"`
	Timestamp        string          `json:"timestamp"`
	ChannelID        string          `json:"channel_id,omitempty"`
	ChannelName      ChannelName     `json:"channel_name,omitempty"`
	PayloadJSON      json.RawMessage `json:"payload"`
	ForwardStatus    string          `json:"forward_status"`
	ForwardAttempts  int             `json:"forward_attempts"`
	NextForwardAt    time.Time       `json:"next_forward_at"`
	LastForwardError string          `json:"last_forward_error,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	ForwardedAt      *time.Time      `json:"forwarded_at,omitempty"`
}

// EventFilter narrows an event-log listing. AfterID pages backwards from a
// previous page's lowest row id.
type EventFilter struct {
	Type      EventType
	Name      EventName
	ChannelID string
	Level     Level
	AfterID   int64
	Limit     int
}
