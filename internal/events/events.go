// Package events publishes row-change notifications for downstream
// consumers. Publishing is best-effort: a failed delivery is logged by the
// caller and never fails the update that produced it.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChangeEvent describes one successful record update.
type ChangeEvent struct {
	ID       string         `json:"id"`
	Table    string         `json:"table"`
	RecordID string         `json:"record_id"`
	Fields   map[string]any `json:"fields"`
	At       time.Time      `json:"at"`
}

// NewChangeEvent builds a ChangeEvent with a fresh event ID and timestamp.
func NewChangeEvent(table, recordID string, fields map[string]any) ChangeEvent {
	return ChangeEvent{
		ID:       uuid.NewString(),
		Table:    table,
		RecordID: recordID,
		Fields:   fields,
		At:       time.Now().UTC(),
	}
}

// Publisher delivers change events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
	Close() error
}

// NopPublisher discards all events. Used when eventing is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ChangeEvent) error { return nil }
func (NopPublisher) Close() error                               { return nil }
