// Package events publishes domain events after state changes have been
// committed. Delivery is best-effort: callers log publish failures and move
// on.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is a committed state change.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Subject    string      `json:"subject"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

// New returns an event with a fresh id and the current time.
func New(eventType, subject string, data interface{}) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Encode renders e as JSON.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// LogPublisher writes events to a zerolog logger.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.logger.Info().
		Str("event_id", e.ID).
		Str("event_type", e.Type).
		Str("subject", e.Subject).
		Time("occurred_at", e.OccurredAt).
		Msg("event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
