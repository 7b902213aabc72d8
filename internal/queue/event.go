// Package queue defines catalog events and moves them over RabbitMQ.
package queue

import "time"

// Resource names carried by CatalogEvent.
const (
	ResourceMovie    = "movie"
	ResourceSchedule = "schedule"
)

// Actions carried by CatalogEvent.
const (
	ActionCreated  = "created"
	ActionModified = "modified"
	ActionDeleted  = "deleted"
)

// CatalogEvent is published after a movie or schedule was written. It is
// informational: consumers must not rely on it for consistency.
type CatalogEvent struct {
	Resource   string    `json:"resource"`
	Action     string    `json:"action"`
	ID         uint64    `json:"id"`
	MovieID    uint64    `json:"movie_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Sink accepts catalog events without blocking the caller.
type Sink interface {
	Publish(ev CatalogEvent)
}

// Discard is a Sink that drops every event.
type Discard struct{}

func (Discard) Publish(CatalogEvent) {}
