package adapter

import (
	"context"
	"time"
)

// Event announces a committed lifecycle change to interested consumers.
type Event struct {
	Name    string    `json:"name"`
	JobID   string    `json:"job_id"`
	ActorID string    `json:"actor_id,omitempty"`
	At      time.Time `json:"at"`
}

const (
	EventJobCreated   = "job.created"
	EventJobAccepted  = "job.accepted"
	EventJobCancelled = "job.cancelled"
	EventJobEnded     = "job.ended"
	EventJobExpired   = "job.expired"
	EventJobReopened  = "job.reopened"
)

// EventBus publishes events after the owning transaction committed.
// Publication is best-effort.
type EventBus interface {
	Publish(ctx context.Context, e Event) error
}
