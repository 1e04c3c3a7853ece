package model

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// FieldChange records one mutated field inside an audit entry.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// AuditEntry is an append-only record of one lifecycle mutation. Entries
// are never updated or deleted.
type AuditEntry struct {
	ID      string
	JobID   string
	ActorID string
	Action  string
	Changes []FieldChange
	At      time.Time
}

func NewAuditEntry(jobID, actorID, action string, at time.Time, changes ...FieldChange) *AuditEntry {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(at.UnixNano())), 0)
	return &AuditEntry{
		ID:      ulid.MustNew(ulid.Timestamp(at), entropy).String(),
		JobID:   jobID,
		ActorID: actorID,
		Action:  action,
		Changes: changes,
		At:      at,
	}
}
