package model

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Assignment binds one translator to one job for one attempt. Replacing a
// translator never rewrites an existing row: the old assignment is cancelled
// and a new one created, so the ledger keeps full history.
type Assignment struct {
	ID           string
	JobID        string
	TranslatorID string
	CreatedAt    time.Time
	WillExpireAt time.Time
	CancelAt     *time.Time
	CompletedAt  *time.Time
	CompletedBy  string
}

// NewAssignment opens a fresh attempt for the given translator.
func NewAssignment(jobID, translatorID string, willExpireAt, now time.Time) *Assignment {
	return &Assignment{
		ID:           newAssignmentID(now),
		JobID:        jobID,
		TranslatorID: translatorID,
		CreatedAt:    now,
		WillExpireAt: willExpireAt,
	}
}

// Active reports whether the attempt is still live: neither cancelled nor
// completed. Cancelled and completed are mutually exclusive terminal marks.
func (a *Assignment) Active() bool {
	return a != nil && a.CancelAt == nil && a.CompletedAt == nil
}

// Cancel stamps the cancellation time. Completion state is untouched.
func (a *Assignment) Cancel(at time.Time) {
	t := at
	a.CancelAt = &t
}

// Complete stamps the completion time and the acting user.
func (a *Assignment) Complete(at time.Time, byUserID string) {
	t := at
	a.CompletedAt = &t
	a.CompletedBy = byUserID
}

// newAssignmentID returns a time-sortable id so the ledger reads in
// chronological order without an extra sequence column.
func newAssignmentID(now time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
