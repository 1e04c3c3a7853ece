package repository

import (
	"context"
	"time"

	"interpreter-booking/internal/domain/model"
)

// JobRepository persists bookings. All methods accept a Tx so lifecycle
// operations can group writes atomically.
type JobRepository interface {
	// Save inserts the job when its id is new and updates it otherwise.
	Save(ctx context.Context, tx Tx, job *model.Job) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Job, error)

	// MarkAssignedIfPending flips the job to assigned only when it is
	// still pending, reporting whether this caller won. Concurrent
	// acceptors of the same job see won=false.
	MarkAssignedIfPending(ctx context.Context, tx Tx, id string) (won bool, err error)

	// FindPending lists open bookings of the given job type in any of the
	// given languages, ordered by due date. Ignored rows are excluded.
	FindPending(ctx context.Context, tx Tx, jobType model.JobType, languageIDs []string) ([]*model.Job, error)

	FindByCustomer(ctx context.Context, tx Tx, customerID string, statuses []model.JobStatus) ([]*model.Job, error)

	// FindExpiredPending lists pending bookings whose will_expire_at has
	// passed and that have not been marked to ignore expiry.
	FindExpiredPending(ctx context.Context, tx Tx, now time.Time) ([]*model.Job, error)

	// FindDueBetween lists confirmed bookings due inside the window, used
	// by the session-start reminder sweep.
	FindDueBetween(ctx context.Context, tx Tx, from, to time.Time, statuses []model.JobStatus) ([]*model.Job, error)

	// HasConfirmedOverlap reports whether the translator already holds a
	// confirmed booking whose span overlaps [due, due+duration).
	HasConfirmedOverlap(ctx context.Context, tx Tx, translatorID string, due time.Time, duration int) (bool, error)
}
