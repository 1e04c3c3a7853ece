package repository

import (
	"context"

	"interpreter-booking/internal/domain/model"
)

// AssignmentRepository persists the translator-attempt ledger. Rows are
// appended and stamped, never rewritten to point at a different translator.
type AssignmentRepository interface {
	Save(ctx context.Context, tx Tx, a *model.Assignment) error

	// FindActiveByJob returns the single live attempt for the job, or
	// domain.ErrNotFound when the job has no translator.
	FindActiveByJob(ctx context.Context, tx Tx, jobID string) (*model.Assignment, error)

	// FindLatestByJob returns the most recent attempt regardless of state,
	// used when notifying the translator of a booking that already ended.
	FindLatestByJob(ctx context.Context, tx Tx, jobID string) (*model.Assignment, error)

	// FindByJob returns the full ledger for the job, oldest first.
	FindByJob(ctx context.Context, tx Tx, jobID string) ([]*model.Assignment, error)

	FindActiveByTranslator(ctx context.Context, tx Tx, translatorID string) ([]*model.Assignment, error)
}
