package repository

import (
	"context"

	"interpreter-booking/internal/domain/model"
)

// AuditRepository appends lifecycle mutation records.
type AuditRepository interface {
	Append(ctx context.Context, tx Tx, e *model.AuditEntry) error
	FindByJob(ctx context.Context, tx Tx, jobID string) ([]*model.AuditEntry, error)
}
