package repository

import (
	"context"

	"interpreter-booking/internal/domain/model"
)

// DistanceRepository maintains the travel distance/time feed for physical
// bookings. The feed is written by an external calculator, independent of
// the lifecycle.
type DistanceRepository interface {
	UpdateByJob(ctx context.Context, tx Tx, d *model.Distance) error
	FindByJob(ctx context.Context, tx Tx, jobID string) (*model.Distance, error)
}
