package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"interpreter-booking/internal/domain/model"
	"interpreter-booking/internal/domain/ports/repository"
	"interpreter-booking/internal/infra/metrics"
)

type DistanceRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

var _ repository.DistanceRepository = (*DistanceRepo)(nil)

func NewDistanceRepo(pool *pgxpool.Pool, logger *zerolog.Logger) *DistanceRepo {
	return &DistanceRepo{
		pool:   pool,
		logger: logger.With().Str("component", "distance_repo").Logger(),
	}
}

func (r *DistanceRepo) UpdateByJob(ctx context.Context, tx repository.Tx, d *model.Distance) error {
	defer metrics.ObserveQuery("distances", "UpdateByJob", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO distances (job_id, distance, travel_time)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_id) DO UPDATE SET
			distance = EXCLUDED.distance,
			travel_time = EXCLUDED.travel_time`
	if _, err := ex.Exec(ctx, q, d.JobID, d.Distance, d.TravelTime); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *DistanceRepo) FindByJob(ctx context.Context, tx repository.Tx, jobID string) (*model.Distance, error) {
	defer metrics.ObserveQuery("distances", "FindByJob", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `SELECT job_id, distance, travel_time FROM distances WHERE job_id = $1`
	var d model.Distance
	if err := ex.QueryRow(ctx, q, jobID).Scan(&d.JobID, &d.Distance, &d.TravelTime); err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}
