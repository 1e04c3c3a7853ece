package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"interpreter-booking/internal/domain"
	"interpreter-booking/internal/domain/model"
	"interpreter-booking/internal/domain/ports/repository"
	"interpreter-booking/internal/infra/metrics"
)

type LanguageRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

var _ repository.LanguageRepository = (*LanguageRepo)(nil)

func NewLanguageRepo(pool *pgxpool.Pool, logger *zerolog.Logger) *LanguageRepo {
	return &LanguageRepo{
		pool:   pool,
		logger: logger.With().Str("component", "language_repo").Logger(),
	}
}

func (r *LanguageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Language, error) {
	defer metrics.ObserveQuery("languages", "FindByID", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `SELECT id, name, active FROM languages WHERE id = $1`
	var l model.Language
	if err := ex.QueryRow(ctx, q, id).Scan(&l.ID, &l.Name, &l.Active); err != nil {
		return nil, mapError(err)
	}
	return &l, nil
}

func (r *LanguageRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Language, error) {
	defer metrics.ObserveQuery("languages", "ListActive", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `SELECT id, name, active FROM languages WHERE active ORDER BY name`
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*model.Language
	for rows.Next() {
		var l model.Language
		if err := rows.Scan(&l.ID, &l.Name, &l.Active); err != nil {
			return nil, mapError(err)
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return out, nil
}
