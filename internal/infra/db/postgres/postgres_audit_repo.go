package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"interpreter-booking/internal/domain"
	"interpreter-booking/internal/domain/model"
	"interpreter-booking/internal/domain/ports/repository"
	"interpreter-booking/internal/infra/metrics"
)

type AuditRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

var _ repository.AuditRepository = (*AuditRepo)(nil)

func NewAuditRepo(pool *pgxpool.Pool, logger *zerolog.Logger) *AuditRepo {
	return &AuditRepo{
		pool:   pool,
		logger: logger.With().Str("component", "audit_repo").Logger(),
	}
}

func (r *AuditRepo) Append(ctx context.Context, tx repository.Tx, e *model.AuditEntry) error {
	defer metrics.ObserveQuery("audit", "Append", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}

	changes, err := json.Marshal(e.Changes)
	if err != nil {
		return fmt.Errorf("%w: marshal changes: %v", domain.ErrOperationFailed, err)
	}

	const q = `
		INSERT INTO audit_log (id, job_id, actor_id, action, changes, at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := ex.Exec(ctx, q, e.ID, e.JobID, e.ActorID, e.Action, changes, e.At); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *AuditRepo) FindByJob(ctx context.Context, tx repository.Tx, jobID string) ([]*model.AuditEntry, error) {
	defer metrics.ObserveQuery("audit", "FindByJob", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT id, job_id, actor_id, action, changes, at
		FROM audit_log
		WHERE job_id = $1
		ORDER BY at, id`
	rows, err := ex.Query(ctx, q, jobID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var changes []byte
		if err := rows.Scan(&e.ID, &e.JobID, &e.ActorID, &e.Action, &changes, &e.At); err != nil {
			return nil, mapError(err)
		}
		if err := json.Unmarshal(changes, &e.Changes); err != nil {
			return nil, fmt.Errorf("%w: unmarshal changes: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return out, nil
}
