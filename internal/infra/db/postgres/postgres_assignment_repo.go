package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"interpreter-booking/internal/domain"
	"interpreter-booking/internal/domain/model"
	"interpreter-booking/internal/domain/ports/repository"
	"interpreter-booking/internal/infra/metrics"
)

const assignmentColumns = `id, job_id, translator_id, created_at, will_expire_at,
	cancel_at, completed_at, completed_by`

type AssignmentRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

var _ repository.AssignmentRepository = (*AssignmentRepo)(nil)

func NewAssignmentRepo(pool *pgxpool.Pool, logger *zerolog.Logger) *AssignmentRepo {
	return &AssignmentRepo{
		pool:   pool,
		logger: logger.With().Str("component", "assignment_repo").Logger(),
	}
}

// Save inserts a fresh attempt or stamps an existing one. The translator of
// a row never changes, so the upsert only touches the terminal marks.
func (r *AssignmentRepo) Save(ctx context.Context, tx repository.Tx, a *model.Assignment) error {
	defer metrics.ObserveQuery("assignments", "Save", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO assignments (` + assignmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			will_expire_at = EXCLUDED.will_expire_at,
			cancel_at = EXCLUDED.cancel_at,
			completed_at = EXCLUDED.completed_at,
			completed_by = EXCLUDED.completed_by`
	_, err = ex.Exec(ctx, q,
		a.ID, a.JobID, a.TranslatorID, a.CreatedAt, a.WillExpireAt,
		a.CancelAt, a.CompletedAt, a.CompletedBy)
	if err != nil {
		r.logger.Error().Err(err).Str("assignment_id", a.ID).Msg("save assignment")
		return mapError(err)
	}
	return nil
}

func (r *AssignmentRepo) FindActiveByJob(ctx context.Context, tx repository.Tx, jobID string) (*model.Assignment, error) {
	defer metrics.ObserveQuery("assignments", "FindActiveByJob", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT ` + assignmentColumns + ` FROM assignments
		WHERE job_id = $1 AND cancel_at IS NULL AND completed_at IS NULL`
	a, err := scanAssignment(ex.QueryRow(ctx, q, jobID))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *AssignmentRepo) FindLatestByJob(ctx context.Context, tx repository.Tx, jobID string) (*model.Assignment, error) {
	defer metrics.ObserveQuery("assignments", "FindLatestByJob", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT ` + assignmentColumns + ` FROM assignments
		WHERE job_id = $1
		ORDER BY id DESC
		LIMIT 1`
	a, err := scanAssignment(ex.QueryRow(ctx, q, jobID))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *AssignmentRepo) FindByJob(ctx context.Context, tx repository.Tx, jobID string) ([]*model.Assignment, error) {
	defer metrics.ObserveQuery("assignments", "FindByJob", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	// ids are time-sortable, so ordering by id reads the ledger oldest first.
	const q = `
		SELECT ` + assignmentColumns + ` FROM assignments
		WHERE job_id = $1
		ORDER BY id`
	rows, err := ex.Query(ctx, q, jobID)
	if err != nil {
		return nil, mapError(err)
	}
	return scanAssignments(rows)
}

func (r *AssignmentRepo) FindActiveByTranslator(ctx context.Context, tx repository.Tx, translatorID string) ([]*model.Assignment, error) {
	defer metrics.ObserveQuery("assignments", "FindActiveByTranslator", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT ` + assignmentColumns + ` FROM assignments
		WHERE translator_id = $1 AND cancel_at IS NULL AND completed_at IS NULL
		ORDER BY id`
	rows, err := ex.Query(ctx, q, translatorID)
	if err != nil {
		return nil, mapError(err)
	}
	return scanAssignments(rows)
}

func scanAssignment(row pgx.Row) (*model.Assignment, error) {
	var a model.Assignment
	err := row.Scan(&a.ID, &a.JobID, &a.TranslatorID, &a.CreatedAt,
		&a.WillExpireAt, &a.CancelAt, &a.CompletedAt, &a.CompletedBy)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAssignments(rows pgx.Rows) ([]*model.Assignment, error) {
	defer rows.Close()
	var out []*model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return out, nil
}
