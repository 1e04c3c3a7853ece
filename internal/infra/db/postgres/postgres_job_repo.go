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

const jobColumns = `id, customer_id, customer_email, status, booking_type, job_type,
	from_language_id, immediate, duration, gender, certified, due,
	customer_phone_type, customer_physical_type, town, address, instructions,
	admin_comments, reference, for_translator_id,
	ignore_flag, ignore_expired, flagged, manually_handled, by_admin,
	will_expire_at, session_time, end_at, withdraw_at,
	remind_16h_sent, remind_48h_sent, session_remind_sent, created_at`

type JobRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

var _ repository.JobRepository = (*JobRepo)(nil)

func NewJobRepo(pool *pgxpool.Pool, logger *zerolog.Logger) *JobRepo {
	return &JobRepo{
		pool:   pool,
		logger: logger.With().Str("component", "job_repo").Logger(),
	}
}

func (r *JobRepo) Save(ctx context.Context, tx repository.Tx, job *model.Job) error {
	defer metrics.ObserveQuery("jobs", "Save", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
			$28, $29, $30, $31, $32, $33)
		ON CONFLICT (id) DO UPDATE SET
			customer_email = EXCLUDED.customer_email,
			status = EXCLUDED.status,
			booking_type = EXCLUDED.booking_type,
			job_type = EXCLUDED.job_type,
			from_language_id = EXCLUDED.from_language_id,
			immediate = EXCLUDED.immediate,
			duration = EXCLUDED.duration,
			gender = EXCLUDED.gender,
			certified = EXCLUDED.certified,
			due = EXCLUDED.due,
			customer_phone_type = EXCLUDED.customer_phone_type,
			customer_physical_type = EXCLUDED.customer_physical_type,
			town = EXCLUDED.town,
			address = EXCLUDED.address,
			instructions = EXCLUDED.instructions,
			admin_comments = EXCLUDED.admin_comments,
			reference = EXCLUDED.reference,
			for_translator_id = EXCLUDED.for_translator_id,
			ignore_flag = EXCLUDED.ignore_flag,
			ignore_expired = EXCLUDED.ignore_expired,
			flagged = EXCLUDED.flagged,
			manually_handled = EXCLUDED.manually_handled,
			by_admin = EXCLUDED.by_admin,
			will_expire_at = EXCLUDED.will_expire_at,
			session_time = EXCLUDED.session_time,
			end_at = EXCLUDED.end_at,
			withdraw_at = EXCLUDED.withdraw_at,
			remind_16h_sent = EXCLUDED.remind_16h_sent,
			remind_48h_sent = EXCLUDED.remind_48h_sent,
			session_remind_sent = EXCLUDED.session_remind_sent,
			created_at = EXCLUDED.created_at`

	_, err = ex.Exec(ctx, q,
		job.ID, job.CustomerID, job.CustomerEmail, string(job.Status), job.Type,
		string(job.JobType), job.FromLanguageID, job.Immediate, job.Duration,
		string(job.Gender), string(job.Certified), job.Due,
		job.CustomerPhoneType, job.CustomerPhysicalType, job.Town, job.Address,
		job.Instructions, job.AdminComments, job.Reference, job.ForTranslatorID,
		job.Ignore, job.IgnoreExpired, job.Flagged, job.ManuallyHandled,
		job.ByAdmin, job.WillExpireAt, job.SessionTime, job.EndAt,
		job.WithdrawAt, job.Remind16hSent, job.Remind48hSent,
		job.SessionRemindSent, job.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("job_id", job.ID).Msg("save job")
		return mapError(err)
	}
	return nil
}

func (r *JobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	defer metrics.ObserveQuery("jobs", "FindByID", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	job, err := scanJob(ex.QueryRow(ctx, q, id))
	if err != nil {
		return nil, mapError(err)
	}
	return job, nil
}

// MarkAssignedIfPending is the accept-race gate: a conditional update that
// only one concurrent acceptor can win.
func (r *JobRepo) MarkAssignedIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	defer metrics.ObserveQuery("jobs", "MarkAssignedIfPending", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}

	const q = `UPDATE jobs SET status = 'assigned' WHERE id = $1 AND status = 'pending'`
	tag, err := ex.Exec(ctx, q, id)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *JobRepo) FindPending(ctx context.Context, tx repository.Tx, jobType model.JobType, languageIDs []string) ([]*model.Job, error) {
	defer metrics.ObserveQuery("jobs", "FindPending", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT ` + jobColumns + ` FROM jobs
		WHERE status = 'pending' AND NOT ignore_flag
		  AND job_type = $1 AND from_language_id = ANY($2)
		ORDER BY due`
	rows, err := ex.Query(ctx, q, string(jobType), languageIDs)
	if err != nil {
		return nil, mapError(err)
	}
	return scanJobs(rows)
}

func (r *JobRepo) FindByCustomer(ctx context.Context, tx repository.Tx, customerID string, statuses []model.JobStatus) ([]*model.Job, error) {
	defer metrics.ObserveQuery("jobs", "FindByCustomer", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT ` + jobColumns + ` FROM jobs
		WHERE customer_id = $1 AND status = ANY($2)
		ORDER BY due`
	rows, err := ex.Query(ctx, q, customerID, statusStrings(statuses))
	if err != nil {
		return nil, mapError(err)
	}
	return scanJobs(rows)
}

func (r *JobRepo) FindExpiredPending(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Job, error) {
	defer metrics.ObserveQuery("jobs", "FindExpiredPending", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT ` + jobColumns + ` FROM jobs
		WHERE status = 'pending' AND NOT ignore_expired AND will_expire_at < $1
		ORDER BY will_expire_at`
	rows, err := ex.Query(ctx, q, now)
	if err != nil {
		return nil, mapError(err)
	}
	return scanJobs(rows)
}

func (r *JobRepo) FindDueBetween(ctx context.Context, tx repository.Tx, from, to time.Time, statuses []model.JobStatus) ([]*model.Job, error) {
	defer metrics.ObserveQuery("jobs", "FindDueBetween", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT ` + jobColumns + ` FROM jobs
		WHERE due >= $1 AND due < $2 AND status = ANY($3)
		ORDER BY due`
	rows, err := ex.Query(ctx, q, from, to, statusStrings(statuses))
	if err != nil {
		return nil, mapError(err)
	}
	return scanJobs(rows)
}

func (r *JobRepo) HasConfirmedOverlap(ctx context.Context, tx repository.Tx, translatorID string, due time.Time, duration int) (bool, error) {
	defer metrics.ObserveQuery("jobs", "HasConfirmedOverlap", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}

	end := due.Add(time.Duration(duration) * time.Minute)
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM assignments a
			JOIN jobs j ON j.id = a.job_id
			WHERE a.translator_id = $1
			  AND a.cancel_at IS NULL AND a.completed_at IS NULL
			  AND j.status = 'assigned'
			  AND j.due < $3
			  AND j.due + make_interval(mins => j.duration) > $2
		)`
	var overlap bool
	if err := ex.QueryRow(ctx, q, translatorID, due, end).Scan(&overlap); err != nil {
		return false, mapError(err)
	}
	return overlap, nil
}

func scanJob(row pgx.Row) (*model.Job, error) {
	var j model.Job
	var status, jobType, gender, certified string
	err := row.Scan(
		&j.ID, &j.CustomerID, &j.CustomerEmail, &status, &j.Type, &jobType,
		&j.FromLanguageID, &j.Immediate, &j.Duration, &gender, &certified,
		&j.Due, &j.CustomerPhoneType, &j.CustomerPhysicalType, &j.Town,
		&j.Address, &j.Instructions, &j.AdminComments, &j.Reference,
		&j.ForTranslatorID, &j.Ignore, &j.IgnoreExpired, &j.Flagged,
		&j.ManuallyHandled, &j.ByAdmin, &j.WillExpireAt, &j.SessionTime,
		&j.EndAt, &j.WithdrawAt, &j.Remind16hSent, &j.Remind48hSent,
		&j.SessionRemindSent, &j.CreatedAt)
	if err != nil {
		return nil, err
	}
	j.Status = model.JobStatus(status)
	j.JobType = model.JobType(jobType)
	j.Gender = model.Gender(gender)
	j.Certified = model.Certified(certified)
	return &j, nil
}

func scanJobs(rows pgx.Rows) ([]*model.Job, error) {
	defer rows.Close()
	var jobs []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, mapError(err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return jobs, nil
}

func statusStrings(statuses []model.JobStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
