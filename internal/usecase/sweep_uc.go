package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"interpreter-booking/internal/domain"
	"interpreter-booking/internal/domain/model"
	"interpreter-booking/internal/domain/ports/adapter"
	"interpreter-booking/internal/domain/ports/repository"
)

// Compile-time check
var _ SweepUseCase = (*sweepUC)(nil)

// SweepUseCase holds the periodic maintenance passes run by the scheduler:
// timing out unaccepted bookings and reminding both parties shortly before
// a confirmed session starts.
type SweepUseCase interface {
	ExpireOverdue(ctx context.Context) (int, error)
	RemindSessionStart(ctx context.Context, window time.Duration) (int, error)
}

type sweepUC struct {
	txm        repository.TransactionManager
	jobs       repository.JobRepository
	assigns    repository.AssignmentRepository
	users      repository.UserRepository
	langs      repository.LanguageRepository
	audits     repository.AuditRepository
	dispatcher NotificationDispatcher
	events     adapter.EventBus
	now        func() time.Time
	log        *zerolog.Logger
}

func NewSweepUseCase(
	txm repository.TransactionManager,
	jobs repository.JobRepository,
	assigns repository.AssignmentRepository,
	users repository.UserRepository,
	langs repository.LanguageRepository,
	audits repository.AuditRepository,
	dispatcher NotificationDispatcher,
	events adapter.EventBus,
	logger *zerolog.Logger,
) *sweepUC {
	l := logger.With().Str("component", "sweep").Logger()
	return &sweepUC{
		txm: txm, jobs: jobs, assigns: assigns, users: users, langs: langs, audits: audits,
		dispatcher: dispatcher, events: events, now: time.Now, log: &l,
	}
}

// ExpireOverdue times out pending bookings whose acceptance deadline has
// passed and tells the customer nobody took the job.
func (u *sweepUC) ExpireOverdue(ctx context.Context) (int, error) {
	now := u.now()
	expired, err := u.jobs.FindExpiredPending(ctx, repository.NoTX, now)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, job := range expired {
		job := job
		err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			job.Status = model.StatusTimedOut
			if err := u.jobs.Save(ctx, tx, job); err != nil {
				return err
			}
			return u.audits.Append(ctx, tx, model.NewAuditEntry(job.ID, "", "expire", now,
				model.FieldChange{Field: "status", Old: string(model.StatusPending), New: string(model.StatusTimedOut)}))
		})
		if err != nil {
			u.log.Error().Err(err).Str("job_id", job.ID).Msg("expire pass failed for job")
			continue
		}
		count++

		if err := u.events.Publish(ctx, adapter.Event{Name: adapter.EventJobExpired, JobID: job.ID, At: now}); err != nil {
			u.log.Warn().Err(err).Str("job_id", job.ID).Msg("event publish failed")
		}
		u.notifyExpired(ctx, job)
	}
	return count, nil
}

func (u *sweepUC) notifyExpired(ctx context.Context, job *model.Job) {
	customer, err := u.users.FindByID(ctx, repository.NoTX, job.CustomerID)
	if err != nil {
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("customer lookup for expiry notice failed")
		return
	}
	langName := job.FromLanguageID
	if lang, err := u.langs.FindByID(ctx, repository.NoTX, job.FromLanguageID); err == nil {
		langName = lang.Name
	}
	u.dispatcher.Dispatch(ctx, []model.Intent{{
		Channel: model.ChannelPush, Type: model.NotifJobExpired, JobID: job.ID,
		Recipients:  []model.Recipient{{UserID: customer.ID, Email: job.ContactEmail(customer), Name: customer.Name}},
		MessageKey:  "push.job_expired",
		MessageArgs: []interface{}{langName, job.Duration, job.Due.Format("2006-01-02 15:04:05")},
		Data:        map[string]string{"job_id": job.ID},
	}})
}

// RemindSessionStart pushes a reminder to the customer and the assigned
// translator for confirmed bookings due inside the window. Each booking is
// reminded once.
func (u *sweepUC) RemindSessionStart(ctx context.Context, window time.Duration) (int, error) {
	now := u.now()
	due, err := u.jobs.FindDueBetween(ctx, repository.NoTX, now, now.Add(window),
		[]model.JobStatus{model.StatusAssigned})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, job := range due {
		if job.SessionRemindSent {
			continue
		}
		job.SessionRemindSent = true
		if err := u.jobs.Save(ctx, repository.NoTX, job); err != nil {
			u.log.Error().Err(err).Str("job_id", job.ID).Msg("reminder flag save failed")
			continue
		}
		u.remind(ctx, job)
		count++
	}
	return count, nil
}

func (u *sweepUC) remind(ctx context.Context, job *model.Job) {
	langName := job.FromLanguageID
	if lang, err := u.langs.FindByID(ctx, repository.NoTX, job.FromLanguageID); err == nil {
		langName = lang.Name
	}
	dueDate := job.Due.Format("2006-01-02")
	dueTime := job.Due.Format("15:04")

	key := "push.session_start_remind_phone"
	args := []interface{}{langName, dueTime, dueDate, job.Duration}
	if job.PhysicalOnly() {
		key = "push.session_start_remind_physical"
		args = []interface{}{langName, job.Town, dueTime, dueDate, job.Duration}
	}

	var recipients []model.Recipient
	if customer, err := u.users.FindByID(ctx, repository.NoTX, job.CustomerID); err == nil {
		recipients = append(recipients, model.Recipient{UserID: customer.ID, Email: job.ContactEmail(customer), Name: customer.Name})
	}
	if active, err := u.assigns.FindActiveByJob(ctx, repository.NoTX, job.ID); err == nil {
		if tr, err := u.users.FindByID(ctx, repository.NoTX, active.TranslatorID); err == nil {
			recipients = append(recipients, model.RecipientFromUser(tr))
		}
	} else if err != domain.ErrNotFound {
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("assignment lookup for reminder failed")
	}
	if len(recipients) == 0 {
		return
	}

	u.dispatcher.Dispatch(ctx, []model.Intent{{
		Channel: model.ChannelPush, Type: model.NotifSessionStartRemind, JobID: job.ID,
		Recipients:  recipients,
		MessageKey:  key,
		MessageArgs: args,
		Data:        map[string]string{"job_id": job.ID},
	}})
}
