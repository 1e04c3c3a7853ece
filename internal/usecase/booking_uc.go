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
var _ BookingUseCase = (*bookingUC)(nil)

// JobEmailInput attaches the contact details submitted on the booking
// confirmation step. Empty address/instructions fall back to the
// customer's stored meta.
type JobEmailInput struct {
	Email        string
	Reference    string
	Address      string
	Instructions string
	Town         string
}

type BookingUseCase interface {
	// CreateBooking validates the request and persists a pending booking
	// for the customer. Translators cannot book.
	CreateBooking(ctx context.Context, customerID string, req *model.BookingRequest) (*model.Job, error)

	// StoreJobEmail finalizes a fresh booking with contact details, mails
	// the confirmation, and fans the booking out to eligible translators.
	StoreJobEmail(ctx context.Context, jobID string, in *JobEmailInput) (*model.Job, error)

	// JobHistory lists the customer's bookings, open ones first.
	JobHistory(ctx context.Context, userID string) (open []*model.Job, past []*model.Job, err error)
}

type bookingUC struct {
	txm        repository.TransactionManager
	jobs       repository.JobRepository
	users      repository.UserRepository
	audits     repository.AuditRepository
	assigns    repository.AssignmentRepository
	dispatcher NotificationDispatcher
	events     adapter.EventBus
	expiry     adapter.ExpiryPolicy

	immediateGrace time.Duration
	now            func() time.Time
	log            *zerolog.Logger
}

func NewBookingUseCase(
	txm repository.TransactionManager,
	jobs repository.JobRepository,
	users repository.UserRepository,
	audits repository.AuditRepository,
	assigns repository.AssignmentRepository,
	dispatcher NotificationDispatcher,
	events adapter.EventBus,
	expiry adapter.ExpiryPolicy,
	immediateGrace time.Duration,
	logger *zerolog.Logger,
) *bookingUC {
	l := logger.With().Str("component", "booking").Logger()
	return &bookingUC{
		txm: txm, jobs: jobs, users: users, audits: audits, assigns: assigns,
		dispatcher: dispatcher, events: events, expiry: expiry,
		immediateGrace: immediateGrace, now: time.Now, log: &l,
	}
}

func (u *bookingUC) CreateBooking(ctx context.Context, customerID string, req *model.BookingRequest) (*model.Job, error) {
	customer, err := u.users.FindByID(ctx, repository.NoTX, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsCustomer() {
		return nil, &domain.ValidationError{Field: "user", Reason: "translator cannot create booking"}
	}
	meta, err := u.users.GetMeta(ctx, repository.NoTX, customerID)
	if err != nil {
		return nil, err
	}

	now := u.now()
	job, err := req.Build(customer, meta, now, u.immediateGrace)
	if err != nil {
		return nil, err
	}
	job.WillExpireAt = u.expiry.WillExpireAt(job.Due, now)

	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.jobs.Save(ctx, tx, job); err != nil {
			return err
		}
		return u.audits.Append(ctx, tx, model.NewAuditEntry(job.ID, customerID, "create", now,
			model.FieldChange{Field: "status", New: string(model.StatusPending)}))
	})
	if err != nil {
		return nil, err
	}

	u.log.Info().Str("job_id", job.ID).Str("customer_id", customerID).
		Bool("immediate", job.Immediate).Msg("booking created")
	return job, nil
}

func (u *bookingUC) StoreJobEmail(ctx context.Context, jobID string, in *JobEmailInput) (*model.Job, error) {
	job, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		return nil, err
	}
	customer, err := u.users.FindByID(ctx, repository.NoTX, job.CustomerID)
	if err != nil {
		return nil, err
	}
	meta, err := u.users.GetMeta(ctx, repository.NoTX, job.CustomerID)
	if err != nil {
		return nil, err
	}

	job.CustomerEmail = in.Email
	job.Reference = in.Reference
	job.Address = pick(in.Address, meta.Address)
	job.Instructions = pick(in.Instructions, meta.Instructions)
	job.Town = pick(in.Town, job.Town, meta.City)
	if err := u.jobs.Save(ctx, repository.NoTX, job); err != nil {
		return nil, err
	}

	name := customer.Name
	u.dispatcher.Dispatch(ctx, []model.Intent{{
		Channel:     model.ChannelEmail,
		Type:        model.NotifSuitableJob,
		JobID:       job.ID,
		Recipients:  []model.Recipient{{UserID: customer.ID, Email: job.ContactEmail(customer), Name: name}},
		Subject:     "email.subject.job_created",
		MessageArgs: []interface{}{job.ID},
		Template:    "job-created",
		TemplateData: map[string]interface{}{
			"user": customer,
			"job":  job,
		},
	}})

	if err := u.events.Publish(ctx, adapter.Event{Name: adapter.EventJobCreated, JobID: job.ID, ActorID: customer.ID, At: u.now()}); err != nil {
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("event publish failed")
	}

	if _, err := u.dispatcher.FanOutNewJob(ctx, job, ""); err != nil {
		u.log.Error().Err(err).Str("job_id", job.ID).Msg("new job fan-out failed")
	}
	return job, nil
}

func (u *bookingUC) JobHistory(ctx context.Context, userID string) ([]*model.Job, []*model.Job, error) {
	open, err := u.jobs.FindByCustomer(ctx, repository.NoTX, userID,
		[]model.JobStatus{model.StatusPending, model.StatusAssigned, model.StatusStarted})
	if err != nil {
		return nil, nil, err
	}
	past, err := u.jobs.FindByCustomer(ctx, repository.NoTX, userID,
		[]model.JobStatus{model.StatusCompleted, model.StatusWithdrawBefore24, model.StatusWithdrawAfter24, model.StatusTimedOut, model.StatusNotCarriedOutCustomer})
	if err != nil {
		return nil, nil, err
	}
	return open, past, nil
}

func pick(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
