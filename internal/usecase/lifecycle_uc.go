package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"interpreter-booking/internal/domain"
	"interpreter-booking/internal/domain/model"
	"interpreter-booking/internal/domain/ports/adapter"
	"interpreter-booking/internal/domain/ports/repository"
)

// Compile-time check
var _ LifecycleUseCase = (*lifecycleUC)(nil)

// JobUpdate enumerates the fields a composite update may change. Nil
// pointers mean "leave as is". TranslatorEmail, when set, is resolved to
// an account and takes precedence over TranslatorID.
type JobUpdate struct {
	Status          *model.JobStatus
	AdminComments   *string
	Reference       *string
	Due             *time.Time
	FromLanguageID  *string
	TranslatorID    string
	TranslatorEmail string
	SessionTime     string
}

// UpdateResult itemizes what a composite update actually changed. A booking
// whose due has already passed reports a flat acknowledgement instead, with
// the per-field flags cleared.
type UpdateResult struct {
	Job               *model.Job
	StatusChanged     bool
	TranslatorChanged bool
	DueChanged        bool
	LanguageChanged   bool
}

// AcceptResult is the structured outcome of an accept attempt. Losing the
// race or holding an overlapping booking is a normal outcome, not an error.
type AcceptResult struct {
	Accepted bool
	Message  string
	Job      *model.Job
	Jobs     []*model.Job
}

// CancelResult reports a cancellation outcome. A late translator cancel is
// refused with a call-support message and no state change.
type CancelResult struct {
	Cancelled bool
	Status    model.JobStatus
	Message   string
}

type LifecycleUseCase interface {
	UpdateJob(ctx context.Context, jobID, actorID string, upd *JobUpdate) (*UpdateResult, error)
	AcceptJob(ctx context.Context, jobID, translatorID string) (*AcceptResult, error)
	CancelJob(ctx context.Context, jobID, actorID string) (*CancelResult, error)
	EndJob(ctx context.Context, jobID, actorID string) error
	CustomerNotCall(ctx context.Context, jobID, actorID string) error
	ReopenJob(ctx context.Context, jobID, actorID string) (*model.Job, error)
}

// anyStatus matches every requested target in the transition table.
const anyStatus = model.JobStatus("*")

// transitionRule is the guard for one edge of the status machine.
type transitionRule struct {
	needComment    bool // admin_comments must accompany the change
	timeoutExempt  bool // a timedout target waives the comment guard
	needSession    bool // session_time must accompany the change
	needTranslator bool // only valid when the same update replaced the translator
}

// transitionTable maps current status to the transitions it permits. A
// requested change with no matching row is a no-op, never an error.
var transitionTable = map[model.JobStatus]map[model.JobStatus]transitionRule{
	model.StatusPending: {
		model.StatusAssigned: {needTranslator: true},
		anyStatus:            {needComment: true, timeoutExempt: true},
	},
	model.StatusAssigned: {
		model.StatusWithdrawBefore24: {needComment: true},
		model.StatusWithdrawAfter24:  {needComment: true},
		model.StatusTimedOut:         {},
	},
	model.StatusStarted: {
		model.StatusCompleted: {needComment: true, needSession: true},
	},
	model.StatusCompleted: {
		model.StatusTimedOut: {needComment: true},
		anyStatus:            {},
	},
	model.StatusTimedOut: {
		model.StatusPending:  {},
		model.StatusAssigned: {needTranslator: true},
	},
	model.StatusWithdrawAfter24: {
		model.StatusTimedOut: {needComment: true},
	},
}

func ruleFor(from, to model.JobStatus) (transitionRule, bool) {
	rules, ok := transitionTable[from]
	if !ok {
		return transitionRule{}, false
	}
	if r, ok := rules[to]; ok {
		return r, true
	}
	r, ok := rules[anyStatus]
	return r, ok
}

type lifecycleUC struct {
	txm        repository.TransactionManager
	jobs       repository.JobRepository
	assigns    repository.AssignmentRepository
	users      repository.UserRepository
	langs      repository.LanguageRepository
	audits     repository.AuditRepository
	dispatcher NotificationDispatcher
	matcher    MatchingUseCase
	events     adapter.EventBus
	expiry     adapter.ExpiryPolicy
	loc        Localizer

	supportPhone string
	now          func() time.Time
	log          *zerolog.Logger
}

func NewLifecycleUseCase(
	txm repository.TransactionManager,
	jobs repository.JobRepository,
	assigns repository.AssignmentRepository,
	users repository.UserRepository,
	langs repository.LanguageRepository,
	audits repository.AuditRepository,
	dispatcher NotificationDispatcher,
	matcher MatchingUseCase,
	events adapter.EventBus,
	expiry adapter.ExpiryPolicy,
	loc Localizer,
	supportPhone string,
	logger *zerolog.Logger,
) *lifecycleUC {
	l := logger.With().Str("component", "lifecycle").Logger()
	return &lifecycleUC{
		txm: txm, jobs: jobs, assigns: assigns, users: users, langs: langs, audits: audits,
		dispatcher: dispatcher, matcher: matcher, events: events, expiry: expiry, loc: loc,
		supportPhone: supportPhone, now: time.Now, log: &l,
	}
}

// statusEffect names the post-commit notification flow a transition owes.
type statusEffect int

const (
	effectNone statusEffect = iota
	effectReopenFanOut
	effectAcceptNotice
	effectSessionEnded
	effectStatusChanged
	effectWithdrawNotice
)

func (u *lifecycleUC) UpdateJob(ctx context.Context, jobID, actorID string, upd *JobUpdate) (*UpdateResult, error) {
	job, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		return nil, err
	}
	active, err := u.assigns.FindActiveByJob(ctx, repository.NoTX, jobID)
	if err != nil && err != domain.ErrNotFound {
		return nil, err
	}

	now := u.now()
	res := &UpdateResult{Job: job}
	var changes []model.FieldChange
	var newAssign *model.Assignment
	var oldTranslatorID string
	oldDue := job.Due
	oldLang := job.FromLanguageID

	// 1. Translator change: append to the ledger, never rewrite a row.
	newTranslatorID := upd.TranslatorID
	if upd.TranslatorEmail != "" {
		tu, err := u.users.FindByEmail(ctx, repository.NoTX, upd.TranslatorEmail)
		switch {
		case err == nil:
			newTranslatorID = tu.ID
		case err == domain.ErrNotFound:
			newTranslatorID = ""
		default:
			return nil, err
		}
	}
	if newTranslatorID != "" {
		switch {
		case active == nil:
			newAssign = model.NewAssignment(job.ID, newTranslatorID, job.WillExpireAt, now)
			res.TranslatorChanged = true
			changes = append(changes, model.FieldChange{Field: "translator", New: newTranslatorID})
		case active.TranslatorID != newTranslatorID:
			oldTranslatorID = active.TranslatorID
			active.Cancel(now)
			newAssign = model.NewAssignment(job.ID, newTranslatorID, job.WillExpireAt, now)
			res.TranslatorChanged = true
			changes = append(changes, model.FieldChange{Field: "translator", Old: oldTranslatorID, New: newTranslatorID})
		}
	}

	// 2. Due change refreshes the acceptance deadline.
	if upd.Due != nil && !upd.Due.Equal(job.Due) {
		changes = append(changes, model.FieldChange{
			Field: "due",
			Old:   job.Due.Format("2006-01-02 15:04:05"),
			New:   upd.Due.Format("2006-01-02 15:04:05"),
		})
		job.Due = *upd.Due
		job.WillExpireAt = u.expiry.WillExpireAt(job.Due, now)
		res.DueChanged = true
	}

	// 3. Language change.
	if upd.FromLanguageID != nil && *upd.FromLanguageID != job.FromLanguageID {
		changes = append(changes, model.FieldChange{Field: "from_language_id", Old: job.FromLanguageID, New: *upd.FromLanguageID})
		job.FromLanguageID = *upd.FromLanguageID
		res.LanguageChanged = true
	}

	// 4. Status change per the transition table. A request off the table
	// leaves the status untouched.
	effect := effectNone
	oldStatus := job.Status
	if upd.Status != nil && *upd.Status != job.Status {
		target := *upd.Status
		if rule, ok := ruleFor(job.Status, target); ok && u.guardPasses(rule, target, upd, res.TranslatorChanged) {
			effect = u.applyStatus(job, target, upd, now)
			res.StatusChanged = true
			changes = append(changes, model.FieldChange{Field: "status", Old: string(oldStatus), New: string(target)})
		}
	}

	// 5. Comments and reference persist unconditionally.
	if upd.AdminComments != nil && *upd.AdminComments != job.AdminComments {
		changes = append(changes, model.FieldChange{Field: "admin_comments", Old: job.AdminComments, New: *upd.AdminComments})
		job.AdminComments = *upd.AdminComments
	}
	if upd.Reference != nil && *upd.Reference != job.Reference {
		changes = append(changes, model.FieldChange{Field: "reference", Old: job.Reference, New: *upd.Reference})
		job.Reference = *upd.Reference
	}

	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.jobs.Save(ctx, tx, job); err != nil {
			return err
		}
		if oldTranslatorID != "" {
			if err := u.assigns.Save(ctx, tx, active); err != nil {
				return err
			}
		}
		if newAssign != nil {
			if err := u.assigns.Save(ctx, tx, newAssign); err != nil {
				return err
			}
		}
		if len(changes) == 0 {
			return nil
		}
		return u.audits.Append(ctx, tx, model.NewAuditEntry(job.ID, actorID, "update", now, changes...))
	})
	if err != nil {
		return nil, err
	}

	u.notifyUpdate(ctx, job, res, effect, oldDue, oldLang, oldTranslatorID, newTranslatorID, upd, now)
	if !job.Due.After(now) {
		res.StatusChanged = false
		res.TranslatorChanged = false
		res.DueChanged = false
		res.LanguageChanged = false
	}
	return res, nil
}

func (u *lifecycleUC) guardPasses(rule transitionRule, target model.JobStatus, upd *JobUpdate, translatorChanged bool) bool {
	if rule.needTranslator && !translatorChanged {
		return false
	}
	if rule.needSession && upd.SessionTime == "" {
		return false
	}
	if rule.needComment && !(rule.timeoutExempt && target == model.StatusTimedOut) {
		if upd.AdminComments == nil || *upd.AdminComments == "" {
			return false
		}
	}
	return true
}

// applyStatus mutates the job for a validated transition and names the
// notification flow owed after commit.
func (u *lifecycleUC) applyStatus(job *model.Job, target model.JobStatus, upd *JobUpdate, now time.Time) statusEffect {
	from := job.Status
	job.Status = target

	switch {
	case from == model.StatusTimedOut && target == model.StatusPending:
		job.CreatedAt = now
		job.WillExpireAt = u.expiry.WillExpireAt(job.Due, now)
		job.Remind16hSent = false
		job.Remind48hSent = false
		job.SessionRemindSent = false
		return effectReopenFanOut
	case target == model.StatusAssigned:
		return effectAcceptNotice
	case from == model.StatusStarted && target == model.StatusCompleted:
		job.SessionTime = upd.SessionTime
		end := now
		job.EndAt = &end
		return effectSessionEnded
	case from == model.StatusAssigned && (target == model.StatusWithdrawBefore24 || target == model.StatusWithdrawAfter24):
		return effectWithdrawNotice
	case from == model.StatusPending:
		return effectStatusChanged
	}
	return effectNone
}

// notifyUpdate dispatches everything a committed composite update owes.
// Translator, due, and language notices are suppressed once the booking's
// due has passed.
func (u *lifecycleUC) notifyUpdate(ctx context.Context, job *model.Job, res *UpdateResult, effect statusEffect, oldDue time.Time, oldLang, oldTranslatorID, newTranslatorID string, upd *JobUpdate, now time.Time) {
	var intents []model.Intent

	customer, err := u.users.FindByID(ctx, repository.NoTX, job.CustomerID)
	if err != nil {
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("customer lookup for notification failed")
		return
	}
	custRcpt := model.Recipient{UserID: customer.ID, Email: job.ContactEmail(customer), Name: customer.Name}
	mailData := map[string]interface{}{"user": customer, "job": job}

	duePassed := !job.Due.After(now)
	if !duePassed {
		if res.TranslatorChanged {
			intents = append(intents, model.Intent{
				Channel: model.ChannelEmail, Type: model.NotifJobAccepted, JobID: job.ID,
				Recipients: []model.Recipient{custRcpt},
				Subject:    "email.subject.job_changed_translator", MessageArgs: []interface{}{job.ID},
				Template: "job-changed-translator-customer", TemplateData: mailData,
			})
			if r, ok := u.recipient(ctx, newTranslatorID); ok {
				intents = append(intents, model.Intent{
					Channel: model.ChannelEmail, Type: model.NotifJobAccepted, JobID: job.ID,
					Recipients: []model.Recipient{r},
					Subject:    "email.subject.job_new_translator", MessageArgs: []interface{}{job.ID},
					Template: "job-changed-translator-new", TemplateData: mailData,
				})
			}
			if r, ok := u.recipient(ctx, oldTranslatorID); ok {
				intents = append(intents, model.Intent{
					Channel: model.ChannelEmail, Type: model.NotifJobCancelled, JobID: job.ID,
					Recipients: []model.Recipient{r},
					Subject:    "email.subject.job_cancelled", MessageArgs: []interface{}{job.ID},
					Template: "job-changed-translator-old", TemplateData: mailData,
				})
			}
		}
		if res.DueChanged {
			data := map[string]interface{}{"user": customer, "job": job, "old_time": oldDue.Format("2006-01-02 15:04:05")}
			rcpts := []model.Recipient{custRcpt}
			if r, ok := u.activeTranslatorRecipient(ctx, job.ID, oldTranslatorID, newTranslatorID); ok {
				rcpts = append(rcpts, r)
			}
			intents = append(intents, model.Intent{
				Channel: model.ChannelEmail, Type: model.NotifJobAccepted, JobID: job.ID,
				Recipients: rcpts,
				Subject:    "email.subject.job_changed_date", MessageArgs: []interface{}{job.ID},
				Template: "job-changed-date", TemplateData: data,
			})
		}
		if res.LanguageChanged {
			data := map[string]interface{}{"user": customer, "job": job, "old_lang": u.languageName(ctx, oldLang)}
			rcpts := []model.Recipient{custRcpt}
			if r, ok := u.activeTranslatorRecipient(ctx, job.ID, oldTranslatorID, newTranslatorID); ok {
				rcpts = append(rcpts, r)
			}
			intents = append(intents, model.Intent{
				Channel: model.ChannelEmail, Type: model.NotifJobAccepted, JobID: job.ID,
				Recipients: rcpts,
				Subject:    "email.subject.job_changed_lang", MessageArgs: []interface{}{job.ID},
				Template: "job-changed-lang", TemplateData: data,
			})
		}
	}

	switch effect {
	case effectReopenFanOut:
		if _, err := u.dispatcher.FanOutNewJob(ctx, job, ""); err != nil {
			u.log.Error().Err(err).Str("job_id", job.ID).Msg("reopen fan-out failed")
		}
	case effectAcceptNotice:
		intents = append(intents, model.Intent{
			Channel: model.ChannelEmail, Type: model.NotifJobAccepted, JobID: job.ID,
			Recipients: []model.Recipient{custRcpt},
			Subject:    "email.subject.job_accepted", MessageArgs: []interface{}{job.ID},
			Template: "job-accepted", TemplateData: mailData,
		})
	case effectSessionEnded:
		intents = append(intents, u.sessionEndedIntents(ctx, job, customer, custRcpt)...)
	case effectStatusChanged:
		intents = append(intents, model.Intent{
			Channel: model.ChannelEmail, Type: model.NotifJobCancelled, JobID: job.ID,
			Recipients: []model.Recipient{custRcpt},
			Subject:    "email.subject.status_changed", MessageArgs: []interface{}{job.ID},
			Template: "status-changed", TemplateData: mailData,
		})
	case effectWithdrawNotice:
		intents = append(intents, model.Intent{
			Channel: model.ChannelEmail, Type: model.NotifJobCancelled, JobID: job.ID,
			Recipients: []model.Recipient{custRcpt},
			Subject:    "email.subject.job_cancelled", MessageArgs: []interface{}{job.ID},
			Template: "job-cancel", TemplateData: mailData,
		})
		if r, ok := u.activeTranslatorRecipient(ctx, job.ID, oldTranslatorID, newTranslatorID); ok {
			intents = append(intents, model.Intent{
				Channel: model.ChannelEmail, Type: model.NotifJobCancelled, JobID: job.ID,
				Recipients: []model.Recipient{r},
				Subject:    "email.subject.job_cancelled", MessageArgs: []interface{}{job.ID},
				Template: "job-cancel", TemplateData: mailData,
			})
		}
	}

	if len(intents) > 0 {
		u.dispatcher.Dispatch(ctx, intents)
	}
}

func (u *lifecycleUC) AcceptJob(ctx context.Context, jobID, translatorID string) (*AcceptResult, error) {
	job, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		return nil, err
	}
	translator, err := u.users.FindByID(ctx, repository.NoTX, translatorID)
	if err != nil {
		return nil, err
	}
	if !translator.IsTranslator() {
		return nil, &domain.ValidationError{Field: "user", Reason: "only translators accept bookings"}
	}

	overlap, err := u.jobs.HasConfirmedOverlap(ctx, repository.NoTX, translatorID, job.Due, job.Duration)
	if err != nil {
		return nil, err
	}
	if overlap {
		return &AcceptResult{Message: u.loc.T("accept.already_booked", job.Due.Format("2006-01-02 15:04:05"))}, nil
	}

	now := u.now()
	won := false
	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		won, err = u.jobs.MarkAssignedIfPending(ctx, tx, job.ID)
		if err != nil || !won {
			return err
		}
		assign := model.NewAssignment(job.ID, translatorID, job.WillExpireAt, now)
		if err := u.assigns.Save(ctx, tx, assign); err != nil {
			return err
		}
		return u.audits.Append(ctx, tx, model.NewAuditEntry(job.ID, translatorID, "accept", now,
			model.FieldChange{Field: "status", Old: string(model.StatusPending), New: string(model.StatusAssigned)}))
	})
	if err != nil {
		return nil, err
	}
	if !won {
		return &AcceptResult{Message: u.loc.T("accept.already_taken")}, nil
	}
	job.Status = model.StatusAssigned

	langName := u.languageName(ctx, job.FromLanguageID)
	due := job.Due.Format("2006-01-02 15:04:05")
	if customer, err := u.users.FindByID(ctx, repository.NoTX, job.CustomerID); err == nil {
		custRcpt := model.Recipient{UserID: customer.ID, Email: job.ContactEmail(customer), Name: customer.Name, Mobile: customer.Mobile}
		u.dispatcher.Dispatch(ctx, []model.Intent{
			{
				Channel: model.ChannelEmail, Type: model.NotifJobAccepted, JobID: job.ID,
				Recipients: []model.Recipient{custRcpt},
				Subject:    "email.subject.job_accepted", MessageArgs: []interface{}{job.ID},
				Template: "job-accepted", TemplateData: map[string]interface{}{"user": customer, "job": job},
			},
			{
				Channel: model.ChannelPush, Type: model.NotifJobAccepted, JobID: job.ID,
				Recipients:  []model.Recipient{custRcpt},
				MessageKey:  "push.job_accepted",
				MessageArgs: []interface{}{langName, job.Duration, due},
				Data:        map[string]string{"job_id": job.ID},
			},
		})
	} else {
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("customer lookup for accept notice failed")
	}

	if err := u.events.Publish(ctx, adapter.Event{Name: adapter.EventJobAccepted, JobID: job.ID, ActorID: translatorID, At: now}); err != nil {
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("event publish failed")
	}

	queue, err := u.matcher.JobsForTranslator(ctx, translatorID)
	if err != nil {
		u.log.Warn().Err(err).Str("translator_id", translatorID).Msg("job queue refresh failed")
	}
	return &AcceptResult{
		Accepted: true,
		Message:  u.loc.T("accept.success", langName, job.Duration, due),
		Job:      job,
		Jobs:     queue,
	}, nil
}

func (u *lifecycleUC) CancelJob(ctx context.Context, jobID, actorID string) (*CancelResult, error) {
	job, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		return nil, err
	}
	actor, err := u.users.FindByID(ctx, repository.NoTX, actorID)
	if err != nil {
		return nil, err
	}
	active, err := u.assigns.FindActiveByJob(ctx, repository.NoTX, jobID)
	if err != nil && err != domain.ErrNotFound {
		return nil, err
	}

	now := u.now()
	langName := u.languageName(ctx, job.FromLanguageID)

	if actor.IsCustomer() {
		withdrawAt := now
		job.WithdrawAt = &withdrawAt
		oldStatus := job.Status
		if job.Due.Sub(now) >= 24*time.Hour {
			job.Status = model.StatusWithdrawBefore24
		} else {
			job.Status = model.StatusWithdrawAfter24
		}
		if active != nil {
			active.Cancel(now)
		}
		err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if err := u.jobs.Save(ctx, tx, job); err != nil {
				return err
			}
			if active != nil {
				if err := u.assigns.Save(ctx, tx, active); err != nil {
					return err
				}
			}
			return u.audits.Append(ctx, tx, model.NewAuditEntry(job.ID, actorID, "cancel", now,
				model.FieldChange{Field: "status", Old: string(oldStatus), New: string(job.Status)}))
		})
		if err != nil {
			return nil, err
		}

		if err := u.events.Publish(ctx, adapter.Event{Name: adapter.EventJobCancelled, JobID: job.ID, ActorID: actorID, At: now}); err != nil {
			u.log.Warn().Err(err).Str("job_id", job.ID).Msg("event publish failed")
		}
		if active != nil {
			if r, ok := u.recipient(ctx, active.TranslatorID); ok {
				u.dispatcher.Dispatch(ctx, []model.Intent{{
					Channel: model.ChannelPush, Type: model.NotifJobCancelled, JobID: job.ID,
					Recipients:  []model.Recipient{r},
					MessageKey:  "push.job_cancelled_customer",
					MessageArgs: []interface{}{langName, job.Due.Format("2006-01-02 15:04:05")},
					Data:        map[string]string{"job_id": job.ID},
				}})
			}
		}
		return &CancelResult{Cancelled: true, Status: job.Status}, nil
	}

	// Translator cancellation.
	if active == nil || active.TranslatorID != actorID {
		return nil, domain.ErrNotFound
	}
	if job.Due.Sub(now) <= 24*time.Hour {
		return &CancelResult{Message: u.loc.T("cancel.call_support", u.supportPhone)}, nil
	}

	customer, err := u.users.FindByID(ctx, repository.NoTX, job.CustomerID)
	if err != nil {
		return nil, err
	}
	oldStatus := job.Status
	active.Cancel(now)
	job.Status = model.StatusPending
	job.CreatedAt = now
	job.WillExpireAt = u.expiry.WillExpireAt(job.Due, now)
	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.jobs.Save(ctx, tx, job); err != nil {
			return err
		}
		if err := u.assigns.Save(ctx, tx, active); err != nil {
			return err
		}
		return u.audits.Append(ctx, tx, model.NewAuditEntry(job.ID, actorID, "cancel", now,
			model.FieldChange{Field: "status", Old: string(oldStatus), New: string(model.StatusPending)}))
	})
	if err != nil {
		return nil, err
	}

	if err := u.events.Publish(ctx, adapter.Event{Name: adapter.EventJobCancelled, JobID: job.ID, ActorID: actorID, At: now}); err != nil {
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("event publish failed")
	}
	u.dispatcher.Dispatch(ctx, []model.Intent{{
		Channel: model.ChannelPush, Type: model.NotifJobCancelled, JobID: job.ID,
		Recipients:  []model.Recipient{{UserID: customer.ID, Email: job.ContactEmail(customer), Name: customer.Name, Mobile: customer.Mobile}},
		MessageKey:  "push.job_cancelled_translator",
		MessageArgs: []interface{}{langName, job.Due.Format("2006-01-02 15:04:05")},
		Data:        map[string]string{"job_id": job.ID},
	}})
	if _, err := u.dispatcher.FanOutNewJob(ctx, job, actorID); err != nil {
		u.log.Error().Err(err).Str("job_id", job.ID).Msg("cancel fan-out failed")
	}
	return &CancelResult{Cancelled: true, Status: model.StatusPending}, nil
}

func (u *lifecycleUC) EndJob(ctx context.Context, jobID, actorID string) error {
	job, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		return err
	}
	if job.Status != model.StatusStarted {
		return nil
	}
	active, err := u.assigns.FindActiveByJob(ctx, repository.NoTX, jobID)
	if err != nil && err != domain.ErrNotFound {
		return err
	}

	now := u.now()
	job.Status = model.StatusCompleted
	end := now
	job.EndAt = &end
	job.SessionTime = formatInterval(now.Sub(job.Due))
	if active != nil {
		active.Complete(now, actorID)
	}
	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.jobs.Save(ctx, tx, job); err != nil {
			return err
		}
		if active != nil {
			if err := u.assigns.Save(ctx, tx, active); err != nil {
				return err
			}
		}
		return u.audits.Append(ctx, tx, model.NewAuditEntry(job.ID, actorID, "end", now,
			model.FieldChange{Field: "status", Old: string(model.StatusStarted), New: string(model.StatusCompleted)},
			model.FieldChange{Field: "session_time", New: job.SessionTime}))
	})
	if err != nil {
		return err
	}

	if err := u.events.Publish(ctx, adapter.Event{Name: adapter.EventJobEnded, JobID: job.ID, ActorID: actorID, At: now}); err != nil {
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("event publish failed")
	}

	customer, err := u.users.FindByID(ctx, repository.NoTX, job.CustomerID)
	if err != nil {
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("customer lookup for session-end mail failed")
		return nil
	}
	custRcpt := model.Recipient{UserID: customer.ID, Email: job.ContactEmail(customer), Name: customer.Name}
	u.dispatcher.Dispatch(ctx, u.sessionEndedIntents(ctx, job, customer, custRcpt))
	return nil
}

// sessionEndedIntents builds the pair of session-summary mails: the
// customer's carries invoice phrasing, the translator's payroll phrasing.
func (u *lifecycleUC) sessionEndedIntents(ctx context.Context, job *model.Job, customer *model.User, custRcpt model.Recipient) []model.Intent {
	sessionText := sessionDisplay(job.SessionTime)
	intents := []model.Intent{{
		Channel: model.ChannelEmail, Type: model.NotifJobAccepted, JobID: job.ID,
		Recipients: []model.Recipient{custRcpt},
		Subject:    "email.subject.session_ended", MessageArgs: []interface{}{job.ID},
		Template: "session-ended",
		TemplateData: map[string]interface{}{
			"user": customer, "job": job, "session_time": sessionText, "for_text": "faktura",
		},
	}}
	latest, err := u.assigns.FindLatestByJob(ctx, repository.NoTX, job.ID)
	if err != nil {
		return intents
	}
	if r, ok := u.recipient(ctx, latest.TranslatorID); ok {
		intents = append(intents, model.Intent{
			Channel: model.ChannelEmail, Type: model.NotifJobAccepted, JobID: job.ID,
			Recipients: []model.Recipient{r},
			Subject:    "email.subject.session_ended", MessageArgs: []interface{}{job.ID},
			Template: "session-ended",
			TemplateData: map[string]interface{}{
				"user": customer, "job": job, "session_time": sessionText, "for_text": "lön",
			},
		})
	}
	return intents
}

func (u *lifecycleUC) CustomerNotCall(ctx context.Context, jobID, actorID string) error {
	job, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		return err
	}
	active, err := u.assigns.FindActiveByJob(ctx, repository.NoTX, jobID)
	if err != nil && err != domain.ErrNotFound {
		return err
	}

	now := u.now()
	oldStatus := job.Status
	end := now
	job.EndAt = &end
	job.Status = model.StatusNotCarriedOutCustomer
	if active != nil {
		active.Complete(now, active.TranslatorID)
	}
	return u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.jobs.Save(ctx, tx, job); err != nil {
			return err
		}
		if active != nil {
			if err := u.assigns.Save(ctx, tx, active); err != nil {
				return err
			}
		}
		return u.audits.Append(ctx, tx, model.NewAuditEntry(job.ID, actorID, "not_carried_out", now,
			model.FieldChange{Field: "status", Old: string(oldStatus), New: string(model.StatusNotCarriedOutCustomer)}))
	})
}

func (u *lifecycleUC) ReopenJob(ctx context.Context, jobID, actorID string) (*model.Job, error) {
	job, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		return nil, err
	}

	now := u.now()
	willExpire := u.expiry.WillExpireAt(job.Due, now)
	oldStatus := job.Status
	result := job
	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if job.Status == model.StatusTimedOut {
			result = job.Clone(now)
			result.WillExpireAt = willExpire
			if err := u.jobs.Save(ctx, tx, result); err != nil {
				return err
			}
		} else {
			job.Status = model.StatusPending
			job.CreatedAt = now
			job.WillExpireAt = willExpire
			if err := u.jobs.Save(ctx, tx, job); err != nil {
				return err
			}
		}

		if active, err := u.assigns.FindActiveByJob(ctx, tx, job.ID); err == nil {
			active.Cancel(now)
			if err := u.assigns.Save(ctx, tx, active); err != nil {
				return err
			}
		} else if err != domain.ErrNotFound {
			return err
		}

		// Pre-cancelled marker row recording who reopened and when.
		marker := model.NewAssignment(job.ID, actorID, willExpire, now)
		marker.Cancel(now)
		if err := u.assigns.Save(ctx, tx, marker); err != nil {
			return err
		}

		return u.audits.Append(ctx, tx, model.NewAuditEntry(job.ID, actorID, "reopen", now,
			model.FieldChange{Field: "status", Old: string(oldStatus), New: string(model.StatusPending)},
			model.FieldChange{Field: "reopened_as", New: result.ID}))
	})
	if err != nil {
		return nil, err
	}

	if err := u.events.Publish(ctx, adapter.Event{Name: adapter.EventJobReopened, JobID: result.ID, ActorID: actorID, At: now}); err != nil {
		u.log.Warn().Err(err).Str("job_id", result.ID).Msg("event publish failed")
	}
	if _, err := u.dispatcher.FanOutNewJob(ctx, result, ""); err != nil {
		u.log.Error().Err(err).Str("job_id", result.ID).Msg("reopen fan-out failed")
	}
	return result, nil
}

func (u *lifecycleUC) recipient(ctx context.Context, userID string) (model.Recipient, bool) {
	if userID == "" {
		return model.Recipient{}, false
	}
	usr, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		u.log.Warn().Err(err).Str("user_id", userID).Msg("recipient lookup failed")
		return model.Recipient{}, false
	}
	return model.RecipientFromUser(usr), true
}

// activeTranslatorRecipient resolves who should get "booking changed"
// notices: the replacement translator when the update swapped one in, the
// previous holder otherwise.
func (u *lifecycleUC) activeTranslatorRecipient(ctx context.Context, jobID, oldTranslatorID, newTranslatorID string) (model.Recipient, bool) {
	if newTranslatorID != "" {
		return u.recipient(ctx, newTranslatorID)
	}
	if oldTranslatorID != "" {
		return u.recipient(ctx, oldTranslatorID)
	}
	active, err := u.assigns.FindActiveByJob(ctx, repository.NoTX, jobID)
	if err != nil {
		return model.Recipient{}, false
	}
	return u.recipient(ctx, active.TranslatorID)
}

func (u *lifecycleUC) languageName(ctx context.Context, id string) string {
	lang, err := u.langs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return id
	}
	return lang.Name
}

// formatInterval renders a wall-clock difference as h:mm:ss the way the
// session_time column stores it.
func formatInterval(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// sessionDisplay renders a stored h:mm:ss session_time as the human text
// used in session-summary mails.
func sessionDisplay(sessionTime string) string {
	var h, m, s int
	if _, err := fmt.Sscanf(sessionTime, "%d:%d:%d", &h, &m, &s); err != nil {
		return sessionTime
	}
	return fmt.Sprintf("%d tim %d min", h, m)
}
