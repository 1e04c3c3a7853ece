package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"interpreter-booking/internal/domain/model"
	"interpreter-booking/internal/domain/ports/adapter"
	"interpreter-booking/internal/domain/ports/repository"
)

// Localizer renders catalog messages. Keys and arguments come from the
// lifecycle operations; the catalog itself lives in infra.
type Localizer interface {
	T(key string, args ...interface{}) string
}

// Compile-time check
var _ NotificationDispatcher = (*notificationUC)(nil)

// NotificationDispatcher executes outbound intents after the producing
// state change committed. Every channel is best-effort: failures are
// logged and swallowed, never returned to the lifecycle caller.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, intents []model.Intent)

	// FanOutNewJob pushes and texts every eligible translator about an
	// open booking, skipping excludeTranslatorID, and returns how many
	// translators were messaged by SMS.
	FanOutNewJob(ctx context.Context, job *model.Job, excludeTranslatorID string) (int, error)
}

type notificationUC struct {
	users   repository.UserRepository
	langs   repository.LanguageRepository
	matcher MatchingUseCase
	push    adapter.PushGateway
	sms     adapter.SMSGateway
	mailer  adapter.Mailer
	expiry  adapter.ExpiryPolicy
	loc     Localizer
	smsFrom string
	now     func() time.Time
	log     *zerolog.Logger
}

func NewNotificationDispatcher(
	users repository.UserRepository,
	langs repository.LanguageRepository,
	matcher MatchingUseCase,
	push adapter.PushGateway,
	sms adapter.SMSGateway,
	mailer adapter.Mailer,
	expiry adapter.ExpiryPolicy,
	loc Localizer,
	smsFrom string,
	logger *zerolog.Logger,
) *notificationUC {
	l := logger.With().Str("component", "notifier").Logger()
	return &notificationUC{
		users: users, langs: langs, matcher: matcher,
		push: push, sms: sms, mailer: mailer,
		expiry: expiry, loc: loc, smsFrom: smsFrom,
		now: time.Now, log: &l,
	}
}

func (n *notificationUC) Dispatch(ctx context.Context, intents []model.Intent) {
	for i := range intents {
		intent := &intents[i]
		switch intent.Channel {
		case model.ChannelPush:
			n.sendPush(ctx, intent)
		case model.ChannelSMS:
			n.sendSMS(ctx, intent)
		case model.ChannelEmail:
			n.sendEmail(ctx, intent)
		default:
			n.log.Warn().Str("channel", string(intent.Channel)).Msg("unknown intent channel")
		}
	}
}

// sendPush filters recipients by their opt-outs, splits them into a
// deliver-now group and a night-delayed group, and ships one payload per
// group.
func (n *notificationUC) sendPush(ctx context.Context, intent *model.Intent) {
	emergency := intent.Type == model.NotifSuitableJob && intent.Immediate
	night := n.expiry.IsNightTime(n.now())

	var immediate, delayed []string
	for _, r := range intent.Recipients {
		meta, err := n.users.GetMeta(ctx, repository.NoTX, r.UserID)
		if err != nil {
			n.log.Warn().Err(err).Str("user_id", r.UserID).Msg("push recipient meta lookup failed")
			continue
		}
		if meta.NotGetNotification {
			continue
		}
		if emergency && meta.NotGetEmergency {
			continue
		}
		if night && meta.NotGetNighttime {
			delayed = append(delayed, r.Email)
		} else {
			immediate = append(immediate, r.Email)
		}
	}
	if len(immediate) == 0 && len(delayed) == 0 {
		return
	}

	data := intent.Data
	if data == nil {
		data = map[string]string{}
	}
	data["notification_type"] = string(intent.Type)

	base := adapter.PushPayload{
		Title:     n.loc.T("push.title"),
		Body:      n.loc.T(intent.MessageKey, intent.MessageArgs...),
		Data:      data,
		Emergency: emergency,
	}

	if len(immediate) > 0 {
		p := base
		p.Emails = immediate
		if err := n.push.Send(ctx, &p); err != nil {
			n.log.Error().Err(err).Str("job_id", intent.JobID).Msg("push delivery failed")
		}
	}
	if len(delayed) > 0 {
		p := base
		p.Emails = delayed
		p.SendAfter = n.expiry.NextBusinessTime(n.now()).Format(time.RFC3339)
		if err := n.push.Send(ctx, &p); err != nil {
			n.log.Error().Err(err).Str("job_id", intent.JobID).Msg("delayed push delivery failed")
		}
	}
}

func (n *notificationUC) sendSMS(ctx context.Context, intent *model.Intent) {
	msg := n.loc.T(intent.MessageKey, intent.MessageArgs...)
	for _, r := range intent.Recipients {
		if r.Mobile == "" {
			continue
		}
		if err := n.sms.Send(ctx, n.smsFrom, r.Mobile, msg); err != nil {
			n.log.Error().Err(err).Str("to", r.Mobile).Str("job_id", intent.JobID).Msg("sms delivery failed")
		}
	}
}

func (n *notificationUC) sendEmail(ctx context.Context, intent *model.Intent) {
	subject := n.loc.T(intent.Subject, intent.MessageArgs...)
	for _, r := range intent.Recipients {
		if r.Email == "" {
			continue
		}
		if err := n.mailer.Send(ctx, r.Email, r.Name, subject, intent.Template, intent.TemplateData); err != nil {
			n.log.Error().Err(err).Str("to", r.Email).Str("job_id", intent.JobID).Msg("email delivery failed")
		}
	}
}

func (n *notificationUC) FanOutNewJob(ctx context.Context, job *model.Job, excludeTranslatorID string) (int, error) {
	candidates, err := n.matcher.TranslatorsForJob(ctx, job)
	if err != nil {
		return 0, err
	}

	var recipients []model.Recipient
	for _, p := range candidates {
		if p.User.ID == excludeTranslatorID {
			continue
		}
		recipients = append(recipients, model.RecipientFromUser(&p.User))
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	langName := job.FromLanguageID
	if lang, err := n.langs.FindByID(ctx, repository.NoTX, job.FromLanguageID); err == nil {
		langName = lang.Name
	}
	meta, err := n.users.GetMeta(ctx, repository.NoTX, job.CustomerID)
	if err != nil {
		return 0, err
	}

	dueDate := job.Due.Format("2006-01-02")
	dueTime := job.Due.Format("15:04:05")

	pushKey := "push.new_booking"
	pushArgs := []interface{}{langName, job.Duration, dueDate + " " + dueTime}
	if job.Immediate {
		pushKey = "push.new_emergency_booking"
		pushArgs = []interface{}{langName, job.Duration}
	}

	smsKey := "sms.phone_job"
	smsArgs := []interface{}{dueDate, dueTime, job.Duration}
	if job.PhysicalOnly() {
		smsKey = "sms.physical_job"
		smsArgs = []interface{}{job.Town, dueTime, dueDate, job.Duration}
	}

	smsCount := 0
	for _, r := range recipients {
		if r.Mobile != "" {
			smsCount++
		}
	}

	n.Dispatch(ctx, []model.Intent{
		{
			Channel:     model.ChannelPush,
			Type:        model.NotifSuitableJob,
			JobID:       job.ID,
			Immediate:   job.Immediate,
			Recipients:  recipients,
			MessageKey:  pushKey,
			MessageArgs: pushArgs,
			Data:        jobPayload(job, meta).Data(),
		},
		{
			Channel:     model.ChannelSMS,
			Type:        model.NotifSuitableJob,
			JobID:       job.ID,
			Immediate:   job.Immediate,
			Recipients:  recipients,
			MessageKey:  smsKey,
			MessageArgs: smsArgs,
		},
	})
	return smsCount, nil
}

// jobPayload flattens a booking into the push data map attached to
// suitable-job notifications.
func jobPayload(job *model.Job, customerMeta *model.UserMeta) *model.JobPayload {
	return &model.JobPayload{
		JobID:                job.ID,
		FromLanguageID:       job.FromLanguageID,
		Immediate:            job.Immediate,
		Duration:             job.Duration,
		Status:               job.Status,
		Gender:               job.Gender,
		Certified:            job.Certified,
		Due:                  job.Due.Format("2006-01-02 15:04:05"),
		DueDate:              job.Due.Format("2006-01-02"),
		DueTime:              job.Due.Format("15:04:05"),
		JobType:              job.JobType,
		CustomerPhoneType:    job.CustomerPhoneType,
		CustomerPhysicalType: job.CustomerPhysicalType,
		CustomerTown:         job.Town,
		CustomerType:         customerMeta.CustomerType,
		JobFor:               job.JobForDisplay(),
	}
}
