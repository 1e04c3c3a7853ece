package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"interpreter-booking/internal/domain/model"
)

func TestDispatch_PushOptOuts(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addTranslator("silent", model.UserMeta{NotGetNotification: true}, "1")
	f.addTranslator("no-emergency", model.UserMeta{NotGetEmergency: true}, "1")
	f.addTranslator("normal", model.UserMeta{}, "1")

	f.dispatcher.Dispatch(ctx, []model.Intent{{
		Channel:   model.ChannelPush,
		Type:      model.NotifSuitableJob,
		JobID:     "j1",
		Immediate: true,
		Recipients: []model.Recipient{
			{UserID: "silent", Email: "silent@example.com"},
			{UserID: "no-emergency", Email: "no-emergency@example.com"},
			{UserID: "normal", Email: "normal@example.com"},
		},
		MessageKey: "push.new_emergency_booking",
	}})

	if len(f.push.sent) != 1 {
		t.Fatalf("payloads = %d, want 1", len(f.push.sent))
	}
	p := f.push.sent[0]
	if len(p.Emails) != 1 || p.Emails[0] != "normal@example.com" {
		t.Fatalf("recipients = %v, want only the unrestricted translator", p.Emails)
	}
	if !p.Emergency {
		t.Fatal("immediate suitable-job push must be flagged emergency")
	}
}

func TestDispatch_NonEmergencyIgnoresEmergencyOptOut(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addTranslator("no-emergency", model.UserMeta{NotGetEmergency: true}, "1")

	f.dispatcher.Dispatch(ctx, []model.Intent{{
		Channel:    model.ChannelPush,
		Type:       model.NotifSuitableJob,
		JobID:      "j1",
		Recipients: []model.Recipient{{UserID: "no-emergency", Email: "no-emergency@example.com"}},
		MessageKey: "push.new_booking",
	}})

	if len(f.push.sent) != 1 || f.push.sent[0].Emergency {
		t.Fatalf("scheduled-job push = %+v, want normal delivery", f.push.sent)
	}
}

func TestDispatch_NightTimeDelaysOptedInRecipients(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.expiry.night = true
	f.addTranslator("day-only", model.UserMeta{NotGetNighttime: true}, "1")
	f.addTranslator("anytime", model.UserMeta{}, "1")

	f.dispatcher.Dispatch(ctx, []model.Intent{{
		Channel: model.ChannelPush,
		Type:    model.NotifSuitableJob,
		JobID:   "j1",
		Recipients: []model.Recipient{
			{UserID: "day-only", Email: "day-only@example.com"},
			{UserID: "anytime", Email: "anytime@example.com"},
		},
		MessageKey: "push.new_booking",
	}})

	if len(f.push.sent) != 2 {
		t.Fatalf("payloads = %d, want immediate + delayed", len(f.push.sent))
	}
	var immediate, delayed *adapterPushIndex
	for i := range f.push.sent {
		p := &f.push.sent[i]
		if p.SendAfter == "" {
			immediate = &adapterPushIndex{emails: p.Emails}
		} else {
			delayed = &adapterPushIndex{emails: p.Emails, sendAfter: p.SendAfter}
		}
	}
	if immediate == nil || len(immediate.emails) != 1 || immediate.emails[0] != "anytime@example.com" {
		t.Fatalf("immediate group = %+v", immediate)
	}
	if delayed == nil || len(delayed.emails) != 1 || delayed.emails[0] != "day-only@example.com" {
		t.Fatalf("delayed group = %+v", delayed)
	}
}

type adapterPushIndex struct {
	emails    []string
	sendAfter string
}

func TestFanOutNewJob_TemplatesAndCount(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addCustomer("c1")
	f.addTranslator("t1", model.UserMeta{City: "Malmö"}, "1")
	f.addTranslator("t2", model.UserMeta{City: "Malmö"}, "1")
	f.langs.add(&model.Language{ID: "1", Name: "polska", Active: true})

	physical := f.addJob(&model.Job{
		ID:                   uuid.NewString(),
		CustomerID:           "c1",
		Status:               model.StatusPending,
		JobType:              model.JobTypePaid,
		FromLanguageID:       "1",
		Duration:             45,
		Due:                  time.Now().Add(48 * time.Hour),
		CustomerPhysicalType: true,
		Town:                 "Malmö",
		CreatedAt:            time.Now(),
	})

	count, err := f.dispatcher.FanOutNewJob(ctx, physical, "")
	if err != nil {
		t.Fatalf("FanOutNewJob: %v", err)
	}
	if count != 2 {
		t.Fatalf("sms count = %d, want 2", count)
	}
	if len(f.push.sent) != 1 || len(f.push.sent[0].Emails) != 2 {
		t.Fatalf("push fan-out = %+v", f.push.sent)
	}
	if !strings.Contains(f.push.sent[0].Body, "polska") {
		t.Fatalf("push body misses language name: %q", f.push.sent[0].Body)
	}
	if f.push.sent[0].Data["notification_type"] != "suitable_job" {
		t.Fatalf("payload data = %v", f.push.sent[0].Data)
	}
	if len(f.sms.sent) != 2 || !strings.HasPrefix(f.sms.sent[0].Body, "sms.physical_job") {
		t.Fatalf("sms = %+v, want physical template", f.sms.sent)
	}
}

func TestFanOutNewJob_PhoneTemplateAndExclusion(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addCustomer("c1")
	f.addTranslator("t1", model.UserMeta{}, "1")
	f.addTranslator("t2", model.UserMeta{}, "1")

	phone := f.addJob(&model.Job{
		ID:                uuid.NewString(),
		CustomerID:        "c1",
		Status:            model.StatusPending,
		JobType:           model.JobTypePaid,
		FromLanguageID:    "1",
		Duration:          30,
		Due:               time.Now().Add(24 * time.Hour),
		CustomerPhoneType: true,
		CreatedAt:         time.Now(),
	})

	count, err := f.dispatcher.FanOutNewJob(ctx, phone, "t1")
	if err != nil {
		t.Fatalf("FanOutNewJob: %v", err)
	}
	if count != 1 {
		t.Fatalf("sms count = %d, want 1 after exclusion", count)
	}
	if len(f.push.sent) != 1 || len(f.push.sent[0].Emails) != 1 || f.push.sent[0].Emails[0] != "t2@example.com" {
		t.Fatalf("push recipients = %+v", f.push.sent)
	}
	if len(f.sms.sent) != 1 || !strings.HasPrefix(f.sms.sent[0].Body, "sms.phone_job") {
		t.Fatalf("sms = %+v, want phone template", f.sms.sent)
	}
}

func TestFanOutNewJob_EmergencyUsesEmergencyKey(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addCustomer("c1")
	f.addTranslator("t1", model.UserMeta{}, "1")

	urgent := f.addJob(&model.Job{
		ID:                uuid.NewString(),
		CustomerID:        "c1",
		Status:            model.StatusPending,
		JobType:           model.JobTypePaid,
		FromLanguageID:    "1",
		Immediate:         true,
		Duration:          30,
		Due:               time.Now().Add(5 * time.Minute),
		CustomerPhoneType: true,
		CreatedAt:         time.Now(),
	})

	if _, err := f.dispatcher.FanOutNewJob(ctx, urgent, ""); err != nil {
		t.Fatalf("FanOutNewJob: %v", err)
	}
	if len(f.push.sent) != 1 {
		t.Fatalf("pushes = %d", len(f.push.sent))
	}
	if !strings.HasPrefix(f.push.sent[0].Body, "push.new_emergency_booking") {
		t.Fatalf("body = %q", f.push.sent[0].Body)
	}
	if !f.push.sent[0].Emergency {
		t.Fatal("emergency payload flag not set")
	}
}

func TestDispatch_EmailUsesContactAddress(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.dispatcher.Dispatch(ctx, []model.Intent{{
		Channel:    model.ChannelEmail,
		Type:       model.NotifJobAccepted,
		JobID:      "j1",
		Recipients: []model.Recipient{{UserID: "c1", Email: "billing@example.com", Name: "Billing"}},
		Subject:    "email.subject.job_accepted",
		Template:   "job-accepted",
	}})

	if len(f.mailer.sent) != 1 {
		t.Fatalf("mails = %d", len(f.mailer.sent))
	}
	m := f.mailer.sent[0]
	if m.To != "billing@example.com" || m.Template != "job-accepted" {
		t.Fatalf("mail = %+v", m)
	}
	if !strings.HasPrefix(m.Subject, "email.subject.job_accepted") {
		t.Fatalf("subject = %q", m.Subject)
	}
}
