package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"interpreter-booking/internal/domain"
	"interpreter-booking/internal/domain/model"
	"interpreter-booking/internal/domain/ports/repository"
)

func TestCreateBooking_RegularRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addCustomer("c1")

	job, err := f.booking.CreateBooking(ctx, "c1", &model.BookingRequest{
		FromLanguageID: "1",
		DueDate:        "01/01/2099",
		DueTime:        "10:00",
		Duration:       60,
		PhoneType:      true,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if job.Type != model.BookingTypeRegular {
		t.Fatalf("type = %q, want regular", job.Type)
	}
	if job.Due.Year() != 2099 || job.Due.Month() != time.January || job.Due.Day() != 1 || job.Due.Hour() != 10 || job.Due.Minute() != 0 {
		t.Fatalf("due = %v, want 2099-01-01 10:00", job.Due)
	}
	if job.Status != model.StatusPending {
		t.Fatalf("status = %q", job.Status)
	}

	persisted, err := f.jobs.FindByID(ctx, repository.NoTX, job.ID)
	if err != nil {
		t.Fatalf("booking not persisted: %v", err)
	}
	if !persisted.Due.Equal(job.Due) {
		t.Fatalf("persisted due = %v", persisted.Due)
	}
	entries, _ := f.audits.FindByJob(ctx, repository.NoTX, job.ID)
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
}

func TestCreateBooking_PastDueRejected(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addCustomer("c1")

	_, err := f.booking.CreateBooking(ctx, "c1", &model.BookingRequest{
		FromLanguageID: "1",
		DueDate:        "01/01/2020",
		DueTime:        "10:00",
		Duration:       60,
		PhoneType:      true,
	})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("err = %v, want validation failure", err)
	}
	if len(f.jobs.store) != 0 {
		t.Fatalf("job persisted despite rejection: %d", len(f.jobs.store))
	}
}

func TestCreateBooking_MissingFieldsRejected(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addCustomer("c1")

	cases := []struct {
		name string
		req  model.BookingRequest
	}{
		{"missing language", model.BookingRequest{DueDate: "01/01/2099", DueTime: "10:00", Duration: 60, PhoneType: true}},
		{"missing due date", model.BookingRequest{FromLanguageID: "1", DueTime: "10:00", Duration: 60, PhoneType: true}},
		{"missing due time", model.BookingRequest{FromLanguageID: "1", DueDate: "01/01/2099", Duration: 60, PhoneType: true}},
		{"missing duration", model.BookingRequest{FromLanguageID: "1", DueDate: "01/01/2099", DueTime: "10:00", PhoneType: true}},
		{"no contact type", model.BookingRequest{FromLanguageID: "1", DueDate: "01/01/2099", DueTime: "10:00", Duration: 60}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.booking.CreateBooking(ctx, "c1", &tc.req); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("err = %v, want validation failure", err)
			}
		})
	}
}

func TestCreateBooking_TranslatorRoleRefused(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addTranslator("t1", model.UserMeta{}, "1")

	_, err := f.booking.CreateBooking(ctx, "t1", &model.BookingRequest{FromLanguageID: "1", Immediate: true})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("err = %v, want validation failure for translator role", err)
	}
}

func TestCreateBooking_ImmediateGetsGraceWindow(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addCustomer("c1")
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	f.booking.now = func() time.Time { return now }

	job, err := f.booking.CreateBooking(ctx, "c1", &model.BookingRequest{FromLanguageID: "1", Immediate: true})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if job.Type != model.BookingTypeImmediate || !job.Immediate {
		t.Fatalf("job = type %q immediate %v", job.Type, job.Immediate)
	}
	if !job.Due.Equal(now.Add(5 * time.Minute)) {
		t.Fatalf("due = %v, want now+5m", job.Due)
	}
}

func TestCreateBooking_JobForMapping(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addCustomer("c1")

	job, err := f.booking.CreateBooking(ctx, "c1", &model.BookingRequest{
		FromLanguageID: "1",
		DueDate:        "01/01/2099",
		DueTime:        "10:00",
		Duration:       30,
		PhoneType:      true,
		JobFor:         []string{"normal", "certified_in_law"},
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if job.Certified != model.CertifiedNLaw {
		t.Fatalf("certified = %q, want n_law", job.Certified)
	}
	if job.Gender != "" {
		t.Fatalf("gender = %q, want unset", job.Gender)
	}
}

func TestCreateBooking_ConsumerTypeDerivesJobType(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	u := &model.User{ID: "rws1", Type: model.UserTypeCustomer, Email: "rws1@example.com", Name: "RWS", Enabled: true}
	f.users.add(u, &model.UserMeta{ConsumerType: model.ConsumerRWS})

	job, err := f.booking.CreateBooking(ctx, "rws1", &model.BookingRequest{FromLanguageID: "1", Immediate: true})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if job.JobType != model.JobTypeRWS {
		t.Fatalf("job_type = %q, want rws", job.JobType)
	}
}

func TestStoreJobEmail_ConfirmsAndFansOut(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addCustomer("c1")
	f.addTranslator("t1", model.UserMeta{}, "1")
	f.langs.add(&model.Language{ID: "1", Name: "spanska", Active: true})

	job, err := f.booking.CreateBooking(ctx, "c1", &model.BookingRequest{
		FromLanguageID: "1",
		DueDate:        "01/01/2099",
		DueTime:        "10:00",
		Duration:       60,
		PhoneType:      true,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	updated, err := f.booking.StoreJobEmail(ctx, job.ID, &JobEmailInput{Email: "billing@example.com", Reference: "ref-7"})
	if err != nil {
		t.Fatalf("StoreJobEmail: %v", err)
	}
	if updated.CustomerEmail != "billing@example.com" || updated.Reference != "ref-7" {
		t.Fatalf("contact fields not stored: %+v", updated)
	}

	if len(f.mailer.sent) != 1 || f.mailer.sent[0].Template != "job-created" {
		t.Fatalf("confirmation mail = %+v", f.mailer.sent)
	}
	if f.mailer.sent[0].To != "billing@example.com" {
		t.Fatalf("confirmation went to %q, want booking override address", f.mailer.sent[0].To)
	}
	if len(f.bus.events) != 1 || f.bus.events[0].Name != "job.created" {
		t.Fatalf("events = %+v", f.bus.events)
	}
	if len(f.push.sent) != 1 {
		t.Fatalf("fan-out pushes = %d, want 1", len(f.push.sent))
	}
	if len(f.sms.sent) != 1 || f.sms.sent[0].To == "" {
		t.Fatalf("fan-out sms = %+v", f.sms.sent)
	}
}
