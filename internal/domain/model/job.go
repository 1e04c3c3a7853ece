package model

import (
	"fmt"
	"time"

	"interpreter-booking/internal/domain"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a booking. Transitions happen only
// through the lifecycle use case.
type JobStatus string

const (
	StatusPending               JobStatus = "pending"
	StatusAssigned              JobStatus = "assigned"
	StatusStarted               JobStatus = "started"
	StatusCompleted             JobStatus = "completed"
	StatusWithdrawBefore24      JobStatus = "withdrawbefore24"
	StatusWithdrawAfter24       JobStatus = "withdrawafter24"
	StatusTimedOut              JobStatus = "timedout"
	StatusNotCarriedOutCustomer JobStatus = "not_carried_out_customer"
)

// JobType ties a booking to the translator population allowed to take it.
type JobType string

const (
	JobTypePaid   JobType = "paid"
	JobTypeUnpaid JobType = "unpaid"
	JobTypeRWS    JobType = "rws"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Certified is the certification requirement carried by a job.
type Certified string

const (
	CertifiedNormal  Certified = "normal"
	CertifiedYes     Certified = "yes"
	CertifiedBoth    Certified = "both"
	CertifiedLaw     Certified = "law"
	CertifiedNLaw    Certified = "n_law"
	CertifiedHealth  Certified = "health"
	CertifiedNHealth Certified = "n_health"
)

const (
	BookingTypeImmediate = "immediate"
	BookingTypeRegular   = "regular"
)

// Job is a request for interpretation. Terminal rows are retained for
// history, never deleted.
type Job struct {
	ID             string
	CustomerID     string
	CustomerEmail  string // overrides the account email when set
	Status         JobStatus
	Type           string // immediate | regular
	JobType        JobType
	FromLanguageID string
	Immediate      bool
	Duration       int // minutes
	Gender         Gender    // empty = no preference
	Certified      Certified // empty = no requirement
	Due            time.Time

	CustomerPhoneType    bool
	CustomerPhysicalType bool
	Town                 string
	Address              string
	Instructions         string

	AdminComments string
	Reference     string

	// Jobs can be administratively earmarked for one translator.
	ForTranslatorID string

	Ignore          bool
	IgnoreExpired   bool
	Flagged         bool
	ManuallyHandled bool
	ByAdmin         bool

	WillExpireAt time.Time
	SessionTime  string // h:mm:ss wall-clock session length
	EndAt        *time.Time
	WithdrawAt   *time.Time

	// Reminders already dispatched for this booking.
	Remind16hSent     bool
	Remind48hSent     bool
	SessionRemindSent bool

	CreatedAt time.Time
}

// IsTerminal reports whether the status ends the normal flow. Terminal jobs
// can still be administratively reopened, which starts a fresh lifecycle.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusWithdrawBefore24, StatusNotCarriedOutCustomer:
		return true
	}
	return false
}

// PhysicalOnly reports whether the booking requires on-site presence and
// offers no phone fallback. Phone wins when both flags are set.
func (j *Job) PhysicalOnly() bool {
	return j.CustomerPhysicalType && !j.CustomerPhoneType
}

// ContactEmail returns the booking-specific email when one was attached,
// falling back to the customer's account email.
func (j *Job) ContactEmail(customer *User) string {
	if j.CustomerEmail != "" {
		return j.CustomerEmail
	}
	return customer.Email
}

// Clone returns a copy of the job under a fresh id, used when reopening a
// timed-out booking into a new lifecycle.
func (j *Job) Clone(now time.Time) *Job {
	c := *j
	c.ID = uuid.NewString()
	c.Status = StatusPending
	c.CreatedAt = now
	c.Remind16hSent = false
	c.Remind48hSent = false
	c.SessionRemindSent = false
	c.AdminComments = fmt.Sprintf("This booking is a reopening of booking #%s", j.ID)
	return &c
}

// RequiredTranslatorLevels maps the job's certification requirement to the
// translator levels allowed to take it. An empty or unknown requirement
// admits every level.
func RequiredTranslatorLevels(c Certified) []TranslatorLevel {
	switch c {
	case CertifiedYes, CertifiedBoth:
		return []TranslatorLevel{LevelCertified, LevelCertifiedLaw, LevelCertifiedHealth}
	case CertifiedLaw, CertifiedNLaw:
		return []TranslatorLevel{LevelCertifiedLaw}
	case CertifiedHealth, CertifiedNHealth:
		return []TranslatorLevel{LevelCertifiedHealth}
	case CertifiedNormal:
		return []TranslatorLevel{LevelLayman, LevelReadCourses}
	default:
		return []TranslatorLevel{LevelCertified, LevelCertifiedLaw, LevelCertifiedHealth, LevelLayman, LevelReadCourses}
	}
}

// LevelAcceptable reports whether a translator of the given level may take
// a job with the given certification requirement.
func LevelAcceptable(c Certified, level TranslatorLevel) bool {
	for _, l := range RequiredTranslatorLevels(c) {
		if l == level {
			return true
		}
	}
	return false
}

// BookingRequest is the raw creation input, normalized by Build. Booleans
// arrive as presence flags the way the intake forms submit them.
type BookingRequest struct {
	FromLanguageID string
	Immediate      bool
	DueDate        string // 01/02/2006
	DueTime        string // 15:04
	Duration       int
	JobFor         []string // male/female/normal/certified/certified_in_law/certified_in_helth
	PhoneType      bool
	PhysicalType   bool
	Town           string
	Reference      string
	ByAdmin        bool
}

const dueDateLayout = "01/02/2006 15:04"

// Build validates the request and produces a pending Job for the given
// customer. WillExpireAt is left to the caller, which owns the expiry
// policy collaborator. immediateGrace is the scheduling window granted to
// immediate bookings.
func (r *BookingRequest) Build(customer *User, meta *UserMeta, now time.Time, immediateGrace time.Duration) (*Job, error) {
	if customer.IsZero() || meta == nil {
		return nil, domain.ErrInvalidArgument
	}
	if r.FromLanguageID == "" {
		return nil, &domain.ValidationError{Field: "from_language_id"}
	}

	job := &Job{
		ID:                   uuid.NewString(),
		CustomerID:           customer.ID,
		Status:               StatusPending,
		FromLanguageID:       r.FromLanguageID,
		Immediate:            r.Immediate,
		Duration:             r.Duration,
		CustomerPhoneType:    r.PhoneType,
		CustomerPhysicalType: r.PhysicalType,
		Town:                 r.Town,
		Reference:            r.Reference,
		ByAdmin:              r.ByAdmin,
		JobType:              JobTypeForConsumer(meta.ConsumerType),
		CreatedAt:            now,
	}
	if job.Town == "" {
		job.Town = meta.City
	}

	if r.Immediate {
		job.Due = now.Add(immediateGrace)
		job.Type = BookingTypeImmediate
	} else {
		if r.DueDate == "" {
			return nil, &domain.ValidationError{Field: "due_date"}
		}
		if r.DueTime == "" {
			return nil, &domain.ValidationError{Field: "due_time"}
		}
		if r.Duration <= 0 {
			return nil, &domain.ValidationError{Field: "duration"}
		}
		if !r.PhoneType && !r.PhysicalType {
			return nil, &domain.ValidationError{Field: "customer_phone_type", Reason: "either phone or physical type must be chosen"}
		}
		due, err := time.ParseInLocation(dueDateLayout, r.DueDate+" "+r.DueTime, now.Location())
		if err != nil {
			return nil, &domain.ValidationError{Field: "due_date", Reason: "unparseable date/time"}
		}
		if !due.After(now) {
			return nil, &domain.ValidationError{Field: "due_date", Reason: "booking cannot be created in the past"}
		}
		job.Due = due
		job.Type = BookingTypeRegular
	}

	job.Gender, job.Certified = genderAndCertification(r.JobFor)
	return job, nil
}

// genderAndCertification derives the gender preference and certification
// requirement from the multi-select job_for list, including the combined
// normal+certified variants.
func genderAndCertification(jobFor []string) (Gender, Certified) {
	var gender Gender
	var certified Certified

	has := func(v string) bool {
		for _, s := range jobFor {
			if s == v {
				return true
			}
		}
		return false
	}

	switch {
	case has("male"):
		gender = GenderMale
	case has("female"):
		gender = GenderFemale
	}

	switch {
	case has("normal"):
		certified = CertifiedNormal
	case has("certified"):
		certified = CertifiedYes
	case has("certified_in_law"):
		certified = CertifiedLaw
	case has("certified_in_helth"):
		certified = CertifiedHealth
	}

	switch {
	case has("normal") && has("certified"):
		certified = CertifiedBoth
	case has("normal") && has("certified_in_law"):
		certified = CertifiedNLaw
	case has("normal") && has("certified_in_helth"):
		certified = CertifiedNHealth
	}

	return gender, certified
}

// JobForDisplay renders the job_for list shown to customers and carried in
// push payloads.
func (j *Job) JobForDisplay() []string {
	var out []string
	switch j.Gender {
	case GenderMale:
		out = append(out, "Man")
	case GenderFemale:
		out = append(out, "Kvinna")
	}
	switch j.Certified {
	case CertifiedBoth:
		out = append(out, "Godkänd tolk", "Auktoriserad")
	case CertifiedYes:
		out = append(out, "Auktoriserad")
	case CertifiedNHealth, CertifiedHealth:
		out = append(out, "Sjukvårdstolk")
	case CertifiedLaw, CertifiedNLaw:
		out = append(out, "Rätttstolk")
	case "":
	default:
		out = append(out, string(j.Certified))
	}
	return out
}
