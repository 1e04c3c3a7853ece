package model

import "strconv"

// NotificationType names the contextual kind of an outbound message; the
// push gateway also receives it in the payload data.
type NotificationType string

const (
	NotifSuitableJob        NotificationType = "suitable_job"
	NotifJobAccepted        NotificationType = "job_accepted"
	NotifJobCancelled       NotificationType = "job_cancelled"
	NotifJobExpired         NotificationType = "job_expired"
	NotifSessionStartRemind NotificationType = "session_start_remind"
)

// Channel is the delivery mechanism of an intent.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Recipient identifies one addressee of an intent.
type Recipient struct {
	UserID string
	Email  string
	Name   string
	Mobile string
}

func RecipientFromUser(u *User) Recipient {
	return Recipient{UserID: u.ID, Email: u.Email, Name: u.Name, Mobile: u.Mobile}
}

// Intent is an outbound notification produced by a lifecycle operation and
// executed by the dispatcher strictly after the state change committed.
// Delivery is best-effort; failures never surface to the lifecycle caller.
type Intent struct {
	Channel    Channel
	Type       NotificationType
	JobID      string
	Immediate  bool
	Recipients []Recipient

	// MessageKey/MessageArgs select and fill the localized body for push
	// and SMS intents.
	MessageKey  string
	MessageArgs []interface{}

	// Push payload data forwarded to the gateway alongside the body.
	Data map[string]string

	// Email-only fields.
	Subject      string
	Template     string
	TemplateData map[string]interface{}
}

// JobPayload is the flattened job description attached to "new job" pushes
// so the client app can render the booking without a fetch.
type JobPayload struct {
	JobID                string
	FromLanguageID       string
	Immediate            bool
	Duration             int
	Status               JobStatus
	Gender               Gender
	Certified            Certified
	Due                  string
	DueDate              string
	DueTime              string
	JobType              JobType
	CustomerPhoneType    bool
	CustomerPhysicalType bool
	CustomerTown         string
	CustomerType         string
	JobFor               []string
}

// Data flattens the payload into the string map the push gateway carries.
func (p *JobPayload) Data() map[string]string {
	m := map[string]string{
		"job_id":                 p.JobID,
		"from_language_id":       p.FromLanguageID,
		"immediate":              yesNo(p.Immediate),
		"duration":               strconv.Itoa(p.Duration),
		"status":                 string(p.Status),
		"gender":                 string(p.Gender),
		"certified":              string(p.Certified),
		"due":                    p.Due,
		"due_date":               p.DueDate,
		"due_time":               p.DueTime,
		"job_type":               string(p.JobType),
		"customer_phone_type":    yesNo(p.CustomerPhoneType),
		"customer_physical_type": yesNo(p.CustomerPhysicalType),
		"customer_town":          p.CustomerTown,
		"customer_type":          p.CustomerType,
	}
	for i, jf := range p.JobFor {
		m["job_for_"+strconv.Itoa(i)] = jf
	}
	return m
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
