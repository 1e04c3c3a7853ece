package model

// UserType separates the two parties of a booking.
type UserType string

const (
	UserTypeCustomer   UserType = "customer"
	UserTypeTranslator UserType = "translator"
)

// TranslatorType decides which job_type a translator may take.
type TranslatorType string

const (
	TranslatorProfessional TranslatorType = "professional"
	TranslatorRWS          TranslatorType = "rwstranslator"
	TranslatorVolunteer    TranslatorType = "volunteer"
)

// TranslatorLevel is the certification tier recorded on a translator.
type TranslatorLevel string

const (
	LevelCertified       TranslatorLevel = "Certified"
	LevelCertifiedLaw    TranslatorLevel = "Certified with specialisation in law"
	LevelCertifiedHealth TranslatorLevel = "Certified with specialisation in health care"
	LevelLayman          TranslatorLevel = "Layman"
	LevelReadCourses     TranslatorLevel = "Read Translation courses"
)

// ConsumerType is recorded on a customer and decides the job_type of the
// bookings it creates.
type ConsumerType string

const (
	ConsumerRWS ConsumerType = "rwsconsumer"
	ConsumerNGO ConsumerType = "ngo"
)

// User is a read model for both customers and translators. The account
// system owning these rows is an external collaborator; the booking core
// only reads them.
type User struct {
	ID      string
	Type    UserType
	Email   string
	Name    string
	Mobile  string
	Enabled bool
}

func (u *User) IsZero() bool       { return u == nil || u.ID == "" }
func (u *User) Is(t UserType) bool { return u != nil && u.Type == t }
func (u *User) IsTranslator() bool { return u.Is(UserTypeTranslator) }
func (u *User) IsCustomer() bool   { return u.Is(UserTypeCustomer) }

// UserMeta carries the per-user attributes the matching engine and the
// notification dispatcher read: translator qualifications, locality, the
// customer's consumer type, and notification opt-outs.
type UserMeta struct {
	UserID          string
	ConsumerType    ConsumerType
	CustomerType    string
	TranslatorType  TranslatorType
	TranslatorLevel TranslatorLevel
	Gender          Gender
	City            string
	Address         string
	Instructions    string

	NotGetEmergency    bool
	NotGetNighttime    bool
	NotGetNotification bool
}

// TranslatorProfile bundles what the matching engine needs to judge one
// translator: the account row, its meta, and the configured language ids.
type TranslatorProfile struct {
	User        User
	Meta        UserMeta
	LanguageIDs []string
}

func (p *TranslatorProfile) KnowsLanguage(langID string) bool {
	for _, id := range p.LanguageIDs {
		if id == langID {
			return true
		}
	}
	return false
}

// JobTypeForTranslator maps a translator type to the only job_type that
// translator is shown. Unknown types fall back to unpaid work.
func JobTypeForTranslator(t TranslatorType) JobType {
	switch t {
	case TranslatorProfessional:
		return JobTypePaid
	case TranslatorRWS:
		return JobTypeRWS
	case TranslatorVolunteer:
		return JobTypeUnpaid
	default:
		return JobTypeUnpaid
	}
}

// TranslatorTypeForJob is the inverse mapping used when fanning out a job
// to candidate translators.
func TranslatorTypeForJob(t JobType) TranslatorType {
	switch t {
	case JobTypePaid:
		return TranslatorProfessional
	case JobTypeRWS:
		return TranslatorRWS
	default:
		return TranslatorVolunteer
	}
}

// JobTypeForConsumer maps the requesting customer's consumer type to the
// job_type of the bookings it creates (paid by default).
func JobTypeForConsumer(c ConsumerType) JobType {
	switch c {
	case ConsumerRWS:
		return JobTypeRWS
	case ConsumerNGO:
		return JobTypeUnpaid
	default:
		return JobTypePaid
	}
}
