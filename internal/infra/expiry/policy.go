package expiry

import (
	"time"

	"interpreter-booking/internal/config"
	"interpreter-booking/internal/domain/ports/adapter"
)

// Policy computes acceptance deadlines and the night-time quiet window.
type Policy struct {
	nightStartHour int
	nightEndHour   int
}

var _ adapter.ExpiryPolicy = (*Policy)(nil)

func NewPolicy(cfg config.BookingConfig) *Policy {
	return &Policy{
		nightStartHour: cfg.NightStartHour,
		nightEndHour:   cfg.NightEndHour,
	}
}

// WillExpireAt picks the acceptance deadline from the lead time between
// creation and due date. Short-lead bookings stay open until due; long-lead
// bookings close well before, so the customer has time to rebook.
func (p *Policy) WillExpireAt(due, createdAt time.Time) time.Time {
	lead := due.Sub(createdAt)
	switch {
	case lead <= 90*time.Minute:
		return due
	case lead <= 24*time.Hour:
		return createdAt.Add(90 * time.Minute)
	case lead <= 72*time.Hour:
		return createdAt.Add(16 * time.Hour)
	default:
		return due.Add(-48 * time.Hour)
	}
}

// IsNightTime reports whether t falls inside the quiet window. The window
// wraps midnight, e.g. 21 to 9.
func (p *Policy) IsNightTime(t time.Time) bool {
	h := t.Hour()
	if p.nightStartHour > p.nightEndHour {
		return h >= p.nightStartHour || h < p.nightEndHour
	}
	return h >= p.nightStartHour && h < p.nightEndHour
}

// NextBusinessTime returns t unchanged outside the quiet window, otherwise
// the next morning at the window's end hour.
func (p *Policy) NextBusinessTime(t time.Time) time.Time {
	if !p.IsNightTime(t) {
		return t
	}
	next := time.Date(t.Year(), t.Month(), t.Day(), p.nightEndHour, 0, 0, 0, t.Location())
	if !next.After(t) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
