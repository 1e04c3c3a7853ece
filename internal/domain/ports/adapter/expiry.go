package adapter

import "time"

// ExpiryPolicy decides how long a pending booking stays open and when
// notifications must be held back.
type ExpiryPolicy interface {
	// WillExpireAt computes the acceptance deadline for a booking created
	// at createdAt and due at due.
	WillExpireAt(due, createdAt time.Time) time.Time

	// IsNightTime reports whether t falls inside the configured quiet
	// window for non-emergency pushes.
	IsNightTime(t time.Time) bool

	// NextBusinessTime returns the earliest moment after t outside the
	// quiet window.
	NextBusinessTime(t time.Time) time.Time
}
