package adapter

import "context"

// PushPayload is one batched push delivery. Recipients are addressed by
// account email; the gateway resolves devices.
type PushPayload struct {
	Emails    []string
	Title     string
	Body      string
	Data      map[string]string
	Emergency bool

	// SendAfter delays delivery, used for night-time suppression. Empty
	// means deliver now.
	SendAfter string
}

// PushGateway delivers mobile push notifications.
type PushGateway interface {
	Send(ctx context.Context, p *PushPayload) error
}
