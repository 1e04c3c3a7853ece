package adapter

import "context"

// SMSGateway delivers one text message.
type SMSGateway interface {
	Send(ctx context.Context, from, to, message string) error
}
