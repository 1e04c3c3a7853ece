package adapter

import "context"

// Mailer delivers one templated email. Implementations decide transport;
// the lifecycle only knows the contract.
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, template string, data map[string]interface{}) error
}
