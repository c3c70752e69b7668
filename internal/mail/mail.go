// Package mail sends transactional email: password-reset links and
// access-request decisions. Delivery is best-effort; callers log failures
// and move on, they never fail the request over a mail hiccup.
package mail

import (
	"context"
	"net/mail"
)

// Message is one outbound email.
type Message struct {
	To       mail.Address
	Subject  string
	TextBody string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}
