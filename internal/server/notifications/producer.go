// Package notifications delivers account emails (verification links,
// password-reset links, change confirmations) to an external worker through
// a message queue. Delivery is best-effort: the authentication flows never
// fail because a notification could not be queued.
package notifications

import "context"

// Kind identifies which account email is being sent.
type Kind string

const (
	KindEmailVerification Kind = "email_verification"
	KindPasswordReset     Kind = "password_reset"
	KindPasswordChanged   Kind = "password_changed"
)

// Message is one outbound notification. Data carries template variables
// such as the action link; the worker renders the template named by
// TemplateSlug in the given Language.
type Message struct {
	To           string
	TemplateSlug string
	Language     string
	Priority     string
	Data         map[string]string
}

// Producer queues a message for delivery.
type Producer interface {
	Send(ctx context.Context, msg Message) error
}
