// Package email delivers coach-facing notification emails over SMTP.
package email

import "context"

// Sender delivers notification emails.
type Sender interface {
	// SendStageNotice tells the coach a client's pipeline stage changed
	// automatically.
	SendStageNotice(ctx context.Context, toEmail, clientName, fromState, toState string) error
}

// NoopSender is used when SMTP is not configured. Sends succeed silently.
type NoopSender struct{}

// SendStageNotice does nothing.
func (NoopSender) SendStageNotice(context.Context, string, string, string, string) error {
	return nil
}
