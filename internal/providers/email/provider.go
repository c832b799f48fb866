package email

import "context"

// Attachment is a file carried with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string, attachments ...Attachment) error
	// Configured reports whether the provider can actually deliver mail.
	// Unconfigured providers make sends degrade to a skip, never a failure.
	Configured() bool
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string, attachments ...Attachment) error {
	return nil
}

func (p *NoOpProvider) Configured() bool { return false }
