package email

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/resend/resend-go/v2"
)

// Envelope is a rendered message addressed to its recipients.
type Envelope struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Provider delivers an envelope and returns the provider's message id.
type Provider interface {
	Send(ctx context.Context, env *Envelope) (string, error)
}

// ResendProvider sends email through the Resend API.
type ResendProvider struct {
	client *resend.Client
}

// NewResendProvider creates a provider authenticated with apiKey.
func NewResendProvider(apiKey string) *ResendProvider {
	return &ResendProvider{client: resend.NewClient(apiKey)}
}

// Send makes exactly one API call. The provider's error is returned as is
// so its message can be surfaced to the caller.
func (p *ResendProvider) Send(ctx context.Context, env *Envelope) (string, error) {
	sent, err := p.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    env.From,
		To:      env.To,
		Subject: env.Subject,
		Html:    env.HTML,
		Text:    env.Text,
	})
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}

// LogProvider writes envelopes to the log instead of sending them.
// Used in development when no API key is configured.
type LogProvider struct {
	logger *slog.Logger
}

// NewLogProvider creates a LogProvider.
func NewLogProvider(logger *slog.Logger) *LogProvider {
	return &LogProvider{logger: logger.With("component", "email.log_provider")}
}

// Send logs the envelope and returns a generated id.
func (p *LogProvider) Send(ctx context.Context, env *Envelope) (string, error) {
	id := ulid.Make().String()
	p.logger.InfoContext(ctx, "email not sent (log provider)",
		"id", id,
		"from", env.From,
		"to", env.To,
		"subject", env.Subject,
		"text_bytes", len(env.Text),
		"html_bytes", len(env.HTML),
	)
	return id, nil
}
