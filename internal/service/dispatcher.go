package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aiinterface/notifier/internal/email"
	"github.com/aiinterface/notifier/internal/metrics"
)

// SendError reports a provider failure. Its message is the provider's own.
type SendError struct {
	Err error
}

func (e *SendError) Error() string { return e.Err.Error() }

func (e *SendError) Unwrap() error { return e.Err }

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Provider email.Provider
	From     string
	Logger   *slog.Logger
	Metrics  metrics.Recorder
}

// Dispatcher validates, renders and sends notification emails.
type Dispatcher struct {
	provider email.Provider
	from     string
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	return &Dispatcher{
		provider: cfg.Provider,
		from:     cfg.From,
		logger:   cfg.Logger.With("component", "dispatcher"),
		metrics:  cfg.Metrics,
	}
}

// Send renders req and makes a single provider call. Invalid requests
// return an *email.ValidationError without reaching the provider; provider
// failures return a *SendError.
func (d *Dispatcher) Send(ctx context.Context, req *email.Request) (string, error) {
	n, err := req.Notification()
	if err != nil {
		d.metrics.IncEmailDispatch("rejected")
		return "", err
	}

	msg, err := email.Render(n)
	if err != nil {
		d.metrics.IncEmailDispatch("failed")
		return "", fmt.Errorf("render %s email: %w", req.Type, err)
	}

	id, err := d.provider.Send(ctx, &email.Envelope{
		From:    d.from,
		To:      []string{req.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		d.metrics.IncEmailDispatch("failed")
		d.logger.Warn("email provider rejected message", "type", req.Type, "error", err)
		return "", &SendError{Err: err}
	}

	d.metrics.IncEmailDispatch("sent")
	d.logger.Info("email sent", "type", req.Type, "id", id)
	return id, nil
}
