// Package email renders notification emails and hands them to a
// transactional email provider.
package email

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aiinterface/notifier/internal/model"
)

// ErrInvalidRequest is wrapped by every ValidationError.
var ErrInvalidRequest = errors.New("invalid email request")

// ValidationError is returned for requests that are rejected before rendering.
// Message is safe to return to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// Request is the wire shape accepted by POST /email/send.
type Request struct {
	Type model.NotificationType `json:"type"`
	To   string                 `json:"to"`
	Data map[string]any         `json:"data"`
}

// Validate checks that type, to and data are present and that type is known.
func (r *Request) Validate() error {
	if r.Type == "" || r.To == "" || r.Data == nil {
		return &ValidationError{Message: "Missing required fields: type, to, data"}
	}
	if !model.IsValidNotificationType(r.Type) {
		return &ValidationError{Message: fmt.Sprintf("Unknown email type: %s", r.Type)}
	}
	return nil
}

// Notification converts the free-form data bag into the typed notification
// for r.Type.
func (r *Request) Notification() (Notification, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	switch r.Type {
	case model.NotificationLowBalance:
		balance, _ := numberField(r.Data, "currentBalance")
		threshold, _ := numberField(r.Data, "threshold")
		return &LowBalance{
			UserName:       stringField(r.Data, "userName", model.DefaultUserName),
			CurrentBalance: balance,
			Threshold:      threshold,
			TopUpURL:       stringField(r.Data, "topUpUrl", DefaultTopUpURL),
		}, nil
	case model.NotificationAccountNotification:
		return &AccountNotice{
			UserName:   stringField(r.Data, "userName", model.DefaultUserName),
			Title:      stringField(r.Data, "subject", DefaultAccountSubject),
			Message:    stringField(r.Data, "message", "There is an important update to your account."),
			ActionURL:  stringField(r.Data, "actionUrl", ""),
			ActionText: stringField(r.Data, "actionText", "View details"),
		}, nil
	case model.NotificationMarketing:
		return &Marketing{
			UserName:    stringField(r.Data, "userName", model.DefaultUserName),
			Title:       stringField(r.Data, "subject", DefaultMarketingSubject),
			PreviewText: stringField(r.Data, "previewText", "See our latest features and updates"),
			Content:     stringField(r.Data, "content", "We have some exciting new features to share with you!"),
			CTAURL:      stringField(r.Data, "ctaUrl", ""),
			CTAText:     stringField(r.Data, "ctaText", "Learn more"),
		}, nil
	}

	return nil, &ValidationError{Message: fmt.Sprintf("Unknown email type: %s", r.Type)}
}

// stringField returns data[key] if it is a non-empty string, else fallback.
func stringField(data map[string]any, key, fallback string) string {
	if s, ok := data[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// numberField reads a numeric value that may have been encoded as a JSON
// number or as a numeric string.
func numberField(data map[string]any, key string) (float64, bool) {
	switch v := data[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}
