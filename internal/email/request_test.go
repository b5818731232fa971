package email

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiinterface/notifier/internal/model"
)

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantMsg string
	}{
		{
			name:    "missing type",
			req:     Request{To: "a@x.com", Data: map[string]any{}},
			wantMsg: "Missing required fields: type, to, data",
		},
		{
			name:    "missing to",
			req:     Request{Type: model.NotificationLowBalance, Data: map[string]any{}},
			wantMsg: "Missing required fields: type, to, data",
		},
		{
			name:    "missing data",
			req:     Request{Type: model.NotificationLowBalance, To: "a@x.com"},
			wantMsg: "Missing required fields: type, to, data",
		},
		{
			name:    "unknown type",
			req:     Request{Type: "unknown_kind", To: "a@x.com", Data: map[string]any{}},
			wantMsg: "Unknown email type: unknown_kind",
		},
		{
			name: "valid",
			req:  Request{Type: model.NotificationMarketing, To: "a@x.com", Data: map[string]any{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantMsg, verr.Message)
		})
	}
}

func TestRequest_Notification_LowBalance(t *testing.T) {
	var req Request
	body := `{"type":"low_balance","to":"a@x.com","data":{"userName":"Ada","currentBalance":2.5,"threshold":"5","topUpUrl":"https://app.test/credits"}}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	n, err := req.Notification()
	require.NoError(t, err)

	lb, ok := n.(*LowBalance)
	require.True(t, ok, "expected *LowBalance, got %T", n)
	assert.Equal(t, "Ada", lb.UserName)
	assert.Equal(t, 2.5, lb.CurrentBalance)
	assert.Equal(t, 5.0, lb.Threshold)
	assert.Equal(t, "https://app.test/credits", lb.TopUpURL)
	assert.Equal(t, "Low balance alert - current balance $2.50", lb.Subject())
}

func TestRequest_Notification_Defaults(t *testing.T) {
	t.Run("low balance", func(t *testing.T) {
		req := Request{Type: model.NotificationLowBalance, To: "a@x.com", Data: map[string]any{}}
		n, err := req.Notification()
		require.NoError(t, err)

		lb := n.(*LowBalance)
		assert.Equal(t, model.DefaultUserName, lb.UserName)
		assert.Equal(t, DefaultTopUpURL, lb.TopUpURL)
		assert.Equal(t, "Low balance alert - current balance $0.00", lb.Subject())
	})

	t.Run("account notification", func(t *testing.T) {
		req := Request{Type: model.NotificationAccountNotification, To: "a@x.com", Data: map[string]any{"message": "hello"}}
		n, err := req.Notification()
		require.NoError(t, err)

		an := n.(*AccountNotice)
		assert.Equal(t, DefaultAccountSubject, an.Subject())
		assert.Equal(t, "hello", an.Message)
		assert.Empty(t, an.ActionURL)
	})

	t.Run("marketing", func(t *testing.T) {
		req := Request{Type: model.NotificationMarketing, To: "a@x.com", Data: map[string]any{"subject": "Spring release"}}
		n, err := req.Notification()
		require.NoError(t, err)

		m := n.(*Marketing)
		assert.Equal(t, "Spring release", m.Subject())
		assert.Equal(t, "Learn more", m.CTAText)
	})
}

func TestNumberField(t *testing.T) {
	data := map[string]any{
		"float":  3.25,
		"int":    4,
		"string": "1.5",
		"number": json.Number("7.75"),
		"bad":    "abc",
		"bool":   true,
	}

	tests := []struct {
		key    string
		want   float64
		wantOK bool
	}{
		{"float", 3.25, true},
		{"int", 4, true},
		{"string", 1.5, true},
		{"number", 7.75, true},
		{"bad", 0, false},
		{"bool", 0, false},
		{"missing", 0, false},
	}

	for _, tt := range tests {
		got, ok := numberField(data, tt.key)
		assert.Equal(t, tt.wantOK, ok, tt.key)
		if tt.wantOK {
			assert.Equal(t, tt.want, got, tt.key)
		}
	}
}
