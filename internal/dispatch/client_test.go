package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiinterface/notifier/internal/email"
	"github.com/aiinterface/notifier/internal/model"
)

func TestClientSend(t *testing.T) {
	var got email.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/email/send", r.URL.Path)
		assert.Equal(t, "Bearer email-secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"id":"re_42"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/", EmailSecret: "email-secret"})
	id, err := client.Send(context.Background(), &email.Request{
		Type: model.NotificationLowBalance,
		To:   "a@x.com",
		Data: map[string]any{"currentBalance": 2.0},
	})
	require.NoError(t, err)

	assert.Equal(t, "re_42", id)
	assert.Equal(t, model.NotificationLowBalance, got.Type)
	assert.Equal(t, "a@x.com", got.To)
	assert.Equal(t, 2.0, got.Data["currentBalance"])
}

func TestClientSend_RemoteError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"provider_error", http.StatusInternalServerError, `{"error":"domain not verified"}`, "domain not verified"},
		{"unauthorized", http.StatusUnauthorized, `{"error":"Unauthorized"}`, "Unauthorized"},
		{"non_json", http.StatusBadGateway, `<html>bad gateway</html>`, "HTTP 502"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
				_, _ = w.Write([]byte(test.body))
			}))
			defer srv.Close()

			_, err := NewClient(Config{BaseURL: srv.URL}).Send(context.Background(), &email.Request{
				Type: model.NotificationMarketing,
				To:   "a@x.com",
				Data: map[string]any{},
			})

			var remote *RemoteError
			require.True(t, errors.As(err, &remote))
			assert.Equal(t, test.status, remote.StatusCode)
			assert.Equal(t, test.wantMsg, err.Error())
		})
	}
}

func TestClientSend_NoSecretOmitsHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true,"id":"re_1"}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Send(context.Background(), &email.Request{
		Type: model.NotificationMarketing,
		To:   "a@x.com",
		Data: map[string]any{},
	})
	require.NoError(t, err)
}

func TestClientTriggerBalanceCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cron/check-balance", r.URL.Path)
		assert.Equal(t, "Bearer cron-secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"message":"Balance check completed","checked":2,"needingAlerts":1,"sent":0,"errors":["a@x.com: bounced"]}`))
	}))
	defer srv.Close()

	resp, err := NewClient(Config{BaseURL: srv.URL, CronSecret: "cron-secret"}).TriggerBalanceCheck(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Balance check completed", resp.Message)
	require.NotNil(t, resp.Checked)
	assert.Equal(t, 2, *resp.Checked)
	require.NotNil(t, resp.NeedingAlerts)
	assert.Equal(t, 1, *resp.NeedingAlerts)
	assert.Equal(t, []string{"a@x.com: bounced"}, resp.Errors)
}
