package email

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnvelope() *Envelope {
	return &Envelope{
		From:    "onboarding@resend.dev",
		To:      []string{"ada@example.com"},
		Subject: "Low balance alert - current balance $2.00",
		HTML:    "<p>hi</p>",
		Text:    "hi",
	}
}

func TestLogProvider_Send(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogProvider(slog.New(slog.NewJSONHandler(&buf, nil)))

	id, err := p.Send(context.Background(), testEnvelope())
	require.NoError(t, err)
	assert.Len(t, id, 26)

	out := buf.String()
	assert.Contains(t, out, id)
	assert.Contains(t, out, "ada@example.com")
	assert.NotContains(t, out, "<p>hi</p>")
}

func newResendTestProvider(t *testing.T, handler http.HandlerFunc) *ResendProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)

	p := NewResendProvider("re_test")
	p.client.BaseURL = base
	return p
}

func TestResendProvider_Send(t *testing.T) {
	var got map[string]any
	p := newResendTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"re_msg_1"}`))
	})

	id, err := p.Send(context.Background(), testEnvelope())
	require.NoError(t, err)
	assert.Equal(t, "re_msg_1", id)
	assert.Equal(t, "onboarding@resend.dev", got["from"])
	assert.Equal(t, "Low balance alert - current balance $2.00", got["subject"])
	assert.Equal(t, "hi", got["text"])
}

func TestResendProvider_SendError(t *testing.T) {
	p := newResendTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid to field"}`))
	})

	_, err := p.Send(context.Background(), testEnvelope())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid to field")
}
