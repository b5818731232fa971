// Package dispatch is the HTTP client for the notifier's own endpoints.
// The balance scanner uses it to reach the email dispatcher, and the CLI
// uses it to trigger runs.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aiinterface/notifier/internal/email"
	"github.com/aiinterface/notifier/internal/handler/dto"
)

const (
	// ClientTimeout is the total request timeout.
	ClientTimeout = 30 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 15 * time.Second

	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 64 * 1024

	sendEmailPath    = "/email/send"
	checkBalancePath = "/cron/check-balance"
)

// RemoteError is a non-2xx response from the notifier API.
// Error returns the server's message so it can be reported verbatim.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return e.Message
}

// Config configures a Client.
type Config struct {
	// BaseURL is the notifier API root, e.g. http://localhost:8080.
	BaseURL string
	// EmailSecret authorizes POST /email/send.
	EmailSecret string
	// CronSecret authorizes POST /cron/check-balance.
	CronSecret string
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Client calls the notifier API.
type Client struct {
	baseURL     string
	emailSecret string
	cronSecret  string
	http        *http.Client
}

// NewClient creates a Client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		emailSecret: cfg.EmailSecret,
		cronSecret:  cfg.CronSecret,
		http:        httpClient,
	}
}

// NewHTTPClient creates an HTTP client with conservative timeouts that does
// not follow redirects.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Send posts req to the email dispatcher and returns the provider message id.
// It makes a single attempt.
func (c *Client) Send(ctx context.Context, req *email.Request) (string, error) {
	var out dto.SendEmailResponse
	if err := c.post(ctx, sendEmailPath, c.emailSecret, req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// TriggerBalanceCheck runs one balance check on the server.
func (c *Client) TriggerBalanceCheck(ctx context.Context) (*dto.CheckBalanceResponse, error) {
	var out dto.CheckBalanceResponse
	if err := c.post(ctx, checkBalancePath, c.cronSecret, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path, secret string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Notifier-Client/1.0")
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody dto.ErrorResponse
		_ = json.Unmarshal(raw, &errBody)
		return &RemoteError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
