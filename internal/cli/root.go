// Package cli implements notifyctl, the operator CLI for the notifier API.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aiinterface/notifier/internal/config"
	"github.com/aiinterface/notifier/internal/dispatch"
)

// Version is set at build time via ldflags.
var Version = "dev"

// options are the persistent flags shared by every command.
type options struct {
	url     string
	timeout time.Duration
	asJSON  bool
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree. Flags default to the NOTIFIER_URL,
// NOTIFIER_TIMEOUT, CRON_SECRET and EMAIL_API_SECRET environment.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "notifyctl",
		Short: "Operate the low-balance notifier",
		Long: `notifyctl talks to a running notifier API. It can trigger a balance check
the way the scheduler does and send a single notification email.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.url, "url", "", "notifier API root (default $NOTIFIER_URL or http://localhost:8080)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "request timeout (default $NOTIFIER_TIMEOUT or 5m)")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print raw JSON responses")

	rootCmd.AddCommand(
		newCheckBalanceCmd(opts),
		newSendCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// newClient resolves flags over environment and builds an API client.
func newClient(opts *options) (*dispatch.Client, time.Duration, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, 0, err
	}
	if opts.url != "" {
		cfg.URL = opts.url
	}
	if opts.timeout > 0 {
		cfg.Timeout = opts.timeout
	}

	// A balance check holds the response until every email is sent.
	httpClient := dispatch.NewHTTPClient()
	httpClient.Timeout = cfg.Timeout
	if t, ok := httpClient.Transport.(*http.Transport); ok {
		t.ResponseHeaderTimeout = cfg.Timeout
	}

	client := dispatch.NewClient(dispatch.Config{
		BaseURL:     cfg.URL,
		EmailSecret: cfg.EmailAPISecret,
		CronSecret:  cfg.CronSecret,
		HTTPClient:  httpClient,
	})
	return client, cfg.Timeout, nil
}

func withTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
