// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/aiinterface/notifier/internal/email"
	"github.com/aiinterface/notifier/internal/metrics"
	"github.com/aiinterface/notifier/internal/model"
)

// ErrRunInProgress is returned when another balance check holds the run lease.
var ErrRunInProgress = errors.New("balance check already running")

const (
	// DefaultDedupWindow suppresses a repeat low-balance alert for this long.
	DefaultDedupWindow = 24 * time.Hour
	// DefaultLeaseTTL bounds how long a crashed run can block the next one.
	DefaultLeaseTTL = 10 * time.Minute

	balanceCheckLease = "check-balance"
	topUpPath         = "/credits"
	logAppendTimeout  = 10 * time.Second
)

// BalanceStore is the data access needed by the scanner.
type BalanceStore interface {
	ListAlertPreferences(ctx context.Context) ([]*model.Preference, error)
	ListCreditsByUserIDs(ctx context.Context, userIDs []string) ([]*model.Credit, error)
	ListProfilesByIDs(ctx context.Context, ids []string) ([]*model.Profile, error)
	ListNotificationsSince(ctx context.Context, typ model.NotificationType, userIDs []string, since time.Time) ([]*model.NotificationLog, error)
	CreateNotificationLog(ctx context.Context, entry *model.NotificationLog) error
}

// Notifier delivers a single email request.
type Notifier interface {
	Send(ctx context.Context, req *email.Request) (string, error)
}

// RunLocker grants a short-lived exclusive lease.
type RunLocker interface {
	AcquireLease(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, name, token string) error
}

// BalanceScannerConfig configures a BalanceScanner.
type BalanceScannerConfig struct {
	Store    BalanceStore
	Notifier Notifier
	// Locker is optional. Without it overlapping runs are not prevented.
	Locker RunLocker

	// BaseURL is the public app URL used to build the top-up link.
	BaseURL     string
	DedupWindow time.Duration
	LeaseTTL    time.Duration

	Logger  *slog.Logger
	Metrics metrics.Recorder
	Now     func() time.Time
}

// ScanResult summarizes one balance check run.
type ScanResult struct {
	RunID         string
	Checked       int
	NeedingAlerts int
	Sent          int
	Errors        []string
}

// NoCandidates reports whether the run found nobody with alerts enabled.
func (r *ScanResult) NoCandidates() bool {
	return r.Checked == 0
}

// lowBalanceUser is a candidate whose balance is under their threshold.
type lowBalanceUser struct {
	userID    string
	email     string
	userName  string
	balance   decimal.Decimal
	threshold decimal.Decimal
}

// BalanceScanner finds users whose balance fell under their alert threshold
// and requests a low-balance email for each of them.
type BalanceScanner struct {
	store       BalanceStore
	notifier    Notifier
	locker      RunLocker
	topUpURL    string
	dedupWindow time.Duration
	leaseTTL    time.Duration
	logger      *slog.Logger
	metrics     metrics.Recorder
	now         func() time.Time
}

// NewBalanceScanner creates a BalanceScanner, applying defaults for unset fields.
func NewBalanceScanner(cfg BalanceScannerConfig) *BalanceScanner {
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = DefaultDedupWindow
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = DefaultLeaseTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &BalanceScanner{
		store:       cfg.Store,
		notifier:    cfg.Notifier,
		locker:      cfg.Locker,
		topUpURL:    strings.TrimSuffix(cfg.BaseURL, "/") + topUpPath,
		dedupWindow: cfg.DedupWindow,
		leaseTTL:    cfg.LeaseTTL,
		logger:      cfg.Logger.With("component", "balance_scanner"),
		metrics:     cfg.Metrics,
		now:         cfg.Now,
	}
}

// Run performs one balance check. Fetch failures abort the run and are
// returned; per-user send failures are collected in ScanResult.Errors.
func (s *BalanceScanner) Run(ctx context.Context) (*ScanResult, error) {
	runID := ulid.Make().String()
	logger := s.logger.With("run_id", runID)
	start := time.Now()

	if s.locker != nil {
		acquired, err := s.locker.AcquireLease(ctx, balanceCheckLease, runID, s.leaseTTL)
		switch {
		case err != nil:
			logger.Warn("run lease unavailable, continuing without it", "error", err)
		case !acquired:
			s.metrics.IncBalanceCheckRun("locked")
			logger.Warn("balance check skipped, another run holds the lease")
			return nil, ErrRunInProgress
		default:
			defer func() {
				if err := s.locker.ReleaseLease(context.WithoutCancel(ctx), balanceCheckLease, runID); err != nil {
					logger.Warn("failed to release run lease", "error", err)
				}
			}()
		}
	}

	result, err := s.scan(ctx, runID, logger)
	s.metrics.ObserveBalanceCheckDuration(time.Since(start))
	if err != nil {
		s.metrics.IncBalanceCheckRun("failed")
		logger.Error("balance check failed", "error", err)
		return nil, err
	}

	s.metrics.IncBalanceCheckRun("completed")
	logger.Info("balance check completed",
		"checked", result.Checked,
		"needing_alerts", result.NeedingAlerts,
		"sent", result.Sent,
		"errors", len(result.Errors),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

func (s *BalanceScanner) scan(ctx context.Context, runID string, logger *slog.Logger) (*ScanResult, error) {
	now := s.now()
	result := &ScanResult{RunID: runID}

	prefs, err := s.store.ListAlertPreferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch user preferences: %w", err)
	}

	candidates := make([]*model.Preference, 0, len(prefs))
	for _, p := range prefs {
		if p.WantsLowBalanceAlerts() {
			candidates = append(candidates, p)
		}
	}

	result.Checked = len(candidates)
	s.metrics.AddBalanceCheckCandidates(len(candidates))
	if len(candidates) == 0 {
		return result, nil
	}

	userIDs := make([]string, len(candidates))
	for i, p := range candidates {
		userIDs[i] = p.UserID
	}

	credits, err := s.store.ListCreditsByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch user credits: %w", err)
	}

	profiles, err := s.store.ListProfilesByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch profiles: %w", err)
	}

	recent, err := s.store.ListNotificationsSince(ctx, model.NotificationLowBalance, userIDs, now.Add(-s.dedupWindow))
	if err != nil {
		return nil, fmt.Errorf("fetch recent notifications: %w", err)
	}

	needing := selectLowBalanceUsers(candidates, credits, profiles, recent, logger)
	result.NeedingAlerts = len(needing)

	for _, u := range needing {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("balance check interrupted: %w", err)
		}
		s.alert(ctx, u, result, logger)
	}

	return result, nil
}

// alert sends one low-balance email and records it. Failures are appended to
// result.Errors and never abort the run.
func (s *BalanceScanner) alert(ctx context.Context, u lowBalanceUser, result *ScanResult, logger *slog.Logger) {
	balance := u.balance.InexactFloat64()
	threshold := u.threshold.InexactFloat64()

	req := &email.Request{
		Type: model.NotificationLowBalance,
		To:   u.email,
		Data: map[string]any{
			"userName":       u.userName,
			"currentBalance": balance,
			"threshold":      threshold,
			"topUpUrl":       s.topUpURL,
		},
	}

	id, err := s.notifier.Send(ctx, req)
	if err != nil {
		s.metrics.IncLowBalanceAlert("failed")
		logger.Warn("low balance alert failed", "user_id", u.userID, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", u.email, err.Error()))
		return
	}

	result.Sent++
	s.metrics.IncLowBalanceAlert("sent")
	logger.Info("low balance alert sent", "user_id", u.userID, "message_id", id)

	entry := &model.NotificationLog{
		UserID: u.userID,
		Type:   model.NotificationLowBalance,
		Metadata: map[string]any{
			"balance":   balance,
			"threshold": threshold,
		},
		CreatedAt: s.now(),
	}
	// The email is out; record it even if the caller has gone away.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logAppendTimeout)
	defer cancel()
	if err := s.store.CreateNotificationLog(logCtx, entry); err != nil {
		logger.Error("failed to record notification log", "user_id", u.userID, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("%s: email sent but notification log failed: %s", u.email, err.Error()))
	}
}

// selectLowBalanceUsers keeps, in candidate order, the users that were not
// alerted recently, have a credit row and an email, and whose balance is
// strictly below their threshold.
func selectLowBalanceUsers(
	candidates []*model.Preference,
	credits []*model.Credit,
	profiles []*model.Profile,
	recent []*model.NotificationLog,
	logger *slog.Logger,
) []lowBalanceUser {
	creditByUser := make(map[string]*model.Credit, len(credits))
	for _, c := range credits {
		creditByUser[c.UserID] = c
	}

	profileByID := make(map[string]*model.Profile, len(profiles))
	for _, p := range profiles {
		profileByID[p.ID] = p
	}

	alerted := make(map[string]bool, len(recent))
	for _, entry := range recent {
		alerted[entry.UserID] = true
	}

	var needing []lowBalanceUser
	for _, pref := range candidates {
		if alerted[pref.UserID] {
			continue
		}

		credit, ok := creditByUser[pref.UserID]
		if !ok {
			continue
		}
		profile := profileByID[pref.UserID]
		if !profile.HasEmail() {
			continue
		}

		balance, err := parseAmount(credit.Balance)
		if err != nil {
			logger.Warn("skipping user with unparsable balance", "user_id", pref.UserID, "error", err)
			continue
		}
		threshold, err := parseAmount(pref.LowBalanceAlertThreshold)
		if err != nil {
			logger.Warn("skipping user with unparsable threshold", "user_id", pref.UserID, "error", err)
			continue
		}

		if !balance.LessThan(threshold) {
			continue
		}

		needing = append(needing, lowBalanceUser{
			userID:    pref.UserID,
			email:     profile.Email,
			userName:  profile.Name(),
			balance:   balance,
			threshold: threshold,
		})
	}

	return needing
}

// parseAmount parses a stored numeric/text amount.
func parseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}
