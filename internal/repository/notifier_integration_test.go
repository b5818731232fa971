//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/aiinterface/notifier/internal/model"
	"github.com/aiinterface/notifier/internal/testutil"
)

// ============================================================================
// Notifier Repository Integration Tests
// ============================================================================

func TestIntegrationRepository_ListAlertPreferences(t *testing.T) {
	ctx, repo := newNotifierTestEnv(t)

	optedIn := testutil.NewTestUser(t)
	noUsage := testutil.NewTestUser(t)
	noUsage.UsageAlerts = false
	noEmail := testutil.NewTestUser(t)
	noEmail.EmailOptIn = false
	mustInsertUsers(t, ctx, repo, optedIn, noUsage, noEmail)

	prefs, err := repo.ListAlertPreferences(ctx)
	if err != nil {
		t.Fatalf("ListAlertPreferences failed: %v", err)
	}

	if len(prefs) != 1 {
		t.Fatalf("expected 1 preference, got %d", len(prefs))
	}
	if prefs[0].UserID != optedIn.ID {
		t.Errorf("UserID = %q, want %q", prefs[0].UserID, optedIn.ID)
	}
	if prefs[0].LowBalanceAlertThreshold != "5.0000" {
		t.Errorf("threshold = %q, want 5.0000", prefs[0].LowBalanceAlertThreshold)
	}
}

func TestIntegrationRepository_CreditsAndProfilesByIDs(t *testing.T) {
	ctx, repo := newNotifierTestEnv(t)

	withName := testutil.NewTestUser(t)
	withName.Balance = "2.5"
	noCredit := testutil.NewTestUser(t)
	noCredit.Balance = ""
	noContact := testutil.NewTestUser(t)
	noContact.Email = ""
	noContact.DisplayName = ""
	other := testutil.NewTestUser(t)
	mustInsertUsers(t, ctx, repo, withName, noCredit, noContact, other)

	ids := []string{withName.ID, noCredit.ID, noContact.ID}

	credits, err := repo.ListCreditsByUserIDs(ctx, ids)
	if err != nil {
		t.Fatalf("ListCreditsByUserIDs failed: %v", err)
	}
	balances := make(map[string]string)
	for _, c := range credits {
		balances[c.UserID] = c.Balance
	}
	if len(balances) != 2 {
		t.Fatalf("expected 2 credit rows, got %d", len(balances))
	}
	if balances[withName.ID] != "2.5000" {
		t.Errorf("balance = %q, want 2.5000", balances[withName.ID])
	}
	if _, ok := balances[noCredit.ID]; ok {
		t.Error("user without credit row should not be returned")
	}

	profiles, err := repo.ListProfilesByIDs(ctx, ids)
	if err != nil {
		t.Fatalf("ListProfilesByIDs failed: %v", err)
	}
	byID := make(map[string]*model.Profile)
	for _, p := range profiles {
		byID[p.ID] = p
	}
	if len(byID) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(byID))
	}
	if byID[withName.ID].Email != withName.Email {
		t.Errorf("Email = %q, want %q", byID[withName.ID].Email, withName.Email)
	}
	if byID[noContact.ID].HasEmail() {
		t.Error("NULL email should scan as empty")
	}
	if got := byID[noContact.ID].Name(); got != model.DefaultUserName {
		t.Errorf("Name() = %q, want %q", got, model.DefaultUserName)
	}
}

func TestIntegrationRepository_EmptyIDListsSkipQueries(t *testing.T) {
	ctx, repo := newNotifierTestEnv(t)

	credits, err := repo.ListCreditsByUserIDs(ctx, nil)
	if err != nil || credits != nil {
		t.Errorf("ListCreditsByUserIDs(nil) = %v, %v", credits, err)
	}
	profiles, err := repo.ListProfilesByIDs(ctx, nil)
	if err != nil || profiles != nil {
		t.Errorf("ListProfilesByIDs(nil) = %v, %v", profiles, err)
	}
}

func TestIntegrationRepository_NotificationLogWindow(t *testing.T) {
	ctx, repo := newNotifierTestEnv(t)

	recent := testutil.NewTestUser(t)
	stale := testutil.NewTestUser(t)
	otherType := testutil.NewTestUser(t)
	mustInsertUsers(t, ctx, repo, recent, stale, otherType)

	now := time.Now().UTC()
	since := now.Add(-24 * time.Hour)

	if err := repo.CreateNotificationLog(ctx, &model.NotificationLog{
		UserID:   recent.ID,
		Type:     model.NotificationLowBalance,
		Metadata: map[string]any{"balance": 1.0, "threshold": 5.0},
	}); err != nil {
		t.Fatalf("CreateNotificationLog failed: %v", err)
	}
	if err := testutil.InsertNotificationLog(ctx, repo.Pool(), stale.ID, string(model.NotificationLowBalance), since.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := testutil.InsertNotificationLog(ctx, repo.Pool(), otherType.ID, string(model.NotificationMarketing), now); err != nil {
		t.Fatal(err)
	}

	logs, err := repo.ListNotificationsSince(ctx, model.NotificationLowBalance,
		[]string{recent.ID, stale.ID, otherType.ID}, since)
	if err != nil {
		t.Fatalf("ListNotificationsSince failed: %v", err)
	}

	if len(logs) != 1 {
		t.Fatalf("expected 1 log in window, got %d", len(logs))
	}
	if logs[0].UserID != recent.ID {
		t.Errorf("UserID = %q, want %q", logs[0].UserID, recent.ID)
	}
	if logs[0].ID == "" || logs[0].CreatedAt.IsZero() {
		t.Error("ID and CreatedAt should be filled in")
	}

	var metadata string
	if err := repo.Pool().QueryRow(ctx,
		`SELECT metadata::text FROM notification_logs WHERE id = $1`, logs[0].ID,
	).Scan(&metadata); err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if metadata != `{"balance": 1, "threshold": 5}` {
		t.Errorf("metadata = %s", metadata)
	}
}

func TestIntegrationRepository_UpsertAccount(t *testing.T) {
	ctx, repo := newNotifierTestEnv(t)

	id := testutil.NewTestUser(t).ID
	acct := &Account{
		Profile:    &model.Profile{ID: id, Email: "seed@example.com", DisplayName: "Seed"},
		Preference: &model.Preference{UsageAlerts: true, EmailNotifications: true},
		Credit:     &model.Credit{Balance: "3.25"},
	}
	if err := repo.UpsertAccount(ctx, acct); err != nil {
		t.Fatalf("UpsertAccount failed: %v", err)
	}

	prefs, err := repo.ListAlertPreferences(ctx)
	if err != nil {
		t.Fatalf("ListAlertPreferences failed: %v", err)
	}
	if len(prefs) != 1 || prefs[0].LowBalanceAlertThreshold != "5.0000" {
		t.Fatalf("unexpected preferences: %+v", prefs)
	}

	// Second upsert changes the balance and opts out.
	acct.Credit.Balance = "9"
	acct.Preference.UsageAlerts = false
	acct.Preference.LowBalanceAlertThreshold = "7.5"
	if err := repo.UpsertAccount(ctx, acct); err != nil {
		t.Fatalf("second UpsertAccount failed: %v", err)
	}

	prefs, err = repo.ListAlertPreferences(ctx)
	if err != nil {
		t.Fatalf("ListAlertPreferences failed: %v", err)
	}
	if len(prefs) != 0 {
		t.Errorf("expected opted-out account to be excluded, got %d", len(prefs))
	}

	credits, err := repo.ListCreditsByUserIDs(ctx, []string{id})
	if err != nil {
		t.Fatalf("ListCreditsByUserIDs failed: %v", err)
	}
	if len(credits) != 1 || credits[0].Balance != "9.0000" {
		t.Errorf("unexpected credits: %+v", credits)
	}
}

func TestIntegrationRepository_UpsertAccountRequiresProfile(t *testing.T) {
	ctx, repo := newNotifierTestEnv(t)

	if err := repo.UpsertAccount(ctx, &Account{}); err == nil {
		t.Fatal("expected error for empty account")
	}
}

func mustInsertUsers(t *testing.T, ctx context.Context, repo *Repository, users ...*testutil.TestUser) {
	t.Helper()
	for _, u := range users {
		if err := testutil.InsertTestUser(ctx, repo.Pool(), u); err != nil {
			t.Fatalf("insert user %s: %v", u.ID, err)
		}
	}
}

func newNotifierTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetNotifierSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset notifier schema: %v", err)
	}

	return ctx, repo
}
