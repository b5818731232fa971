// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420421

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetNotifierSchema drops and recreates the notifier tables.
func ResetNotifierSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return applyMigration(ctx, pool, "000001_notifier")
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, name string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	for _, direction := range []string{"down", "up"} {
		path := filepath.Join(root, "migrations", name+"."+direction+".sql")
		sql, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s migration: %w", direction, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s migration: %w", direction, err)
		}
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// TestUser describes a seeded account.
type TestUser struct {
	ID          string
	Email       string
	FullName    string
	DisplayName string
	Balance     string
	Threshold   string
	UsageAlerts bool
	EmailOptIn  bool
}

// NewTestUser returns an opted-in user with an email, a balance of 1 and a
// threshold of 5.
func NewTestUser(t testing.TB) *TestUser {
	t.Helper()
	id := uuid.NewString()
	return &TestUser{
		ID:          id,
		Email:       id[:8] + "@example.com",
		DisplayName: "Test " + id[:4],
		Balance:     "1",
		Threshold:   "5",
		UsageAlerts: true,
		EmailOptIn:  true,
	}
}

// InsertTestUser writes the profile, preference and credit rows for u.
// An empty Balance skips the credit row.
func InsertTestUser(ctx context.Context, pool *pgxpool.Pool, u *TestUser) error {
	if _, err := pool.Exec(ctx,
		`INSERT INTO profiles (id, email, full_name, display_name) VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))`,
		u.ID, u.Email, u.FullName, u.DisplayName,
	); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO user_preferences (user_id, usage_alerts, email_notifications, low_balance_alert_threshold) VALUES ($1, $2, $3, $4::numeric)`,
		u.ID, u.UsageAlerts, u.EmailOptIn, u.Threshold,
	); err != nil {
		return fmt.Errorf("insert preference: %w", err)
	}

	if u.Balance == "" {
		return nil
	}
	if _, err := pool.Exec(ctx,
		`INSERT INTO user_credits (user_id, balance) VALUES ($1, $2::numeric)`,
		u.ID, u.Balance,
	); err != nil {
		return fmt.Errorf("insert credit: %w", err)
	}
	return nil
}

// InsertNotificationLog writes a notification_logs row created at createdAt.
func InsertNotificationLog(ctx context.Context, pool *pgxpool.Pool, userID, typ string, createdAt time.Time) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO notification_logs (id, user_id, type, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), userID, typ, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	return nil
}
