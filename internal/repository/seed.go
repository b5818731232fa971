package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aiinterface/notifier/internal/model"
)

// Account bundles the rows that make a user visible to the balance scanner.
type Account struct {
	Profile    *model.Profile
	Preference *model.Preference
	// Credit is optional; nil leaves any existing balance untouched.
	Credit *model.Credit
}

// UpsertAccount writes the profile, preference and credit rows of an account
// in one transaction. It exists for local seeding; production rows are owned
// by the main application.
func (r *Repository) UpsertAccount(ctx context.Context, acct *Account) error {
	if acct.Profile == nil || acct.Preference == nil {
		return fmt.Errorf("upsert account: profile and preference are required")
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO profiles (id, email, full_name, display_name)
			VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))
			ON CONFLICT (id) DO UPDATE
			SET email = EXCLUDED.email,
			    full_name = EXCLUDED.full_name,
			    display_name = EXCLUDED.display_name
		`,
			acct.Profile.ID,
			acct.Profile.Email,
			acct.Profile.FullName,
			acct.Profile.DisplayName,
		); err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}

		threshold := acct.Preference.LowBalanceAlertThreshold
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_preferences (user_id, usage_alerts, email_notifications, low_balance_alert_threshold)
			VALUES ($1, $2, $3, COALESCE(NULLIF($4, '')::numeric, 5))
			ON CONFLICT (user_id) DO UPDATE
			SET usage_alerts = EXCLUDED.usage_alerts,
			    email_notifications = EXCLUDED.email_notifications,
			    low_balance_alert_threshold = EXCLUDED.low_balance_alert_threshold,
			    updated_at = NOW()
		`,
			acct.Profile.ID,
			acct.Preference.UsageAlerts,
			acct.Preference.EmailNotifications,
			threshold,
		); err != nil {
			return fmt.Errorf("upsert user preference: %w", err)
		}

		if acct.Credit == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_credits (user_id, balance)
			VALUES ($1, $2::numeric)
			ON CONFLICT (user_id) DO UPDATE
			SET balance = EXCLUDED.balance,
			    updated_at = NOW()
		`,
			acct.Profile.ID,
			acct.Credit.Balance,
		); err != nil {
			return fmt.Errorf("upsert user credit: %w", err)
		}
		return nil
	})
}
