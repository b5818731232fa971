package repository

import (
	"context"
	"fmt"

	"github.com/aiinterface/notifier/internal/model"
)

// ListAlertPreferences returns every preference row with both usage alerts
// and email notifications enabled, ordered by user id.
func (r *Repository) ListAlertPreferences(ctx context.Context) ([]*model.Preference, error) {
	query := `
		SELECT user_id::text, usage_alerts, email_notifications,
		       COALESCE(low_balance_alert_threshold::text, '')
		FROM user_preferences
		WHERE usage_alerts = TRUE AND email_notifications = TRUE
		ORDER BY user_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query user preferences: %w", err)
	}
	defer rows.Close()

	var prefs []*model.Preference
	for rows.Next() {
		var p model.Preference
		if err := rows.Scan(
			&p.UserID,
			&p.UsageAlerts,
			&p.EmailNotifications,
			&p.LowBalanceAlertThreshold,
		); err != nil {
			return nil, fmt.Errorf("scan user preference: %w", err)
		}
		prefs = append(prefs, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user preferences: %w", err)
	}

	return prefs, nil
}
