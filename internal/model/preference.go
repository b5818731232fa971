// Package model defines domain entities for the application.
package model

// Preference is the subset of a user_preferences row the notifier reads.
type Preference struct {
	UserID             string `json:"user_id"`
	UsageAlerts        bool   `json:"usage_alerts"`
	EmailNotifications bool   `json:"email_notifications"`

	// LowBalanceAlertThreshold is kept in its stored textual form.
	// Callers parse it before comparing.
	LowBalanceAlertThreshold string `json:"low_balance_alert_threshold"`
}

// WantsLowBalanceAlerts returns true if the user opted into usage alerts
// delivered by email.
func (p *Preference) WantsLowBalanceAlerts() bool {
	return p.UsageAlerts && p.EmailNotifications
}
