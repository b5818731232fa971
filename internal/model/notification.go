package model

import (
	"slices"
	"time"
)

// NotificationType identifies the kind of notification sent to a user.
type NotificationType string

const (
	NotificationLowBalance          NotificationType = "low_balance"
	NotificationAccountNotification NotificationType = "account_notification"
	NotificationMarketing           NotificationType = "marketing"
)

// ValidNotificationTypes contains all notification types the dispatcher accepts.
var ValidNotificationTypes = []NotificationType{
	NotificationLowBalance,
	NotificationAccountNotification,
	NotificationMarketing,
}

// IsValidNotificationType checks if a notification type is known.
func IsValidNotificationType(t NotificationType) bool {
	return slices.Contains(ValidNotificationTypes, t)
}

// NotificationLog is an append-only record of a notification that was sent.
type NotificationLog struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
