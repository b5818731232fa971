package email

import (
	"fmt"

	"github.com/aiinterface/notifier/internal/model"
)

// Defaults applied when the request data omits a field.
const (
	DefaultTopUpURL         = "https://aiinterface.com/credits"
	DefaultAccountSubject   = "Account notification"
	DefaultMarketingSubject = "Latest updates"
)

// Notification is a closed set of renderable email kinds.
// Only types in this package implement it.
type Notification interface {
	Type() model.NotificationType
	Subject() string
	notification()
}

// LowBalance tells a user that their balance fell below their alert threshold.
type LowBalance struct {
	UserName       string
	CurrentBalance float64
	Threshold      float64
	TopUpURL       string
}

func (n *LowBalance) Type() model.NotificationType { return model.NotificationLowBalance }

func (n *LowBalance) Subject() string {
	return fmt.Sprintf("Low balance alert - current balance $%.2f", n.CurrentBalance)
}

func (*LowBalance) notification() {}

// AccountNotice is a generic account message with an optional call to action.
type AccountNotice struct {
	UserName   string
	Title      string
	Message    string
	ActionURL  string
	ActionText string
}

func (n *AccountNotice) Type() model.NotificationType {
	return model.NotificationAccountNotification
}

func (n *AccountNotice) Subject() string { return n.Title }

func (*AccountNotice) notification() {}

// Marketing is a product update email.
type Marketing struct {
	UserName    string
	Title       string
	PreviewText string
	Content     string
	CTAURL      string
	CTAText     string
}

func (n *Marketing) Type() model.NotificationType { return model.NotificationMarketing }

func (n *Marketing) Subject() string { return n.Title }

func (*Marketing) notification() {}
