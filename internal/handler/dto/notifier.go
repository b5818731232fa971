// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// CheckBalanceResponse is returned by POST /cron/check-balance.
// Checked and NeedingAlerts are omitted on the no-candidates short circuit.
type CheckBalanceResponse struct {
	Message       string   `json:"message"`
	Checked       *int     `json:"checked,omitempty"`
	NeedingAlerts *int     `json:"needingAlerts,omitempty"`
	Sent          int      `json:"sent"`
	Errors        []string `json:"errors,omitempty"`
}

// SendEmailResponse is returned by POST /email/send on success.
type SendEmailResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Check-balance response messages.
const (
	MessageBalanceCheckCompleted = "Balance check completed"
	MessageNoAlertCandidates     = "No users with alerts enabled"
)
