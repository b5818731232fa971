package model

// DefaultUserName is used in emails when a profile carries no name.
const DefaultUserName = "User"

// Profile holds the contact details of a user.
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	DisplayName string `json:"display_name"`
}

// HasEmail returns true if the profile can be notified by email.
func (p *Profile) HasEmail() bool {
	return p != nil && p.Email != ""
}

// Name returns the display name, falling back to the full name and then
// to DefaultUserName.
func (p *Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.FullName != "" {
		return p.FullName
	}
	return DefaultUserName
}
