package model

// Credit is a user's prepaid balance as stored in user_credits.
type Credit struct {
	UserID  string `json:"user_id"`
	Balance string `json:"balance"`
}
