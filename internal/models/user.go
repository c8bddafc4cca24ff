package models

import "time"

// User is a registered profile. The coin balance lives on the account row,
// not here; it is joined in where the API needs it.
type User struct {
	ID        string     `json:"id" db:"id"`
	Email     string     `json:"email" db:"email"`
	Username  string     `json:"username" db:"username"`
	AvatarURL string     `json:"avatar_url,omitempty" db:"avatar_url"`
	Gender    string     `json:"gender,omitempty" db:"gender"`
	Age       *int       `json:"age,omitempty" db:"age"`
	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
