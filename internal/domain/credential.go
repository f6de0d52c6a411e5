package domain

import "time"

// Credential login credential; PasswordHash is bcrypt.
type Credential struct {
	ProfileID    string    `json:"profile_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
