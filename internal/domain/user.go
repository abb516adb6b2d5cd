package domain

import "time"

// User representa la cuenta local del jugador.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	PasswordHash   string     `json:"-"`
	ProfilePicture string     `json:"profile_picture,omitempty"`
	Is2FAEnabled   bool       `json:"is_2fa_enabled"`
	CodeHash       string     `json:"-"`
	CodeExpiresAt  *time.Time `json:"-"`
	HashedRT       string     `json:"-"`
	IsOnline       bool       `json:"is_online"`
	CreatedAt      time.Time  `json:"created_at"`
}
