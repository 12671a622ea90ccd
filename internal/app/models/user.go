package models

import (
	"strings"
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID           string    `json:"id" db:"id" example:"5f0c1f2e-7a51-4a7a-9a57-0b6b8f1f0d11"`
	Email        string    `json:"email" db:"email" example:"student@example.com"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name" example:"Maria Silva"`
	AvatarURL    *string   `json:"avatarUrl,omitempty" db:"avatar_url"`
	Role         RoleType  `json:"role" db:"role" example:"student"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// DisplayName returns the name shown on certificates, falling back to the
// local part of the email address.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
