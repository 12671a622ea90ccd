package authclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Errors surfaced by every backend. Any credential rejection is reported as
// ErrUnauthenticated regardless of the reason the server gave.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
)

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status to one of the package sentinels
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrInvalidInput
	}
	return nil
}

// User is the identity returned by the auth endpoints
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool { return u != nil && u.Role == "admin" }

// Token is the opaque credential attached to authenticated requests
type Token struct {
	AccessToken           string    `json:"accessToken"`
	TokenType             string    `json:"tokenType,omitempty"`
	ExpiresIn             int64     `json:"expiresIn,omitempty"`
	ExpiresAt             time.Time `json:"expiresAt"`
	RefreshToken          string    `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64     `json:"refreshTokenExpiresIn,omitempty"`
}

// AuthResult is the {token, user} pair returned by login, register and refresh
type AuthResult struct {
	Token Token `json:"token"`
	User  *User `json:"user"`
}

// RegisterInput is the payload of a registration
type RegisterInput struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// ProfileUpdate changes the current user's profile. Nil fields are unchanged.
type ProfileUpdate struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}
