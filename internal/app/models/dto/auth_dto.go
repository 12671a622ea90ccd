package dto

import (
	"time"

	"github.com/yigit/lms/internal/app/models"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents a student self-registration
type RegisterRequest struct {
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=8"`
	Name      string  `json:"name" binding:"required,max=120"`
	AvatarURL *string `json:"avatar_url,omitempty" binding:"omitempty,url"`
}

// RefreshTokenRequest carries the refresh token. It may be omitted when the
// request is authenticated with a still valid access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest optionally names the refresh token to revoke
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UpdateProfileRequest represents a PATCH of the current user's profile
type UpdateProfileRequest struct {
	Name      *string `json:"name,omitempty" binding:"omitempty,min=1,max=120"`
	AvatarURL *string `json:"avatar_url,omitempty" binding:"omitempty,url"`
}

// UpdateRoleRequest changes the role of the user with the given email
type UpdateRoleRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=admin student"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string    `json:"accessToken"`
	TokenType             string    `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64     `json:"expiresIn"`
	ExpiresAt             time.Time `json:"expiresAt"`
	RefreshToken          string    `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64     `json:"refreshTokenExpiresIn,omitempty"`
}

// UserResponse represents public user information
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUserResponse maps a user model to its public representation
func NewUserResponse(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  *UserResponse `json:"user"`
}

// SessionResponse describes the session bound to the presented access token
type SessionResponse struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}
