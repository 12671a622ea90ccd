package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/lms/internal/app/auth"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/models/dto"
	"github.com/yigit/lms/internal/app/repositories"
	"github.com/yigit/lms/internal/pkg/apperrors"
	"github.com/yigit/lms/internal/pkg/auth"
	"github.com/yigit/lms/internal/pkg/validation"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo   repositories.IUserRepository
	tokenRepo  repositories.ITokenRepository
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repositories.IUserRepository,
	tokenRepo repositories.ITokenRepository,
	jwtService *auth.JWTService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Register creates a student account and signs it in
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := validation.NormalizeEmail(req.Email)

	// Validate email
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	// Validate password
	if err := validation.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	// Check if email already exists
	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking if email exists: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	// Hash password
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         name,
		AvatarURL:    req.AvatarURL,
		Role:         models.RoleStudent,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("user creation error: %w", err)
	}

	s.logger.Info().Str("userID", user.ID).Str("email", user.Email).Msg("User registered")
	return s.generateAuthResponse(ctx, user)
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := validation.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	// Password validation
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.generateAuthResponse(ctx, user)
}

// Refresh issues a new token pair. A refresh token is consumed when given;
// otherwise the caller must hold a still valid access token (bearerUserID).
func (s *AuthService) Refresh(ctx context.Context, refreshToken, bearerUserID string) (*dto.AuthResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)

	var userID string
	switch {
	case refreshToken != "":
		id, expiryDate, err := s.tokenRepo.GetTokenByValue(ctx, refreshToken)
		if err != nil {
			return nil, err
		}
		if expiryDate.Before(time.Now()) {
			_ = s.tokenRepo.RevokeToken(ctx, refreshToken)
			return nil, apperrors.ErrTokenExpired
		}
		// Revoke old token so it cannot be reused
		if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
			return nil, fmt.Errorf("failed to revoke old token: %w", err)
		}
		userID = id
	case bearerUserID != "":
		userID = bearerUserID
	default:
		return nil, apperrors.ErrUnauthenticated
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to get user information: %w", err)
	}

	return s.generateAuthResponse(ctx, user)
}

// CurrentUser returns the profile of the authenticated user
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to get user information: %w", err)
	}
	return dto.NewUserResponse(user), nil
}

// UpdateProfile changes the caller's name and avatar
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	var name *string
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: name cannot be blank", apperrors.ErrValidationFailed)
		}
		if err := validation.ValidateName(trimmed); err != nil {
			return nil, err
		}
		name = &trimmed
	}
	if name == nil && req.AvatarURL == nil {
		return nil, fmt.Errorf("%w: nothing to update", apperrors.ErrValidationFailed)
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, name, req.AvatarURL)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

// Session describes the session bound to the caller's access token
func (s *AuthService) Session(p appauth.Principal, expiresAt time.Time) *dto.SessionResponse {
	return &dto.SessionResponse{
		UserID:    p.UserID,
		Email:     p.Email,
		Role:      string(p.Role),
		ExpiresAt: expiresAt,
	}
}

// Logout revokes every refresh token of the user
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.tokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("userID", userID).Msg("Failed to revoke refresh tokens on logout")
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

// ListUsers returns every account for the admin dashboard
func (s *AuthService) ListUsers(ctx context.Context) ([]*dto.UserResponse, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewUserResponse(u))
	}
	return out, nil
}

// UpdateUserRole changes the role of the account with the given email.
// The user's refresh tokens are revoked so the new role takes effect on next sign-in.
func (s *AuthService) UpdateUserRole(ctx context.Context, req *dto.UpdateRoleRequest) (*dto.UserResponse, error) {
	email := validation.NormalizeEmail(req.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", apperrors.ErrValidationFailed)
	}
	role, err := validation.ValidateRole(req.Role)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.UpdateRoleByEmail(ctx, email, role)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.RevokeAllUserTokens(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("userID", user.ID).Msg("Failed to revoke tokens after role change")
	}
	s.logger.Info().Str("email", email).Str("role", string(role)).Msg("User role updated")
	return dto.NewUserResponse(user), nil
}

// generateAuthResponse creates a token pair and stores the refresh token
func (s *AuthService) generateAuthResponse(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("refresh token storage error: %w", err)
	}

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken:           pair.AccessToken,
			TokenType:             "Bearer",
			ExpiresIn:             pair.ExpiresIn,
			ExpiresAt:             pair.ExpiresAt,
			RefreshToken:          pair.RefreshToken,
			RefreshTokenExpiresIn: pair.RefreshExpiresIn,
		},
		User: dto.NewUserResponse(user),
	}, nil
}
