package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appauth "github.com/yigit/lms/internal/app/auth"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/models/dto"
	"github.com/yigit/lms/internal/app/repositories/memory"
	"github.com/yigit/lms/internal/pkg/apperrors"
	"github.com/yigit/lms/internal/pkg/auth"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.BcryptCost = bcrypt.MinCost
}

func newAuthService(db *memory.DB) *AuthService {
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "lms-test",
	})
	return NewAuthService(db.Users(), db.Tokens(), jwtService, zerolog.Nop())
}

func register(t *testing.T, svc *AuthService, email string) *dto.AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{Email: email, Password: "secret123", Name: "Maria Silva"})
	require.NoError(t, err)
	return resp
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	db := memory.New()
	svc := newAuthService(db)
	ctx := context.Background()

	resp := register(t, svc, " Maria@Example.com ")
	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.NotEmpty(t, resp.Token.RefreshToken)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.Equal(t, "maria@example.com", resp.User.Email)
	assert.Equal(t, string(models.RoleStudent), resp.User.Role)

	_, err := svc.Register(ctx, &dto.RegisterRequest{Email: "maria@example.com", Password: "secret123", Name: "Other"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "maria@example.com", Password: "wrong-pass1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "MARIA@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := newAuthService(memory.New())
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{Email: "not-an-email", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidEmail)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Email: "a@example.com", Password: "short1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Email: "a@example.com", Password: "onlyletters"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
}

func TestAuthService_Refresh(t *testing.T) {
	db := memory.New()
	svc := newAuthService(db)
	ctx := context.Background()
	first := register(t, svc, "ana@example.com")

	t.Run("rotates the refresh token", func(t *testing.T) {
		next, err := svc.Refresh(ctx, first.Token.RefreshToken, "")
		require.NoError(t, err)
		assert.NotEqual(t, first.Token.RefreshToken, next.Token.RefreshToken)
		assert.Equal(t, first.User.ID, next.User.ID)

		_, err = svc.Refresh(ctx, first.Token.RefreshToken, "")
		assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	})

	t.Run("accepts a valid bearer instead", func(t *testing.T) {
		next, err := svc.Refresh(ctx, "", first.User.ID)
		require.NoError(t, err)
		assert.Equal(t, first.User.ID, next.User.ID)
	})

	t.Run("needs one of them", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "", "")
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

		_, err = svc.Refresh(ctx, "unknown", "")
		assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
	})
}

func TestAuthService_Logout(t *testing.T) {
	db := memory.New()
	svc := newAuthService(db)
	ctx := context.Background()
	resp := register(t, svc, "ana@example.com")

	require.NoError(t, svc.Logout(ctx, resp.User.ID))

	_, err := svc.Refresh(ctx, resp.Token.RefreshToken, "")
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	db := memory.New()
	svc := newAuthService(db)
	ctx := context.Background()
	resp := register(t, svc, "ana@example.com")

	name := "  Ana Souza "
	avatar := "https://cdn.example.com/ana.png"
	user, err := svc.UpdateProfile(ctx, resp.User.ID, &dto.UpdateProfileRequest{Name: &name, AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", user.Name)
	require.NotNil(t, user.AvatarURL)
	assert.Equal(t, avatar, *user.AvatarURL)

	blank := "   "
	_, err = svc.UpdateProfile(ctx, resp.User.ID, &dto.UpdateProfileRequest{Name: &blank})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.UpdateProfile(ctx, resp.User.ID, &dto.UpdateProfileRequest{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestAuthService_UpdateUserRole(t *testing.T) {
	db := memory.New()
	svc := newAuthService(db)
	ctx := context.Background()
	resp := register(t, svc, "ana@example.com")

	user, err := svc.UpdateUserRole(ctx, &dto.UpdateRoleRequest{Email: "ANA@example.com", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleAdmin), user.Role)

	// Existing sessions must sign in again to pick up the new role.
	_, err = svc.Refresh(ctx, resp.Token.RefreshToken, "")
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = svc.UpdateUserRole(ctx, &dto.UpdateRoleRequest{Email: "ghost@example.com", Role: "admin"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = svc.UpdateUserRole(ctx, &dto.UpdateRoleRequest{Email: "ana@example.com", Role: "teacher"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRole)

	_, err = svc.UpdateUserRole(ctx, &dto.UpdateRoleRequest{Role: "admin"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestAuthService_CurrentUserAndSession(t *testing.T) {
	db := memory.New()
	svc := newAuthService(db)
	resp := register(t, svc, "ana@example.com")

	user, err := svc.CurrentUser(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)

	_, err = svc.CurrentUser(context.Background(), "deleted")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	exp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	session := svc.Session(appauth.Principal{UserID: "u1", Email: "a@b.co", Role: models.RoleStudent}, exp)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, "student", session.Role)
	assert.Equal(t, exp, session.ExpiresAt)

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
