package auth

import (
	"context"
	"errors"

	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/repositories"
	"github.com/yigit/lms/internal/pkg/apperrors"
	"github.com/yigit/lms/internal/pkg/logger"
)

// Principal is the authenticated caller of a request
type Principal struct {
	UserID string
	Email  string
	Role   models.RoleType
}

// IsAdmin reports whether the caller holds the admin role
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// AuthorizationService decides what a principal may read or change.
// Students only see their own certificates and enrollments; admins see everything.
type AuthorizationService struct {
	userRepo repositories.IUserRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(userRepo repositories.IUserRepository) *AuthorizationService {
	return &AuthorizationService{userRepo: userRepo}
}

// CanAccessUser allows admins and the user themselves
func (s *AuthorizationService) CanAccessUser(p Principal, userID string) error {
	if p.IsAdmin() || (p.UserID != "" && p.UserID == userID) {
		return nil
	}
	return apperrors.NewForbiddenError("you can only access your own records")
}

// ScopeCertificateFilter restricts a listing to what the principal may see
func (s *AuthorizationService) ScopeCertificateFilter(p Principal, filter models.CertificateFilter) (models.CertificateFilter, error) {
	if p.IsAdmin() {
		return filter, nil
	}
	if filter.UserID == "" {
		filter.UserID = p.UserID
	}
	return filter, s.CanAccessUser(p, filter.UserID)
}

// ScopeEnrollmentFilter restricts a listing to what the principal may see
func (s *AuthorizationService) ScopeEnrollmentFilter(p Principal, filter models.EnrollmentFilter) (models.EnrollmentFilter, error) {
	if p.IsAdmin() {
		return filter, nil
	}
	if filter.UserID == "" {
		filter.UserID = p.UserID
	}
	return filter, s.CanAccessUser(p, filter.UserID)
}

// ValidateAdmin re-reads the caller's role from storage. Tokens carry the role
// at issue time, so role-management endpoints check the current value.
func (s *AuthorizationService) ValidateAdmin(ctx context.Context, p Principal) error {
	if !p.IsAdmin() {
		return apperrors.NewForbiddenError("admin role required")
	}
	user, err := s.userRepo.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrUnauthenticated
		}
		logger.Error().Err(err).Str("userID", p.UserID).Msg("Error getting user in ValidateAdmin")
		return err
	}
	if !user.IsAdmin() {
		return apperrors.NewForbiddenError("admin role required")
	}
	return nil
}
