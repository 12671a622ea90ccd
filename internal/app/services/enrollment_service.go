package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/lms/internal/app/auth"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/models/dto"
	"github.com/yigit/lms/internal/app/repositories"
	"github.com/yigit/lms/internal/pkg/apperrors"
	"github.com/yigit/lms/internal/pkg/validation"
)

// EnrollmentService manages course enrollments and their progress
type EnrollmentService struct {
	enrollmentRepo repositories.IEnrollmentRepository
	courseRepo     repositories.ICourseRepository
	authz          *appauth.AuthorizationService
	logger         zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(
	enrollmentRepo repositories.IEnrollmentRepository,
	courseRepo repositories.ICourseRepository,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		authz:          authz,
		logger:         logger,
	}
}

// Enroll adds a user to a course with zero progress. The user defaults to the caller.
func (s *EnrollmentService) Enroll(ctx context.Context, p appauth.Principal, req *dto.EnrollRequest) (*models.Enrollment, error) {
	userID := req.UserID
	if userID == "" {
		userID = p.UserID
	}
	if err := s.authz.CanAccessUser(p, userID); err != nil {
		return nil, err
	}

	// Course must exist
	if _, err := s.courseRepo.GetByID(ctx, req.CourseID); err != nil {
		return nil, err
	}

	zero := 0
	enrollment, err := s.enrollmentRepo.Create(ctx, &models.Enrollment{
		UserID:   userID,
		CourseID: req.CourseID,
		Progress: &zero,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("userID", userID).Str("courseID", req.CourseID).Msg("User enrolled")
	return enrollment, nil
}

// List returns the enrollments visible to the caller
func (s *EnrollmentService) List(ctx context.Context, p appauth.Principal, filter models.EnrollmentFilter) ([]*models.Enrollment, error) {
	filter, err := s.authz.ScopeEnrollmentFilter(p, filter)
	if err != nil {
		return nil, err
	}
	return s.enrollmentRepo.List(ctx, filter)
}

// Get returns the enrollment of the pair
func (s *EnrollmentService) Get(ctx context.Context, p appauth.Principal, userID, courseID string) (*models.Enrollment, error) {
	if err := s.authz.CanAccessUser(p, userID); err != nil {
		return nil, err
	}

	enrollment, err := s.enrollmentRepo.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, apperrors.ErrEnrollmentNotFound
	}
	return enrollment, nil
}

// UpdateProgress records a new completion percentage. Progress never goes down:
// a lower value fails with apperrors.ErrProgressRegression.
func (s *EnrollmentService) UpdateProgress(ctx context.Context, p appauth.Principal, req *dto.UpdateProgressRequest) (*models.Enrollment, error) {
	if err := s.authz.CanAccessUser(p, req.UserID); err != nil {
		return nil, err
	}
	if req.Progress == nil {
		return nil, fmt.Errorf("%w: progress is required", apperrors.ErrValidationFailed)
	}
	if err := validation.ValidateProgress(*req.Progress); err != nil {
		return nil, err
	}

	enrollment, err := s.enrollmentRepo.UpdateProgress(ctx, req.UserID, req.CourseID, *req.Progress)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("userID", req.UserID).
		Str("courseID", req.CourseID).
		Int("progress", *req.Progress).
		Msg("Enrollment progress updated")
	return enrollment, nil
}
