package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/lms/internal/app/auth"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/models/dto"
	"github.com/yigit/lms/internal/app/repositories"
	"github.com/yigit/lms/internal/pkg/helpers"
)

// CourseService exposes the course catalog
type CourseService struct {
	courseRepo repositories.ICourseRepository
	authz      *appauth.AuthorizationService
	logger     zerolog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(courseRepo repositories.ICourseRepository, authz *appauth.AuthorizationService, logger zerolog.Logger) *CourseService {
	return &CourseService{
		courseRepo: courseRepo,
		authz:      authz,
		logger:     logger,
	}
}

// List returns the whole catalog
func (s *CourseService) List(ctx context.Context) ([]*models.Course, error) {
	return s.courseRepo.List(ctx)
}

// GetByID returns a course or apperrors.ErrCourseNotFound
func (s *CourseService) GetByID(ctx context.Context, id string) (*models.Course, error) {
	return s.courseRepo.GetByID(ctx, id)
}

// Create adds a course. Only a caller whose stored role is admin may do so.
func (s *CourseService) Create(ctx context.Context, p appauth.Principal, req *dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.authz.ValidateAdmin(ctx, p); err != nil {
		return nil, err
	}

	course := &models.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: helpers.NilIfEmpty(strings.TrimSpace(req.Description)),
		Duration:    helpers.NilIfEmpty(strings.TrimSpace(req.Duration)),
		Instructor:  strings.TrimSpace(req.Instructor),
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	s.logger.Info().Str("courseID", course.ID).Str("title", course.Title).Str("adminID", p.UserID).Msg("Course created")
	return course, nil
}
