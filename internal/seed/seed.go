package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/repositories"
	"github.com/yigit/lms/internal/pkg/apperrors"
	"github.com/yigit/lms/internal/pkg/auth"
)

// Options describes the bootstrap data
type Options struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// SampleCourseTitle names the course created next to the first admin
const SampleCourseTitle = "Introduction to Go"

// CreateDefaultData creates the first admin account and a sample course. It is
// a no-op once the admin email exists, so it can run on every start.
func CreateDefaultData(ctx context.Context, users repositories.IUserRepository, courses repositories.ICourseRepository, opts Options, lgr zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" || opts.AdminPassword == "" {
		lgr.Info().Msg("No default admin configured, skipping seed")
		return nil
	}

	exists, err := users.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check admin account: %w", err)
	}
	if exists {
		lgr.Debug().Str("email", email).Msg("Default admin already exists")
		return nil
	}

	hash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	name := opts.AdminName
	if name == "" {
		name = "Administrator"
	}
	admin := &models.User{Email: email, PasswordHash: hash, Name: name, Role: models.RoleAdmin}
	if err := users.Create(ctx, admin); err != nil && !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
		return fmt.Errorf("create admin account: %w", err)
	}
	lgr.Info().Str("email", email).Msg("Default admin created")

	description := "Types, interfaces, goroutines and the standard library."
	duration := "20h"
	course := &models.Course{
		Title:       SampleCourseTitle,
		Description: &description,
		Duration:    &duration,
		Instructor:  name,
	}
	if err := courses.Create(ctx, course); err != nil {
		return fmt.Errorf("create sample course: %w", err)
	}
	lgr.Info().Str("courseID", course.ID).Msg("Sample course created")

	return nil
}
