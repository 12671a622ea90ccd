package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/pkg/apperrors"
	"github.com/yigit/lms/internal/pkg/dberrors"
	"github.com/yigit/lms/internal/pkg/helpers"
	"github.com/yigit/lms/internal/pkg/logger"
)

const enrollmentsUserCourseKey = "enrollments_user_course_key"

var enrollmentColumns = []string{"id", "user_id", "course_id", "progress", "enrolled_at", "completed_at"}

// EnrollmentRepository handles enrollment database operations
type EnrollmentRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(db DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

func scanEnrollment(row pgx.Row) (*models.Enrollment, error) {
	e := &models.Enrollment{}
	if err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Progress, &e.EnrolledAt, &e.CompletedAt); err != nil {
		return nil, err
	}
	return e, nil
}

// FindByUserAndCourse returns the enrollment of a pair, or nil when the user is not enrolled
func (r *EnrollmentRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	sql, args, err := r.sb.Select(enrollmentColumns...).
		From("enrollments").
		Where(squirrel.Eq{"user_id": userID, "course_id": courseID}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building find enrollment SQL")
		return nil, fmt.Errorf("failed to build find enrollment query: %w", err)
	}

	enrollment, err := scanEnrollment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logger.Error().Err(err).Str("userID", userID).Str("courseID", courseID).Msg("Error scanning enrollment row")
		return nil, fmt.Errorf("error finding enrollment: %w", err)
	}
	return enrollment, nil
}

// Create enrolls a user in a course
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, error) {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}

	sql, args, err := r.sb.Insert("enrollments").
		Columns(enrollmentColumns...).
		Values(enrollment.ID, enrollment.UserID, enrollment.CourseID, enrollment.Progress, enrollment.EnrolledAt, enrollment.CompletedAt).
		Suffix(helpers.Returning(enrollmentColumns)).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create enrollment SQL")
		return nil, fmt.Errorf("failed to build create enrollment query: %w", err)
	}

	created, err := scanEnrollment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, enrollmentsUserCourseKey) {
			return nil, apperrors.ErrEnrollmentAlreadyExists
		}
		if dberrors.IsForeignKeyError(err) {
			return nil, apperrors.NewResourceNotFoundError("user or course does not exist")
		}
		logger.Error().Err(err).Str("userID", enrollment.UserID).Str("courseID", enrollment.CourseID).Msg("Error executing create enrollment query")
		return nil, fmt.Errorf("error creating enrollment: %w", err)
	}
	return created, nil
}

// List returns enrollments matching the filter, oldest first
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]*models.Enrollment, error) {
	query := r.sb.Select(enrollmentColumns...).
		From("enrollments").
		OrderBy("enrolled_at", "id")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.CourseID != "" {
		query = query.Where(squirrel.Eq{"course_id": filter.CourseID})
	}
	if filter.MinProgress != nil {
		query = query.Where(squirrel.GtOrEq{"progress": *filter.MinProgress})
	}
	if filter.WithoutCert {
		query = query.Where("NOT EXISTS (SELECT 1 FROM certificates c WHERE c.user_id = enrollments.user_id AND c.course_id = enrollments.course_id)")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list enrollments SQL")
		return nil, fmt.Errorf("failed to build list enrollments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list enrollments query")
		return nil, fmt.Errorf("error listing enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []*models.Enrollment{}
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning enrollment row")
			return nil, fmt.Errorf("error scanning enrollment: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating enrollment rows")
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}
	return enrollments, nil
}

// UpdateProgress raises the stored progress of an enrollment. Reaching 100 stamps
// completed_at once. A value below the stored progress matches no row and is
// reported as apperrors.ErrProgressRegression.
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, userID, courseID string, progress int) (*models.Enrollment, error) {
	query := r.sb.Update("enrollments").
		Set("progress", squirrel.Expr("GREATEST(COALESCE(progress, 0), ?)", progress))
	if progress >= models.MaxProgress {
		query = query.Set("completed_at", squirrel.Expr("COALESCE(completed_at, ?)", time.Now().UTC()))
	}

	sql, args, err := query.
		Where(squirrel.Eq{"user_id": userID, "course_id": courseID}).
		Where(squirrel.Or{
			squirrel.Eq{"progress": nil},
			squirrel.LtOrEq{"progress": progress},
		}).
		Suffix(helpers.Returning(enrollmentColumns)).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update progress SQL")
		return nil, fmt.Errorf("failed to build update progress query: %w", err)
	}

	updated, err := scanEnrollment(r.db.QueryRow(ctx, sql, args...))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Str("userID", userID).Str("courseID", courseID).Msg("Error executing update progress query")
		return nil, fmt.Errorf("error updating progress: %w", err)
	}

	// No row matched: either the enrollment is missing or the value would lower progress.
	existing, findErr := r.FindByUserAndCourse(ctx, userID, courseID)
	if findErr != nil {
		return nil, findErr
	}
	if existing == nil {
		return nil, apperrors.ErrEnrollmentNotFound
	}
	return nil, fmt.Errorf("%w: stored %d, requested %d", apperrors.ErrProgressRegression, existing.ProgressValue(), progress)
}
