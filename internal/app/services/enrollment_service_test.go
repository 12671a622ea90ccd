package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appauth "github.com/yigit/lms/internal/app/auth"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/models/dto"
	"github.com/yigit/lms/internal/app/repositories/memory"
	"github.com/yigit/lms/internal/pkg/apperrors"
)

func newEnrollmentService(db *memory.DB) *EnrollmentService {
	return NewEnrollmentService(db.Enrollments(), db.Courses(), appauth.NewAuthorizationService(db.Users()), zerolog.Nop())
}

func intPtr(v int) *int { return &v }

func TestEnrollmentService_Enroll(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	course := &models.Course{Title: "Go 101"}
	require.NoError(t, db.Courses().Create(ctx, course))
	svc := newEnrollmentService(db)
	student := appauth.Principal{UserID: "u1", Role: models.RoleStudent}

	e, err := svc.Enroll(ctx, student, &dto.EnrollRequest{CourseID: course.ID})
	require.NoError(t, err)
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, 0, e.ProgressValue())

	_, err = svc.Enroll(ctx, student, &dto.EnrollRequest{CourseID: course.ID})
	assert.ErrorIs(t, err, apperrors.ErrEnrollmentAlreadyExists)

	_, err = svc.Enroll(ctx, student, &dto.EnrollRequest{CourseID: "missing"})
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	_, err = svc.Enroll(ctx, student, &dto.EnrollRequest{UserID: "u2", CourseID: course.ID})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	admin := appauth.Principal{UserID: "a1", Role: models.RoleAdmin}
	e, err = svc.Enroll(ctx, admin, &dto.EnrollRequest{UserID: "u2", CourseID: course.ID})
	require.NoError(t, err)
	assert.Equal(t, "u2", e.UserID)
}

func TestEnrollmentService_UpdateProgressIsMonotonic(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	_, err := db.Enrollments().Create(ctx, &models.Enrollment{UserID: "u1", CourseID: "c1", Progress: intPtr(10)})
	require.NoError(t, err)
	svc := newEnrollmentService(db)
	student := appauth.Principal{UserID: "u1", Role: models.RoleStudent}

	e, err := svc.UpdateProgress(ctx, student, &dto.UpdateProgressRequest{UserID: "u1", CourseID: "c1", Progress: intPtr(60)})
	require.NoError(t, err)
	assert.Equal(t, 60, e.ProgressValue())
	assert.Nil(t, e.CompletedAt)

	_, err = svc.UpdateProgress(ctx, student, &dto.UpdateProgressRequest{UserID: "u1", CourseID: "c1", Progress: intPtr(30)})
	assert.ErrorIs(t, err, apperrors.ErrProgressRegression)

	e, err = svc.UpdateProgress(ctx, student, &dto.UpdateProgressRequest{UserID: "u1", CourseID: "c1", Progress: intPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, 100, e.ProgressValue())
	assert.NotNil(t, e.CompletedAt)

	_, err = svc.UpdateProgress(ctx, student, &dto.UpdateProgressRequest{UserID: "u1", CourseID: "c1", Progress: intPtr(101)})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.UpdateProgress(ctx, student, &dto.UpdateProgressRequest{UserID: "u1", CourseID: "c2", Progress: intPtr(50)})
	assert.ErrorIs(t, err, apperrors.ErrEnrollmentNotFound)
}

func TestEnrollmentService_ListAndGet(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	for _, pair := range [][2]string{{"u1", "c1"}, {"u1", "c2"}, {"u2", "c1"}} {
		_, err := db.Enrollments().Create(ctx, &models.Enrollment{UserID: pair[0], CourseID: pair[1], Progress: intPtr(0)})
		require.NoError(t, err)
	}
	svc := newEnrollmentService(db)
	student := appauth.Principal{UserID: "u1", Role: models.RoleStudent}
	admin := appauth.Principal{UserID: "a1", Role: models.RoleAdmin}

	list, err := svc.List(ctx, student, models.EnrollmentFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = svc.List(ctx, admin, models.EnrollmentFilter{CourseID: "c1"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	e, err := svc.Get(ctx, student, "u1", "c2")
	require.NoError(t, err)
	assert.Equal(t, "c2", e.CourseID)

	_, err = svc.Get(ctx, student, "u2", "c1")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.Get(ctx, admin, "u2", "c9")
	assert.ErrorIs(t, err, apperrors.ErrEnrollmentNotFound)
}
