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

func TestCourseService_Create(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	admin := &models.User{Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}
	require.NoError(t, db.Users().Create(ctx, admin))
	svc := NewCourseService(db.Courses(), appauth.NewAuthorizationService(db.Users()), zerolog.Nop())

	course, err := svc.Create(ctx, appauth.Principal{UserID: admin.ID, Role: models.RoleAdmin}, &dto.CreateCourseRequest{
		Title:       "Go 101",
		Description: "  ",
		Duration:    "20h",
	})
	require.NoError(t, err)
	assert.Nil(t, course.Description)
	assert.Equal(t, 20, course.Hours())

	got, err := svc.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go 101", got.Title)

	_, err = svc.Create(ctx, appauth.Principal{UserID: "u1", Role: models.RoleStudent}, &dto.CreateCourseRequest{Title: "Nope"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// A token minted before a demotion still says admin; the stored role wins.
	_, err = db.Users().UpdateRoleByEmail(ctx, admin.Email, models.RoleStudent)
	require.NoError(t, err)
	_, err = svc.Create(ctx, appauth.Principal{UserID: admin.ID, Role: models.RoleAdmin}, &dto.CreateCourseRequest{Title: "Stale"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	courses, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}
