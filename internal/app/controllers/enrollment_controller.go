package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/lms/internal/app/models/dto"
	"github.com/yigit/lms/internal/app/services"
	"github.com/yigit/lms/internal/middleware"
)

// EnrollmentController handles enrollment endpoints
type EnrollmentController struct {
	enrollmentService *services.EnrollmentService
	logger            zerolog.Logger
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollmentService *services.EnrollmentService, logger zerolog.Logger) *EnrollmentController {
	return &EnrollmentController{
		enrollmentService: enrollmentService,
		logger:            logger,
	}
}

// List returns enrollments filtered by user and course
// @Summary List enrollments
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "User ID"
// @Param course_id query string false "Course ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.APIResponse{data=[]models.Enrollment} "Enrollments"
// @Failure 403 {object} dto.ErrorResponse "Not allowed"
// @Router /api/enrollments [get]
func (c *EnrollmentController) List(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}

	var query dto.EnrollmentListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	enrollments, err := c.enrollmentService.List(ctx.Request.Context(), p, query.Filter())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(enrollments))
}

// Get returns the enrollment of a user in a course
// @Summary Get enrollment
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.APIResponse{data=models.Enrollment} "Enrollment"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Router /api/enrollments/{userId}/{courseId} [get]
func (c *EnrollmentController) Get(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}

	enrollment, err := c.enrollmentService.Get(ctx.Request.Context(), p, ctx.Param("userId"), ctx.Param("courseId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(enrollment))
}

// Create enrolls a user in a course
// @Summary Enroll in course
// @Description Enrolls the caller, or the given user when called by an admin
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.EnrollRequest true "Course to join"
// @Success 201 {object} dto.APIResponse{data=models.Enrollment} "Enrollment created"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 409 {object} dto.ErrorResponse "Already enrolled"
// @Router /api/enrollments [post]
func (c *EnrollmentController) Create(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}

	var req dto.EnrollRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	enrollment, err := c.enrollmentService.Enroll(ctx.Request.Context(), p, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(enrollment))
}

// UpdateProgress records a new completion percentage
// @Summary Update progress
// @Description Progress never decreases; a lower value is rejected with 409
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProgressRequest true "New progress"
// @Success 200 {object} dto.APIResponse{data=models.Enrollment} "Updated enrollment"
// @Failure 400 {object} dto.ErrorResponse "Progress outside 0..100"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Failure 409 {object} dto.ErrorResponse "Progress would decrease"
// @Router /api/enrollments/progress [put]
func (c *EnrollmentController) UpdateProgress(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}

	var req dto.UpdateProgressRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	enrollment, err := c.enrollmentService.UpdateProgress(ctx.Request.Context(), p, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(enrollment))
}
