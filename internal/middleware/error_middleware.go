package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/lms/internal/app/certification"
	"github.com/yigit/lms/internal/app/models/dto"
	"github.com/yigit/lms/internal/pkg/apperrors"
	"github.com/yigit/lms/internal/pkg/logger"
)

type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// Order matters: specific sentinels come before the generic ones they wrap.
var errorMappings = []errorMapping{
	{certification.ErrNotEnrolled, http.StatusNotFound, dto.ErrorCodeNotEnrolled, "User is not enrolled in this course"},
	{certification.ErrNotEligible, http.StatusUnprocessableEntity, dto.ErrorCodeNotEligible, "Course not completed yet"},
	{certification.ErrInvalidRequest, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "user_id and course_id are required"},
	{certification.ErrStorageFailure, http.StatusServiceUnavailable, dto.ErrorCodeDatabaseError, "Storage temporarily unavailable"},
	{apperrors.ErrStorageUnavailable, http.StatusServiceUnavailable, dto.ErrorCodeDatabaseError, "Storage temporarily unavailable"},

	{apperrors.ErrCertificateNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Certificate not found"},
	{apperrors.ErrEnrollmentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Enrollment not found"},
	{apperrors.ErrCourseNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Course not found"},
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"},
	{apperrors.ErrBatchJobNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Batch job not found"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},

	{apperrors.ErrEnrollmentAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "User is already enrolled in this course"},
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists"},
	{apperrors.ErrProgressRegression, http.StatusConflict, dto.ErrorCodeConflict, "Progress cannot decrease"},
	{apperrors.ErrBatchNotCancellable, http.StatusConflict, dto.ErrorCodeConflict, "Batch job was not started as cancellable"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},

	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked"},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrUnauthenticated, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required"},

	{apperrors.ErrInvalidEmail, http.StatusBadRequest, dto.ErrorCodeInvalidEmail, "Invalid email"},
	{apperrors.ErrInvalidPassword, http.StatusBadRequest, dto.ErrorCodeInvalidPassword, "Password does not meet requirements"},
	{apperrors.ErrInvalidRole, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Role must be admin or student"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Bad request"},
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.message
		// CustomError carries a caller-facing message
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Message != "" {
			message = custom.Message
		}
		detail := dto.NewErrorDetail(m.code, message)
		if m.status >= http.StatusInternalServerError {
			detail.WithSeverity(dto.ErrorSeverityCritical)
			logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed with unavailable storage")
		}
		c.AbortWithStatusJSON(m.status, dto.NewErrorResponse(detail))
		return
	}

	logger.Error().Err(err).Str("method", c.Request.Method).Str("path", c.FullPath()).Msg("Unhandled API error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").WithSeverity(dto.ErrorSeverityCritical),
	))
}
