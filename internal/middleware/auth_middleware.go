package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	appauth "github.com/yigit/lms/internal/app/auth"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/models/dto"
	"github.com/yigit/lms/internal/pkg/apperrors"
	"github.com/yigit/lms/internal/pkg/auth"
)

// Context keys set by JWTAuth
const (
	ContextUserID         = "userID"
	ContextEmail          = "email"
	ContextRole           = "roleType"
	ContextTokenExpiresAt = "tokenExpiresAt"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		// Browsers cannot set headers on WebSocket upgrades
		if authHeader == "" {
			authHeader = c.Query("token")
		}
		if authHeader == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing")
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token format")
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			details := "Invalid token"
			if errors.Is(err, apperrors.ErrTokenExpired) {
				errorCode = dto.ErrorCodeExpiredToken
				details = "Token has expired"
			}
			abortUnauthorized(c, errorCode, details)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		if claims.ExpiresAt != nil {
			c.Set(ContextTokenExpiresAt, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// OptionalJWTAuth sets the principal when a valid token is present and
// continues anonymously otherwise.
func (m *AuthMiddleware) OptionalJWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err == nil {
			if claims, err := m.jwtService.ValidateAndExtractClaims(tokenString); err == nil {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextEmail, claims.Email)
				c.Set(ContextRole, claims.Role)
			}
		}
		c.Next()
	}
}

// RoleRequired middleware to check if user has required role
func (m *AuthMiddleware) RoleRequired(requiredRole models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User role not found")
			return
		}

		roleStr, ok := role.(string)
		if !ok || models.RoleType(roleStr) != requiredRole {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
				WithDetails("You don't have sufficient permissions for this operation")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Next()
	}
}

// AdminOnly is RoleRequired(admin)
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return m.RoleRequired(models.RoleAdmin)
}

// GetPrincipal returns the caller identity stored by JWTAuth
func GetPrincipal(c *gin.Context) (appauth.Principal, bool) {
	userID := c.GetString(ContextUserID)
	if userID == "" {
		return appauth.Principal{}, false
	}
	return appauth.Principal{
		UserID: userID,
		Email:  c.GetString(ContextEmail),
		Role:   models.RoleType(c.GetString(ContextRole)),
	}, true
}

// GetTokenExpiry returns the expiry of the presented access token
func GetTokenExpiry(c *gin.Context) (time.Time, bool) {
	v, ok := c.Get(ContextTokenExpiresAt)
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// RequirePrincipal returns the principal or writes a 401 response
func RequirePrincipal(c *gin.Context) (appauth.Principal, bool) {
	p, ok := GetPrincipal(c)
	if !ok {
		abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User information not found")
	}
	return p, ok
}
