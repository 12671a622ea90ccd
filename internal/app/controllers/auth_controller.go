// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/lms/internal/app/auth"
	"github.com/yigit/lms/internal/app/models/dto"
	"github.com/yigit/lms/internal/app/services"
	"github.com/yigit/lms/internal/middleware"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService *services.AuthService
	authz       *appauth.AuthorizationService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, authz *appauth.AuthorizationService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		authz:       authz,
		logger:      logger,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Creates a student account and signs it in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "User registration information"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse} "User registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !middleware.BindJSON(ctx, &req) {
		c.logger.Warn().Msg("Invalid registration request payload")
		return
	}

	resp, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Failed to register user")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// Login handles user login
// @Summary User login
// @Description Authenticates a user and returns an access token and a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Info().Err(err).Str("email", req.Email).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Exchanges a refresh token, or a still valid access token, for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest false "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Token refreshed"
// @Failure 401 {object} dto.ErrorResponse "Invalid, expired or revoked token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	// The body is optional when a bearer token is sent
	if ctx.Request.ContentLength > 0 && !middleware.BindJSON(ctx, &req) {
		return
	}

	var bearerUserID string
	if p, ok := middleware.GetPrincipal(ctx); ok {
		bearerUserID = p.UserID
	}

	resp, err := c.authService.Refresh(ctx.Request.Context(), req.RefreshToken, bearerUserID)
	if err != nil {
		c.logger.Info().Err(err).Msg("Token refresh failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetUser returns the authenticated user
// @Summary Get current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "Current user"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/user [get]
func (c *AuthController) GetUser(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}

	user, err := c.authService.CurrentUser(ctx.Request.Context(), p.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user))
}

// UpdateUser changes the authenticated user's profile
// @Summary Update current user
// @Description Changes the display name and avatar of the authenticated user
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "Updated user"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/user [patch]
func (c *AuthController) UpdateUser(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.authService.UpdateProfile(ctx.Request.Context(), p.UserID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user))
}

// GetSession describes the presented access token
// @Summary Get session
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SessionResponse} "Session"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/session [get]
func (c *AuthController) GetSession(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}
	expiresAt, _ := middleware.GetTokenExpiry(ctx)

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(c.authService.Session(p, expiresAt)))
}

// Logout revokes the user's refresh tokens
// @Summary Logout
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Logged out"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}

	if err := c.authService.Logout(ctx.Request.Context(), p.UserID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Logged out"}))
}

// ListUsers returns every account
// @Summary List users
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.UserResponse} "Users"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Router /auth/admin/users [get]
func (c *AuthController) ListUsers(ctx *gin.Context) {
	if !c.requireAdmin(ctx) {
		return
	}

	users, err := c.authService.ListUsers(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}

// UpdateUserRole changes the role of a user found by email
// @Summary Update user role by email
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateRoleRequest true "Email and new role"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "Updated user"
// @Failure 400 {object} dto.ErrorResponse "Missing email or invalid role"
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /auth/admin/users/role-by-email [put]
func (c *AuthController) UpdateUserRole(ctx *gin.Context) {
	if !c.requireAdmin(ctx) {
		return
	}

	var req dto.UpdateRoleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.authService.UpdateUserRole(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user))
}

// requireAdmin checks the caller's current role in storage, not only the token claim
func (c *AuthController) requireAdmin(ctx *gin.Context) bool {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return false
	}
	if err := c.authz.ValidateAdmin(ctx.Request.Context(), p); err != nil {
		c.logger.Warn().Err(err).Str("userID", p.UserID).Msg("Admin check failed")
		middleware.HandleAPIError(ctx, err)
		return false
	}
	return true
}
