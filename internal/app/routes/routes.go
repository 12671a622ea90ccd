package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/lms/internal/app/controllers"
	"github.com/yigit/lms/internal/middleware"
	"github.com/yigit/lms/internal/pkg/websocket"
)

// Controllers groups the HTTP handlers mounted by SetupRouter
type Controllers struct {
	Auth        *controllers.AuthController
	Certificate *controllers.CertificateController
	Enrollment  *controllers.EnrollmentController
	Batch       *controllers.BatchController
	Course      *controllers.CourseController
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	c Controllers,
	authMiddleware *middleware.AuthMiddleware,
	wsHandler *websocket.Handler,
) {
	// --- Auth routes ---
	auth := router.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		// A still valid access token may stand in for the refresh token
		auth.POST("/refresh", authMiddleware.OptionalJWTAuth(), c.Auth.RefreshToken)

		authed := auth.Group("")
		authed.Use(authMiddleware.JWTAuth())
		{
			authed.GET("/user", c.Auth.GetUser)
			authed.PATCH("/user", c.Auth.UpdateUser)
			authed.GET("/session", c.Auth.GetSession)
			authed.POST("/logout", c.Auth.Logout)

			// Role is re-read from storage by the controller
			authed.GET("/admin/users", c.Auth.ListUsers)
			authed.PUT("/admin/users/role-by-email", c.Auth.UpdateUserRole)
		}
	}

	api := router.Group("/api")
	api.Use(authMiddleware.JWTAuth())

	// --- Certificate routes ---
	certificates := api.Group("/certificates")
	{
		certificates.GET("/check", c.Certificate.Check)
		certificates.POST("", c.Certificate.Create)
		certificates.GET("", c.Certificate.List)
		certificates.GET("/:id", c.Certificate.GetByID)
		certificates.GET("/:id/html", c.Certificate.GetHTML)
		certificates.GET("/:id/png", c.Certificate.GetPNG)

		admin := certificates.Group("")
		admin.Use(authMiddleware.AdminOnly())
		{
			admin.GET("/recent", c.Certificate.Recent)
			admin.PUT("/:id", c.Certificate.Update)
			admin.DELETE("/:id", c.Certificate.Delete)

			admin.POST("/batch", c.Batch.Start)
			admin.GET("/batch/:id", c.Batch.Get)
			admin.DELETE("/batch/:id", c.Batch.Cancel)
			admin.GET("/batch/:id/ws", wsHandler.HandleConnection)
		}
	}

	// --- Course routes ---
	courses := api.Group("/courses")
	{
		courses.GET("", c.Course.List)
		courses.GET("/:id", c.Course.GetByID)
		courses.POST("", authMiddleware.AdminOnly(), c.Course.Create)
	}

	// --- Enrollment routes ---
	enrollments := api.Group("/enrollments")
	{
		enrollments.GET("", c.Enrollment.List)
		enrollments.POST("", c.Enrollment.Create)
		enrollments.PUT("/progress", c.Enrollment.UpdateProgress)
		enrollments.GET("/:userId/:courseId", c.Enrollment.Get)
	}
}
