package main

import (
	"os"

	"github.com/yigit/lms/internal/pkg/logger"
	"github.com/yigit/lms/internal/server"
)

// @title LMS Certificate API
// @version 1.0
// @description Course enrollments, progress tracking and certificate issuance for the learning platform
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@lms.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		// Setup errors are already logged by the bootstrap functions
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
