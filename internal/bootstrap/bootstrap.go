package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/lms/internal/app/auth"
	"github.com/yigit/lms/internal/app/certification"
	appControllers "github.com/yigit/lms/internal/app/controllers"
	"github.com/yigit/lms/internal/app/jobs"
	appMigrations "github.com/yigit/lms/internal/app/migrations"
	appRepos "github.com/yigit/lms/internal/app/repositories"
	appRoutes "github.com/yigit/lms/internal/app/routes"
	appServices "github.com/yigit/lms/internal/app/services"
	"github.com/yigit/lms/internal/config"
	"github.com/yigit/lms/internal/db"
	appMiddleware "github.com/yigit/lms/internal/middleware"
	pkgAuth "github.com/yigit/lms/internal/pkg/auth"
	"github.com/yigit/lms/internal/pkg/cache"
	"github.com/yigit/lms/internal/pkg/email"
	"github.com/yigit/lms/internal/pkg/filestorage"
	"github.com/yigit/lms/internal/pkg/helpers"
	"github.com/yigit/lms/internal/pkg/logger"
	"github.com/yigit/lms/internal/pkg/render"
	"github.com/yigit/lms/internal/pkg/tracing"
	"github.com/yigit/lms/internal/pkg/websocket"
	"github.com/yigit/lms/internal/seed"
)

// AppName is used in emails, traces and the API title
const AppName = "LMS"

// Version is set at build time with -ldflags
var Version = "dev"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	Cache        cache.Cache
	FileStorage  *filestorage.LocalStorage

	Publisher          *appServices.ArtifactPublisher
	CertificateService *appServices.CertificateService
	BatchService       *appServices.BatchService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Hub            *websocket.Hub
	WSHandler      *websocket.Handler
	Scheduler      *jobs.Scheduler

	ShutdownTracing tracing.ShutdownFunc
	Logger          zerolog.Logger
}

// LoadConfigAndSetupLogger loads .env (if any), the YAML configuration and
// initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	if err := godotenv.Load(); err == nil {
		logger.Debug().Msg("Loaded environment from .env")
	}

	configPath := config.GetEnv("CONFIG_PATH", filepath.Join("configs", "config.yaml"))
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	level := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  level,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})
	lgr.Info().Str("logLevel", string(level)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects to PostgreSQL, applies migrations and seeds the
// default admin when configured.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.MigrateFromDirectory(ctx, cfg.Database.MigrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	if cfg.Database.Seed {
		opts := seed.Options{
			AdminEmail:    config.GetEnv("SEED_ADMIN_EMAIL", ""),
			AdminPassword: config.GetEnv("SEED_ADMIN_PASSWORD", ""),
			AdminName:     config.GetEnv("SEED_ADMIN_NAME", ""),
		}
		err := database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
			repos := appRepos.NewRepositories(tx)
			return seed.CreateDefaultData(ctx, repos.UserRepository, repos.CourseRepository, opts, lgr)
		})
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return database, nil
}

// BuildDependencies initializes repositories, services, controllers and background workers.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Server.Mode,
		Version:     Version,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	deps.ShutdownTracing = shutdownTracing

	deps.Repos = appRepos.NewRepositories(database.Pool)

	cacheTTL := config.Duration(cfg.Redis.TTL)
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			TTL:       cacheTTL,
			KeyPrefix: "lms:",
		})
		if err != nil {
			lgr.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, using in-memory cache")
			deps.Cache = cache.NewMemoryCache(cacheTTL)
		} else {
			lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis cache connected")
			deps.Cache = redisCache
		}
	} else {
		deps.Cache = cache.NewMemoryCache(cacheTTL)
	}

	// Links stay relative to the API so they survive host changes.
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, "")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	pngRenderer, err := render.NewPNGRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize certificate renderer: %w", err)
	}

	sender := email.NewSender(email.Config{
		Provider:       cfg.Email.Provider,
		AppName:        AppName,
		FromName:       cfg.Email.FromName,
		FromEmail:      cfg.Email.FromEmail,
		SendGridAPIKey: cfg.Email.SendGridAPIKey,
		SMTP: email.SMTPConfig{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromName:  cfg.Email.FromName,
			FromEmail: cfg.Email.FromEmail,
			UseTLS:    cfg.Email.SMTPUseTLS,
		},
	}, lgr)
	notifier := email.NewNotifier(sender, AppName)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})
	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.UserRepository)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Publisher = appServices.NewArtifactPublisher(
		deps.Repos.CertificateRepository,
		deps.Repos.UserRepository,
		deps.FileStorage,
		pngRenderer,
		notifier,
		cfg.Server.BaseURL,
		logger.Component("artifacts"),
	)

	issuer := certification.NewIssuer(
		deps.Repos.CertificateRepository,
		deps.Repos.EnrollmentRepository,
		certification.WithSnapshotResolver(appServices.NewSnapshotResolver(deps.Repos.UserRepository, deps.Repos.CourseRepository)),
		certification.WithAfterIssue(deps.Publisher.AfterIssue),
		certification.WithLogger(logger.Component("issuer")),
	)

	deps.CertificateService = appServices.NewCertificateService(appServices.CertificateServiceDeps{
		Certificates: deps.Repos.CertificateRepository,
		Issuer:       issuer,
		Authz:        deps.AuthzService,
		Cache:        deps.Cache,
		CacheTTL:     cacheTTL,
		Storage:      deps.FileStorage,
		PNG:          pngRenderer,
		VerifyURL:    deps.Publisher.VerifyURL,
	}, lgr)

	deps.Hub = websocket.NewHub(logger.Component("websocket"))
	deps.BatchService = appServices.NewBatchService(
		certification.NewCoordinator(issuer, logger.Component("batch")),
		deps.Repos.EnrollmentRepository,
		deps.Hub,
		deps.Cache,
		lgr,
	)
	deps.WSHandler = websocket.NewHandler(deps.Hub, deps.BatchService, appMiddleware.HandleAPIError, lgr)

	authService := appServices.NewAuthService(deps.Repos.UserRepository, deps.Repos.TokenRepository, deps.JWTService, lgr)
	enrollmentService := appServices.NewEnrollmentService(deps.Repos.EnrollmentRepository, deps.Repos.CourseRepository, deps.AuthzService, lgr)
	courseService := appServices.NewCourseService(deps.Repos.CourseRepository, deps.AuthzService, lgr)

	deps.Controllers = appRoutes.Controllers{
		Auth:        appControllers.NewAuthController(authService, deps.AuthzService, lgr),
		Certificate: appControllers.NewCertificateController(deps.CertificateService, lgr),
		Enrollment:  appControllers.NewEnrollmentController(enrollmentService, lgr),
		Course:      appControllers.NewCourseController(courseService, lgr),
		Batch:       appControllers.NewBatchController(deps.BatchService, lgr),
	}

	deps.Scheduler, err = jobs.NewScheduler(jobs.Config{
		AutoIssueSpec:  cfg.Jobs.AutoIssueSpec,
		BatchRetention: config.Duration(cfg.Jobs.BatchRetention),
	}, deps.BatchService, deps.Repos.TokenRepository, deps.BatchService, logger.Component("jobs"))
	if err != nil {
		return nil, fmt.Errorf("failed to configure scheduler: %w", err)
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, database *db.PostgresDB, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.Tracing(cfg.Tracing.ServiceName),
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(logger.Component("http")),
		appMiddleware.CORS(cfg.CORSOriginList()),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.WSHandler)

	router.Static(filestorage.PublicPrefix, deps.FileStorage.BasePath())
	lgr.Info().Str("path", deps.FileStorage.BasePath()).Msg("Static file serving configured for uploads directory")

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
	})

	return router
}
