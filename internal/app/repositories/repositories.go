package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/lms/internal/app/models"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so every repository can run
// inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ICertificateRepository defines certificate persistence
type ICertificateRepository interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Certificate, error)
	Insert(ctx context.Context, cert *models.Certificate) (*models.Certificate, error)
	List(ctx context.Context, filter models.CertificateFilter) ([]*models.Certificate, error)
	GetByID(ctx context.Context, id string) (*models.Certificate, error)
	Update(ctx context.Context, id string, upd models.CertificateUpdate) (*models.Certificate, error)
	SetArtifact(ctx context.Context, id string, url, html *string) error
	Delete(ctx context.Context, id string) error
	ListRecent(ctx context.Context, limit uint64) ([]*models.Certificate, error)
}

// IEnrollmentRepository defines enrollment persistence
type IEnrollmentRepository interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]*models.Enrollment, error)
	// UpdateProgress never lowers stored progress; a lower value yields apperrors.ErrProgressRegression.
	UpdateProgress(ctx context.Context, userID, courseID string, progress int) (*models.Enrollment, error)
}

// IUserRepository defines user persistence
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id string, name *string, avatarURL *string) (*models.User, error)
	UpdateRoleByEmail(ctx context.Context, email string, role models.RoleType) (*models.User, error)
}

// ICourseRepository defines the course catalog
type ICourseRepository interface {
	GetByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context) ([]*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
}

// ITokenRepository defines refresh token persistence
type ITokenRepository interface {
	CreateToken(ctx context.Context, token, userID string, expiryDate time.Time) error
	GetTokenByValue(ctx context.Context, token string) (string, time.Time, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID string) error
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository        *UserRepository
	CourseRepository      *CourseRepository
	EnrollmentRepository  *EnrollmentRepository
	CertificateRepository *CertificateRepository
	TokenRepository       *TokenRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		UserRepository:        NewUserRepository(db),
		CourseRepository:      NewCourseRepository(db),
		EnrollmentRepository:  NewEnrollmentRepository(db),
		CertificateRepository: NewCertificateRepository(db),
		TokenRepository:       NewTokenRepository(db),
	}
}

func newStatementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

var (
	_ ICertificateRepository = (*CertificateRepository)(nil)
	_ IEnrollmentRepository  = (*EnrollmentRepository)(nil)
	_ IUserRepository        = (*UserRepository)(nil)
	_ ICourseRepository      = (*CourseRepository)(nil)
	_ ITokenRepository       = (*TokenRepository)(nil)
)
