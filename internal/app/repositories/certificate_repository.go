package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/lms/internal/app/certification"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/pkg/apperrors"
	"github.com/yigit/lms/internal/pkg/dberrors"
	"github.com/yigit/lms/internal/pkg/helpers"
	"github.com/yigit/lms/internal/pkg/logger"
)

const certificatesUserCourseKey = "certificates_user_course_key"

var certificateColumns = []string{
	"id", "user_id", "course_id", "user_name", "course_name", "course_hours",
	"registration_number", "issue_date", "expiry_date", "certificate_url", "certificate_html",
	"created_at", "updated_at",
}

// CertificateRepository handles certificate database operations
type CertificateRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewCertificateRepository creates a new CertificateRepository
func NewCertificateRepository(db DBTX) *CertificateRepository {
	return &CertificateRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

func scanCertificate(row pgx.Row) (*models.Certificate, error) {
	c := &models.Certificate{}
	err := row.Scan(
		&c.ID, &c.UserID, &c.CourseID, &c.UserName, &c.CourseName, &c.CourseHours,
		&c.RegistrationNumber, &c.IssueDate, &c.ExpiryDate, &c.CertificateURL, &c.CertificateHTML,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByUserAndCourse returns the certificate of a pair, or nil when there is none
func (r *CertificateRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Certificate, error) {
	sql, args, err := r.sb.Select(certificateColumns...).
		From("certificates").
		Where(squirrel.Eq{"user_id": userID, "course_id": courseID}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building find certificate SQL")
		return nil, fmt.Errorf("failed to build find certificate query: %w", err)
	}

	cert, err := scanCertificate(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logger.Error().Err(err).Str("userID", userID).Str("courseID", courseID).Msg("Error scanning certificate row")
		return nil, fmt.Errorf("error finding certificate: %w", err)
	}
	return cert, nil
}

// Insert stores a new certificate. The (user_id, course_id) unique constraint
// is reported as certification.ErrUniqueViolation.
func (r *CertificateRepository) Insert(ctx context.Context, cert *models.Certificate) (*models.Certificate, error) {
	sql, args, err := r.sb.Insert("certificates").
		Columns(certificateColumns...).
		Values(
			cert.ID, cert.UserID, cert.CourseID, cert.UserName, cert.CourseName, cert.CourseHours,
			cert.RegistrationNumber, cert.IssueDate, cert.ExpiryDate, cert.CertificateURL, cert.CertificateHTML,
			cert.CreatedAt, cert.UpdatedAt,
		).
		Suffix(helpers.Returning(certificateColumns)).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building insert certificate SQL")
		return nil, fmt.Errorf("failed to build insert certificate query: %w", err)
	}

	created, err := scanCertificate(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, certificatesUserCourseKey) {
			return nil, fmt.Errorf("%w: %w", certification.ErrUniqueViolation, err)
		}
		logger.Error().Err(err).Str("userID", cert.UserID).Str("courseID", cert.CourseID).Msg("Error executing insert certificate query")
		return nil, fmt.Errorf("error inserting certificate: %w", err)
	}
	return created, nil
}

// List returns certificates matching the filter, newest first
func (r *CertificateRepository) List(ctx context.Context, filter models.CertificateFilter) ([]*models.Certificate, error) {
	query := r.sb.Select(certificateColumns...).
		From("certificates").
		OrderBy("issue_date DESC", "id")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.CourseID != "" {
		query = query.Where(squirrel.Eq{"course_id": filter.CourseID})
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list certificates SQL")
		return nil, fmt.Errorf("failed to build list certificates query: %w", err)
	}
	return r.queryCertificates(ctx, sql, args)
}

// ListRecent reads the recent_certificates view
func (r *CertificateRepository) ListRecent(ctx context.Context, limit uint64) ([]*models.Certificate, error) {
	sql, args, err := r.sb.Select(certificateColumns...).
		From("recent_certificates").
		Limit(limit).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building recent certificates SQL")
		return nil, fmt.Errorf("failed to build recent certificates query: %w", err)
	}
	return r.queryCertificates(ctx, sql, args)
}

func (r *CertificateRepository) queryCertificates(ctx context.Context, sql string, args []any) ([]*models.Certificate, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing certificates query")
		return nil, fmt.Errorf("error querying certificates: %w", err)
	}
	defer rows.Close()

	certs := []*models.Certificate{}
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning certificate row")
			return nil, fmt.Errorf("error scanning certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating certificate rows")
		return nil, fmt.Errorf("error iterating certificates: %w", err)
	}
	return certs, nil
}

// GetByID retrieves a certificate by ID
func (r *CertificateRepository) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	sql, args, err := r.sb.Select(certificateColumns...).
		From("certificates").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get certificate SQL")
		return nil, fmt.Errorf("failed to build get certificate query: %w", err)
	}

	cert, err := scanCertificate(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCertificateNotFound
		}
		logger.Error().Err(err).Str("certificateID", id).Msg("Error scanning certificate row")
		return nil, fmt.Errorf("error retrieving certificate: %w", err)
	}
	return cert, nil
}

// Update applies an administrative correction and returns the updated row
func (r *CertificateRepository) Update(ctx context.Context, id string, upd models.CertificateUpdate) (*models.Certificate, error) {
	if upd.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	query := r.sb.Update("certificates").
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		Suffix(helpers.Returning(certificateColumns))

	if upd.UserName != nil {
		query = query.Set("user_name", *upd.UserName)
	}
	if upd.CourseName != nil {
		query = query.Set("course_name", *upd.CourseName)
	}
	if upd.CourseHours != nil {
		query = query.Set("course_hours", *upd.CourseHours)
	}
	if upd.IssueDate != nil {
		query = query.Set("issue_date", *upd.IssueDate)
	}
	if upd.ExpiryDate != nil {
		query = query.Set("expiry_date", *upd.ExpiryDate)
	}
	if upd.CertificateURL != nil {
		query = query.Set("certificate_url", *upd.CertificateURL)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update certificate SQL")
		return nil, fmt.Errorf("failed to build update certificate query: %w", err)
	}

	cert, err := scanCertificate(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCertificateNotFound
		}
		logger.Error().Err(err).Str("certificateID", id).Msg("Error executing update certificate query")
		return nil, fmt.Errorf("error updating certificate: %w", err)
	}
	return cert, nil
}

// SetArtifact records the rendered artifact of a certificate. Nil values are left untouched.
func (r *CertificateRepository) SetArtifact(ctx context.Context, id string, url, html *string) error {
	if url == nil && html == nil {
		return nil
	}

	query := r.sb.Update("certificates").
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id})
	if url != nil {
		query = query.Set("certificate_url", *url)
	}
	if html != nil {
		query = query.Set("certificate_html", *html)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building set artifact SQL")
		return fmt.Errorf("failed to build set artifact query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("certificateID", id).Msg("Error executing set artifact query")
		return fmt.Errorf("error storing certificate artifact: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCertificateNotFound
	}
	return nil
}

// Delete removes a certificate
func (r *CertificateRepository) Delete(ctx context.Context, id string) error {
	sql, args, err := r.sb.Delete("certificates").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building delete certificate SQL")
		return fmt.Errorf("failed to build delete certificate query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("certificateID", id).Msg("Error executing delete certificate query")
		return fmt.Errorf("error deleting certificate: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCertificateNotFound
	}
	return nil
}
