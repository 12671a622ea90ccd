package certification

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/lms/internal/app/models"
)

const (
	fallbackUserName   = "Student"
	fallbackCourseName = "Completed course"
)

// CertificateStore is the persistence port for certificates.
type CertificateStore interface {
	// FindByUserAndCourse returns nil, nil when no certificate exists.
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Certificate, error)
	// Insert persists a new certificate. It returns an error wrapping
	// ErrUniqueViolation when the (user, course) pair already has one.
	Insert(ctx context.Context, cert *models.Certificate) (*models.Certificate, error)
	List(ctx context.Context, filter models.CertificateFilter) ([]*models.Certificate, error)
}

// EnrollmentStore is the read port for enrollments.
type EnrollmentStore interface {
	// FindByUserAndCourse returns nil, nil when the user is not enrolled.
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
}

// SnapshotResolver looks up the current user and course names.
type SnapshotResolver interface {
	ResolveSnapshot(ctx context.Context, userID, courseID string) (Snapshot, error)
}

// Snapshot freezes the names printed on a certificate.
type Snapshot struct {
	UserName    string `json:"userName"`
	CourseName  string `json:"courseName"`
	CourseHours int    `json:"courseHours"`
}

func (s Snapshot) complete() bool {
	return strings.TrimSpace(s.UserName) != "" && strings.TrimSpace(s.CourseName) != "" && s.CourseHours > 0
}

// merge fills blank fields of s from other.
func (s Snapshot) merge(other Snapshot) Snapshot {
	if strings.TrimSpace(s.UserName) == "" {
		s.UserName = other.UserName
	}
	if strings.TrimSpace(s.CourseName) == "" {
		s.CourseName = other.CourseName
	}
	if s.CourseHours <= 0 {
		s.CourseHours = other.CourseHours
	}
	return s
}

// Request asks for a certificate for one (user, course) pair.
type Request struct {
	UserID    string     `json:"userId"`
	CourseID  string     `json:"courseId"`
	Snapshot  Snapshot   `json:"snapshot"`
	IssueDate *time.Time `json:"issueDate,omitempty"`
}

// Result is a successful issuance. Duplicate is true when an existing
// certificate was returned instead of a new one being created.
type Result struct {
	Certificate *models.Certificate
	Duplicate   bool
}

// AfterIssueFunc runs once a new certificate has been persisted. It may update
// artifact fields on cert. Errors are logged and never fail the issuance.
type AfterIssueFunc func(ctx context.Context, cert *models.Certificate) error

// Issuer creates certificates idempotently.
type Issuer struct {
	certs       CertificateStore
	enrollments EnrollmentStore
	resolver    SnapshotResolver
	afterIssue  []AfterIssueFunc
	now         func() time.Time
	logger      zerolog.Logger
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithSnapshotResolver fills in names the caller did not provide.
func WithSnapshotResolver(r SnapshotResolver) Option {
	return func(i *Issuer) { i.resolver = r }
}

// WithAfterIssue registers hooks run after a new certificate is stored.
func WithAfterIssue(fns ...AfterIssueFunc) Option {
	return func(i *Issuer) { i.afterIssue = append(i.afterIssue, fns...) }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// WithLogger sets the issuer logger.
func WithLogger(l zerolog.Logger) Option {
	return func(i *Issuer) { i.logger = l }
}

// NewIssuer creates an Issuer over the given stores.
func NewIssuer(certs CertificateStore, enrollments EnrollmentStore, opts ...Option) *Issuer {
	i := &Issuer{
		certs:       certs,
		enrollments: enrollments,
		now:         time.Now,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue returns the certificate for the pair, creating it when the user is
// enrolled with 100% progress. An existing certificate is returned as a
// duplicate result, including when a concurrent insert wins the race.
func (i *Issuer) Issue(ctx context.Context, req Request) (Result, error) {
	userID := strings.TrimSpace(req.UserID)
	courseID := strings.TrimSpace(req.CourseID)
	if userID == "" || courseID == "" {
		return Result{}, ErrInvalidRequest
	}

	existing, err := i.certs.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return Result{}, storageFailure("find certificate", err)
	}
	if existing != nil {
		return Result{Certificate: existing, Duplicate: true}, nil
	}

	enrollment, err := i.enrollments.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return Result{}, storageFailure("find enrollment", err)
	}
	if enrollment == nil {
		return Result{}, ErrNotEnrolled
	}
	if !IsEligible(enrollment) {
		return Result{}, ErrNotEligible
	}

	snapshot := i.snapshot(ctx, userID, courseID, req.Snapshot)

	now := i.now().UTC()
	issueDate := now
	if req.IssueDate != nil && !req.IssueDate.IsZero() {
		issueDate = req.IssueDate.UTC()
	}

	cert := &models.Certificate{
		ID:                 uuid.NewString(),
		UserID:             userID,
		CourseID:           courseID,
		UserName:           snapshot.UserName,
		CourseName:         snapshot.CourseName,
		CourseHours:        snapshot.CourseHours,
		RegistrationNumber: NewRegistrationNumber(now),
		IssueDate:          issueDate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	created, err := i.certs.Insert(ctx, cert)
	if err != nil {
		if !errors.Is(err, ErrUniqueViolation) {
			return Result{}, storageFailure("insert certificate", err)
		}
		// Lost the race against a concurrent issuance for the same pair.
		winner, findErr := i.certs.FindByUserAndCourse(ctx, userID, courseID)
		if findErr != nil {
			return Result{}, storageFailure("find certificate after conflict", findErr)
		}
		if winner == nil {
			return Result{}, storageFailure("find certificate after conflict", err)
		}
		i.logger.Debug().Str("userID", userID).Str("courseID", courseID).Msg("Concurrent issuance detected, returning existing certificate")
		return Result{Certificate: winner, Duplicate: true}, nil
	}

	for _, hook := range i.afterIssue {
		if hookErr := hook(ctx, created); hookErr != nil {
			i.logger.Warn().Err(hookErr).Str("certificateID", created.ID).Msg("Post-issuance step failed")
		}
	}

	i.logger.Info().
		Str("certificateID", created.ID).
		Str("userID", userID).
		Str("courseID", courseID).
		Msg("Certificate issued")

	return Result{Certificate: created}, nil
}

func (i *Issuer) snapshot(ctx context.Context, userID, courseID string, given Snapshot) Snapshot {
	snap := given
	if !snap.complete() && i.resolver != nil {
		resolved, err := i.resolver.ResolveSnapshot(ctx, userID, courseID)
		if err != nil {
			i.logger.Warn().Err(err).Str("userID", userID).Str("courseID", courseID).Msg("Could not resolve certificate names, using defaults")
		} else {
			snap = snap.merge(resolved)
		}
	}
	return snap.merge(Snapshot{
		UserName:    fallbackUserName,
		CourseName:  fallbackCourseName,
		CourseHours: models.DefaultCourseHours,
	})
}

const registrationAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewRegistrationNumber builds a human-readable certificate registration number
// of the form CERT-<base36 millis>-<5 random chars>.
func NewRegistrationNumber(now time.Time) string {
	suffix := make([]byte, 5)
	max := big.NewInt(int64(len(registrationAlphabet)))
	for idx := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			n = big.NewInt(int64(now.UnixNano()+int64(idx)) % max.Int64())
		}
		suffix[idx] = registrationAlphabet[n.Int64()]
	}
	return "CERT-" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)) + "-" + string(suffix)
}
