package certification_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/lms/internal/app/certification"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/repositories/memory"
)

func seedEnrollment(t *testing.T, db *memory.DB, userID, courseID string, p *int) {
	t.Helper()
	_, err := db.Enrollments().Create(context.Background(), &models.Enrollment{UserID: userID, CourseID: courseID, Progress: p})
	require.NoError(t, err)
}

func newIssuer(db *memory.DB, opts ...certification.Option) *certification.Issuer {
	return certification.NewIssuer(db.Certificates(), db.Enrollments(), opts...)
}

type mockCertificateStore struct {
	findFn   func(ctx context.Context, userID, courseID string) (*models.Certificate, error)
	insertFn func(ctx context.Context, cert *models.Certificate) (*models.Certificate, error)
}

func (m *mockCertificateStore) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Certificate, error) {
	return m.findFn(ctx, userID, courseID)
}

func (m *mockCertificateStore) Insert(ctx context.Context, cert *models.Certificate) (*models.Certificate, error) {
	return m.insertFn(ctx, cert)
}

func (m *mockCertificateStore) List(context.Context, models.CertificateFilter) ([]*models.Certificate, error) {
	return nil, nil
}

type resolverFunc func(ctx context.Context, userID, courseID string) (certification.Snapshot, error)

func (f resolverFunc) ResolveSnapshot(ctx context.Context, userID, courseID string) (certification.Snapshot, error) {
	return f(ctx, userID, courseID)
}

func TestIssue_CreatesCertificate(t *testing.T) {
	db := memory.New()
	seedEnrollment(t, db, "u1", "c1", progress(100))

	res, err := newIssuer(db).Issue(context.Background(), certification.Request{
		UserID:   "u1",
		CourseID: "c1",
		Snapshot: certification.Snapshot{UserName: "Ana", CourseName: "Go 101", CourseHours: 12},
	})

	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	require.NotNil(t, res.Certificate)
	assert.Equal(t, "u1", res.Certificate.UserID)
	assert.Equal(t, "c1", res.Certificate.CourseID)
	assert.Equal(t, "Ana", res.Certificate.UserName)
	assert.Equal(t, "Go 101", res.Certificate.CourseName)
	assert.Equal(t, 12, res.Certificate.CourseHours)
	assert.NotEmpty(t, res.Certificate.ID)
	assert.Equal(t, 1, db.Certificates().Count())
}

func TestIssue_IsIdempotent(t *testing.T) {
	db := memory.New()
	seedEnrollment(t, db, "u1", "c1", progress(100))
	issuer := newIssuer(db)
	req := certification.Request{UserID: "u1", CourseID: "c1"}

	first, err := issuer.Issue(context.Background(), req)
	require.NoError(t, err)
	second, err := issuer.Issue(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Certificate.ID, second.Certificate.ID)
	assert.False(t, first.Duplicate)
	assert.True(t, second.Duplicate)
	assert.Equal(t, 1, db.Certificates().Count())
}

func TestIssue_NotEnrolled(t *testing.T) {
	db := memory.New()

	_, err := newIssuer(db).Issue(context.Background(), certification.Request{UserID: "u9", CourseID: "c1"})

	assert.ErrorIs(t, err, certification.ErrNotEnrolled)
	assert.Equal(t, 0, db.Certificates().Count())
}

func TestIssue_NotEligible(t *testing.T) {
	db := memory.New()
	seedEnrollment(t, db, "u2", "c1", progress(40))
	seedEnrollment(t, db, "u3", "c1", nil)
	issuer := newIssuer(db)

	_, err := issuer.Issue(context.Background(), certification.Request{UserID: "u2", CourseID: "c1"})
	assert.ErrorIs(t, err, certification.ErrNotEligible)

	_, err = issuer.Issue(context.Background(), certification.Request{UserID: "u3", CourseID: "c1"})
	assert.ErrorIs(t, err, certification.ErrNotEligible)

	assert.Equal(t, 0, db.Certificates().Count())
}

func TestIssue_RequiresIDs(t *testing.T) {
	db := memory.New()

	_, err := newIssuer(db).Issue(context.Background(), certification.Request{UserID: " ", CourseID: "c1"})

	assert.ErrorIs(t, err, certification.ErrInvalidRequest)
}

func TestIssue_ConcurrentInsertReturnsWinner(t *testing.T) {
	db := memory.New()
	seedEnrollment(t, db, "u1", "c1", progress(100))
	winner := &models.Certificate{ID: "winner", UserID: "u1", CourseID: "c1"}

	finds := 0
	store := &mockCertificateStore{
		findFn: func(context.Context, string, string) (*models.Certificate, error) {
			finds++
			if finds == 1 {
				return nil, nil
			}
			return winner, nil
		},
		insertFn: func(context.Context, *models.Certificate) (*models.Certificate, error) {
			return nil, certification.ErrUniqueViolation
		},
	}

	res, err := certification.NewIssuer(store, db.Enrollments()).Issue(context.Background(), certification.Request{UserID: "u1", CourseID: "c1"})

	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, "winner", res.Certificate.ID)
	assert.Equal(t, 2, finds)
}

func TestIssue_StorageFailure(t *testing.T) {
	db := memory.New()
	seedEnrollment(t, db, "u1", "c1", progress(100))
	boom := errors.New("connection reset")

	store := &mockCertificateStore{
		findFn: func(context.Context, string, string) (*models.Certificate, error) { return nil, nil },
		insertFn: func(context.Context, *models.Certificate) (*models.Certificate, error) {
			return nil, boom
		},
	}

	_, err := certification.NewIssuer(store, db.Enrollments()).Issue(context.Background(), certification.Request{UserID: "u1", CourseID: "c1"})

	assert.ErrorIs(t, err, certification.ErrStorageFailure)
	assert.ErrorIs(t, err, boom)
}

func TestIssue_SnapshotResolution(t *testing.T) {
	db := memory.New()
	seedEnrollment(t, db, "u1", "c1", progress(100))
	seedEnrollment(t, db, "u2", "c1", progress(100))

	resolver := resolverFunc(func(_ context.Context, userID, _ string) (certification.Snapshot, error) {
		if userID == "u2" {
			return certification.Snapshot{}, errors.New("profile service down")
		}
		return certification.Snapshot{UserName: "Resolved", CourseName: "Resolved course", CourseHours: 8}, nil
	})
	issuer := newIssuer(db, certification.WithSnapshotResolver(resolver))

	res, err := issuer.Issue(context.Background(), certification.Request{
		UserID:   "u1",
		CourseID: "c1",
		Snapshot: certification.Snapshot{UserName: "Caller name"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Caller name", res.Certificate.UserName)
	assert.Equal(t, "Resolved course", res.Certificate.CourseName)
	assert.Equal(t, 8, res.Certificate.CourseHours)

	res, err = issuer.Issue(context.Background(), certification.Request{UserID: "u2", CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "Student", res.Certificate.UserName)
	assert.Equal(t, "Completed course", res.Certificate.CourseName)
	assert.Equal(t, models.DefaultCourseHours, res.Certificate.CourseHours)
}

func TestIssue_IssueDateAndClock(t *testing.T) {
	db := memory.New()
	seedEnrollment(t, db, "u1", "c1", progress(100))
	seedEnrollment(t, db, "u2", "c1", progress(100))
	fixed := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	supplied := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	issuer := newIssuer(db, certification.WithClock(func() time.Time { return fixed }))

	res, err := issuer.Issue(context.Background(), certification.Request{UserID: "u1", CourseID: "c1"})
	require.NoError(t, err)
	assert.True(t, res.Certificate.IssueDate.Equal(fixed))

	res, err = issuer.Issue(context.Background(), certification.Request{UserID: "u2", CourseID: "c1", IssueDate: &supplied})
	require.NoError(t, err)
	assert.True(t, res.Certificate.IssueDate.Equal(supplied))
}

func TestIssue_AfterIssueHook(t *testing.T) {
	db := memory.New()
	seedEnrollment(t, db, "u1", "c1", progress(100))

	var hooked []string
	issuer := newIssuer(db, certification.WithAfterIssue(
		func(_ context.Context, cert *models.Certificate) error {
			hooked = append(hooked, cert.ID)
			return errors.New("renderer unavailable")
		},
	))

	res, err := issuer.Issue(context.Background(), certification.Request{UserID: "u1", CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, []string{res.Certificate.ID}, hooked)

	// Duplicates do not run hooks again.
	_, err = issuer.Issue(context.Background(), certification.Request{UserID: "u1", CourseID: "c1"})
	require.NoError(t, err)
	assert.Len(t, hooked, 1)
}

func TestNewRegistrationNumber(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	pattern := regexp.MustCompile(`^CERT-[0-9A-Z]+-[0-9A-Z]{5}$`)

	a := certification.NewRegistrationNumber(now)
	b := certification.NewRegistrationNumber(now)

	assert.Regexp(t, pattern, a)
	assert.Regexp(t, pattern, b)
	assert.Equal(t, a[:len(a)-5], b[:len(b)-5])
}
