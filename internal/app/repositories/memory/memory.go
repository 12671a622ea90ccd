// Package memory provides in-memory repositories for tests and local runs
// without PostgreSQL. Each store honours the same uniqueness rules as the SQL schema.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/lms/internal/app/certification"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/repositories"
	"github.com/yigit/lms/internal/pkg/apperrors"
)

type tokenRow struct {
	userID    string
	expiry    time.Time
	revoked   bool
	createdAt time.Time
}

// DB is a shared in-memory database. Stores created from the same DB see each other's rows.
type DB struct {
	mu           sync.Mutex
	users        map[string]*models.User
	courses      map[string]*models.Course
	enrollments  map[string]*models.Enrollment
	certificates map[string]*models.Certificate
	tokens       map[string]tokenRow
	now          func() time.Time
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{
		users:        map[string]*models.User{},
		courses:      map[string]*models.Course{},
		enrollments:  map[string]*models.Enrollment{},
		certificates: map[string]*models.Certificate{},
		tokens:       map[string]tokenRow{},
		now:          time.Now,
	}
}

func pairKey(userID, courseID string) string { return userID + "|" + courseID }

// CertificateStore implements the certificate repository.
type CertificateStore struct{ db *DB }

// Certificates returns the certificate store.
func (db *DB) Certificates() *CertificateStore { return &CertificateStore{db: db} }

func cloneCertificate(c *models.Certificate) *models.Certificate {
	cp := *c
	return &cp
}

// FindByUserAndCourse returns nil, nil when absent.
func (s *CertificateStore) FindByUserAndCourse(_ context.Context, userID, courseID string) (*models.Certificate, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.certificates {
		if c.UserID == userID && c.CourseID == courseID {
			return cloneCertificate(c), nil
		}
	}
	return nil, nil
}

// Insert stores a certificate, enforcing (user, course) and registration number uniqueness.
func (s *CertificateStore) Insert(_ context.Context, cert *models.Certificate) (*models.Certificate, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.certificates {
		if c.UserID == cert.UserID && c.CourseID == cert.CourseID {
			return nil, fmt.Errorf("%w: user %s course %s", certification.ErrUniqueViolation, cert.UserID, cert.CourseID)
		}
		if cert.RegistrationNumber != "" && c.RegistrationNumber == cert.RegistrationNumber {
			return nil, fmt.Errorf("duplicate registration number %s", cert.RegistrationNumber)
		}
	}
	stored := cloneCertificate(cert)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.db.now()
		stored.UpdatedAt = stored.CreatedAt
	}
	s.db.certificates[stored.ID] = stored
	return cloneCertificate(stored), nil
}

// List returns matching certificates, newest issue date first.
func (s *CertificateStore) List(_ context.Context, filter models.CertificateFilter) ([]*models.Certificate, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*models.Certificate{}
	for _, c := range s.db.certificates {
		if filter.UserID != "" && c.UserID != filter.UserID {
			continue
		}
		if filter.CourseID != "" && c.CourseID != filter.CourseID {
			continue
		}
		out = append(out, cloneCertificate(c))
	}
	sortCertificates(out)
	if filter.Limit > 0 && uint64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func sortCertificates(certs []*models.Certificate) {
	sort.Slice(certs, func(i, j int) bool {
		if !certs[i].IssueDate.Equal(certs[j].IssueDate) {
			return certs[i].IssueDate.After(certs[j].IssueDate)
		}
		return certs[i].ID < certs[j].ID
	})
}

// ListRecent mirrors the recent_certificates view.
func (s *CertificateStore) ListRecent(ctx context.Context, limit uint64) ([]*models.Certificate, error) {
	return s.List(ctx, models.CertificateFilter{Limit: limit})
}

// GetByID returns apperrors.ErrCertificateNotFound when absent.
func (s *CertificateStore) GetByID(_ context.Context, id string) (*models.Certificate, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.certificates[id]
	if !ok {
		return nil, apperrors.ErrCertificateNotFound
	}
	return cloneCertificate(c), nil
}

// Update applies the non-nil fields of upd.
func (s *CertificateStore) Update(_ context.Context, id string, upd models.CertificateUpdate) (*models.Certificate, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.certificates[id]
	if !ok {
		return nil, apperrors.ErrCertificateNotFound
	}
	if upd.IsEmpty() {
		return cloneCertificate(c), nil
	}
	if upd.UserName != nil {
		c.UserName = *upd.UserName
	}
	if upd.CourseName != nil {
		c.CourseName = *upd.CourseName
	}
	if upd.CourseHours != nil {
		c.CourseHours = *upd.CourseHours
	}
	if upd.IssueDate != nil {
		c.IssueDate = *upd.IssueDate
	}
	if upd.ExpiryDate != nil {
		expiry := *upd.ExpiryDate
		c.ExpiryDate = &expiry
	}
	if upd.CertificateURL != nil {
		url := *upd.CertificateURL
		c.CertificateURL = &url
	}
	c.UpdatedAt = s.db.now()
	return cloneCertificate(c), nil
}

// SetArtifact stores the rendered artifact references.
func (s *CertificateStore) SetArtifact(_ context.Context, id string, url, html *string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.certificates[id]
	if !ok {
		return apperrors.ErrCertificateNotFound
	}
	if url != nil {
		v := *url
		c.CertificateURL = &v
	}
	if html != nil {
		v := *html
		c.CertificateHTML = &v
	}
	return nil
}

// Delete removes a certificate.
func (s *CertificateStore) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.certificates[id]; !ok {
		return apperrors.ErrCertificateNotFound
	}
	delete(s.db.certificates, id)
	return nil
}

// Count returns the number of stored certificates.
func (s *CertificateStore) Count() int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.certificates)
}

// EnrollmentStore implements the enrollment repository.
type EnrollmentStore struct{ db *DB }

// Enrollments returns the enrollment store.
func (db *DB) Enrollments() *EnrollmentStore { return &EnrollmentStore{db: db} }

func cloneEnrollment(e *models.Enrollment) *models.Enrollment {
	cp := *e
	if e.Progress != nil {
		p := *e.Progress
		cp.Progress = &p
	}
	return &cp
}

// FindByUserAndCourse returns nil, nil when the user is not enrolled.
func (s *EnrollmentStore) FindByUserAndCourse(_ context.Context, userID, courseID string) (*models.Enrollment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if e, ok := s.db.enrollments[pairKey(userID, courseID)]; ok {
		return cloneEnrollment(e), nil
	}
	return nil, nil
}

// Create enrolls a user; a second enrollment of the same pair is rejected.
func (s *EnrollmentStore) Create(_ context.Context, enrollment *models.Enrollment) (*models.Enrollment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := pairKey(enrollment.UserID, enrollment.CourseID)
	if _, ok := s.db.enrollments[key]; ok {
		return nil, apperrors.ErrEnrollmentAlreadyExists
	}
	stored := cloneEnrollment(enrollment)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.EnrolledAt.IsZero() {
		stored.EnrolledAt = s.db.now()
	}
	s.db.enrollments[key] = stored
	return cloneEnrollment(stored), nil
}

// List returns matching enrollments in enrollment order.
func (s *EnrollmentStore) List(_ context.Context, filter models.EnrollmentFilter) ([]*models.Enrollment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*models.Enrollment{}
	for key, e := range s.db.enrollments {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.CourseID != "" && e.CourseID != filter.CourseID {
			continue
		}
		if filter.MinProgress != nil && (e.Progress == nil || *e.Progress < *filter.MinProgress) {
			continue
		}
		if filter.WithoutCert && s.db.hasCertificateLocked(key) {
			continue
		}
		out = append(out, cloneEnrollment(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EnrolledAt.Equal(out[j].EnrolledAt) {
			return out[i].EnrolledAt.Before(out[j].EnrolledAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Offset > 0 {
		if filter.Offset >= uint64(len(out)) {
			return []*models.Enrollment{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && uint64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (db *DB) hasCertificateLocked(key string) bool {
	for _, c := range db.certificates {
		if pairKey(c.UserID, c.CourseID) == key {
			return true
		}
	}
	return false
}

// UpdateProgress raises progress and never lowers it.
func (s *EnrollmentStore) UpdateProgress(_ context.Context, userID, courseID string, progress int) (*models.Enrollment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e, ok := s.db.enrollments[pairKey(userID, courseID)]
	if !ok {
		return nil, apperrors.ErrEnrollmentNotFound
	}
	if current := e.ProgressValue(); e.Progress != nil && progress < current {
		return nil, fmt.Errorf("%w: stored %d, requested %d", apperrors.ErrProgressRegression, current, progress)
	}
	p := progress
	e.Progress = &p
	if progress >= models.MaxProgress && e.CompletedAt == nil {
		now := s.db.now()
		e.CompletedAt = &now
	}
	return cloneEnrollment(e), nil
}

// UserStore implements the user repository.
type UserStore struct{ db *DB }

// Users returns the user store.
func (db *DB) Users() *UserStore { return &UserStore{db: db} }

func cloneUser(u *models.User) *models.User {
	cp := *u
	return &cp
}

// Create inserts a user; emails are unique case-insensitively.
func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := s.db.now()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	s.db.users[user.ID] = cloneUser(user)
	return nil
}

// GetByID returns apperrors.ErrUserNotFound when absent.
func (s *UserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (db *DB) userByEmailLocked(email string) *models.User {
	for _, u := range db.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

// GetByEmail returns apperrors.ErrUserNotFound when absent.
func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if u := s.db.userByEmailLocked(email); u != nil {
		return cloneUser(u), nil
	}
	return nil, apperrors.ErrUserNotFound
}

// EmailExists reports whether the email is registered.
func (s *UserStore) EmailExists(_ context.Context, email string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.userByEmailLocked(email) != nil, nil
}

// List returns users, newest first.
func (s *UserStore) List(_ context.Context) ([]*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*models.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

// UpdateProfile changes name and avatar; nil leaves a field untouched.
func (s *UserStore) UpdateProfile(_ context.Context, id string, name *string, avatarURL *string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	if name != nil {
		u.Name = *name
	}
	if avatarURL != nil {
		if strings.TrimSpace(*avatarURL) == "" {
			u.AvatarURL = nil
		} else {
			v := *avatarURL
			u.AvatarURL = &v
		}
	}
	u.UpdatedAt = s.db.now()
	return cloneUser(u), nil
}

// UpdateRoleByEmail changes the role of the user with the given email.
func (s *UserStore) UpdateRoleByEmail(_ context.Context, email string, role models.RoleType) (*models.User, error) {
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u := s.db.userByEmailLocked(email)
	if u == nil {
		return nil, apperrors.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = s.db.now()
	return cloneUser(u), nil
}

// CourseStore implements the course repository.
type CourseStore struct{ db *DB }

// Courses returns the course store.
func (db *DB) Courses() *CourseStore { return &CourseStore{db: db} }

// GetByID returns apperrors.ErrCourseNotFound when absent.
func (s *CourseStore) GetByID(_ context.Context, id string) (*models.Course, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.courses[id]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	cp := *c
	return &cp, nil
}

// List returns every course ordered by title.
func (s *CourseStore) List(_ context.Context) ([]*models.Course, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*models.Course, 0, len(s.db.courses))
	for _, c := range s.db.courses {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Create inserts a course.
func (s *CourseStore) Create(_ context.Context, course *models.Course) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := s.db.now()
	course.CreatedAt, course.UpdatedAt = now, now
	cp := *course
	s.db.courses[course.ID] = &cp
	return nil
}

// TokenStore implements the refresh token repository.
type TokenStore struct{ db *DB }

// Tokens returns the token store.
func (db *DB) Tokens() *TokenStore { return &TokenStore{db: db} }

// CreateToken stores a refresh token.
func (s *TokenStore) CreateToken(_ context.Context, token, userID string, expiryDate time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.tokens[token]; ok {
		return apperrors.ErrTokenInvalid
	}
	s.db.tokens[token] = tokenRow{userID: userID, expiry: expiryDate, createdAt: s.db.now()}
	return nil
}

// GetTokenByValue returns the owner and expiry of an active token.
func (s *TokenStore) GetTokenByValue(_ context.Context, token string) (string, time.Time, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	row, ok := s.db.tokens[token]
	switch {
	case !ok:
		return "", time.Time{}, apperrors.ErrTokenNotFound
	case row.revoked:
		return "", time.Time{}, apperrors.ErrTokenRevoked
	case row.expiry.Before(s.db.now()):
		return "", time.Time{}, apperrors.ErrTokenExpired
	}
	return row.userID, row.expiry, nil
}

// RevokeToken revokes one token.
func (s *TokenStore) RevokeToken(_ context.Context, token string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	row, ok := s.db.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	row.revoked = true
	s.db.tokens[token] = row
	return nil
}

// RevokeAllUserTokens revokes every token of a user.
func (s *TokenStore) RevokeAllUserTokens(_ context.Context, userID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for token, row := range s.db.tokens {
		if row.userID == userID {
			row.revoked = true
			s.db.tokens[token] = row
		}
	}
	return nil
}

// CleanupExpiredTokens drops expired tokens and revoked ones older than 30 days.
func (s *TokenStore) CleanupExpiredTokens(_ context.Context) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	now := s.db.now()
	var deleted int64
	for token, row := range s.db.tokens {
		if row.expiry.Before(now) || (row.revoked && row.createdAt.Before(now.Add(-30*24*time.Hour))) {
			delete(s.db.tokens, token)
			deleted++
		}
	}
	return deleted, nil
}

var (
	_ repositories.ICertificateRepository = (*CertificateStore)(nil)
	_ repositories.IEnrollmentRepository  = (*EnrollmentStore)(nil)
	_ repositories.IUserRepository        = (*UserStore)(nil)
	_ repositories.ICourseRepository      = (*CourseStore)(nil)
	_ repositories.ITokenRepository       = (*TokenStore)(nil)
	_ certification.CertificateStore      = (*CertificateStore)(nil)
	_ certification.EnrollmentStore       = (*EnrollmentStore)(nil)
)
