package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/lms/internal/app/auth"
	"github.com/yigit/lms/internal/app/certification"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/models/dto"
	"github.com/yigit/lms/internal/app/repositories"
	"github.com/yigit/lms/internal/pkg/apperrors"
	"github.com/yigit/lms/internal/pkg/cache"
	"github.com/yigit/lms/internal/pkg/filestorage"
	"github.com/yigit/lms/internal/pkg/helpers"
	"github.com/yigit/lms/internal/pkg/render"
)

const certificateEntity = "certificate"

// CertificateService exposes certificate reads, issuance and administrative corrections
type CertificateService struct {
	certRepo  repositories.ICertificateRepository
	issuer    certification.CertificateIssuer
	authz     *appauth.AuthorizationService
	cache     cache.Cache
	cacheTTL  time.Duration
	storage   filestorage.FileStorage
	png       PNGRenderer
	verifyURL func(certID string) string
	logger    zerolog.Logger
}

// CertificateServiceDeps groups the collaborators of CertificateService
type CertificateServiceDeps struct {
	Certificates repositories.ICertificateRepository
	Issuer       certification.CertificateIssuer
	Authz        *appauth.AuthorizationService
	Cache        cache.Cache
	CacheTTL     time.Duration
	Storage      filestorage.FileStorage
	PNG          PNGRenderer
	// VerifyURL builds the link printed on rendered certificates. Optional.
	VerifyURL func(certID string) string
}

// NewCertificateService creates a new CertificateService
func NewCertificateService(deps CertificateServiceDeps, logger zerolog.Logger) *CertificateService {
	if deps.Cache == nil {
		deps.Cache = cache.NewMemoryCache(deps.CacheTTL)
	}
	if deps.VerifyURL == nil {
		deps.VerifyURL = func(string) string { return "" }
	}
	return &CertificateService{
		certRepo:  deps.Certificates,
		issuer:    deps.Issuer,
		authz:     deps.Authz,
		cache:     deps.Cache,
		cacheTTL:  deps.CacheTTL,
		storage:   deps.Storage,
		png:       deps.PNG,
		verifyURL: deps.VerifyURL,
		logger:    logger,
	}
}

// Check returns the certificate of the pair, or nil when none was issued
func (s *CertificateService) Check(ctx context.Context, p appauth.Principal, userID, courseID string) (*models.Certificate, error) {
	if err := s.authz.CanAccessUser(p, userID); err != nil {
		return nil, err
	}

	cert, err := s.certRepo.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		s.logger.Error().Err(err).Str("userID", userID).Str("courseID", courseID).Msg("Error checking certificate")
		return nil, fmt.Errorf("%w: %w", apperrors.ErrStorageUnavailable, err)
	}
	return cert, nil
}

// Issue creates the certificate of the pair if the user is eligible. Students may only
// request their own certificates.
func (s *CertificateService) Issue(ctx context.Context, p appauth.Principal, req *dto.CreateCertificateRequest) (*dto.IssueCertificateResponse, error) {
	if err := s.authz.CanAccessUser(p, req.UserID); err != nil {
		return nil, err
	}

	res, err := s.issuer.Issue(ctx, certification.Request{
		UserID:   req.UserID,
		CourseID: req.CourseID,
		Snapshot: certification.Snapshot{
			UserName:   req.UserName,
			CourseName: req.CourseName,
		},
		IssueDate: req.IssueDate,
	})
	if err != nil {
		return nil, err
	}
	if !res.Duplicate {
		s.invalidate(ctx)
	}

	return &dto.IssueCertificateResponse{Certificate: res.Certificate, Duplicate: res.Duplicate}, nil
}

// List returns the certificates visible to the caller
func (s *CertificateService) List(ctx context.Context, p appauth.Principal, filter models.CertificateFilter) ([]*models.Certificate, error) {
	filter, err := s.authz.ScopeCertificateFilter(p, filter)
	if err != nil {
		return nil, err
	}

	key := cache.FilterKey(certificateEntity, map[string]string{
		"user":   filter.UserID,
		"course": filter.CourseID,
		"limit":  limitString(filter.Limit),
	})

	var certs []*models.Certificate
	if s.cacheGet(ctx, key, &certs) {
		return certs, nil
	}

	certs, err = s.certRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, certs)
	return certs, nil
}

// GetByID returns one certificate if the caller may see it
func (s *CertificateService) GetByID(ctx context.Context, p appauth.Principal, id string) (*models.Certificate, error) {
	key := cache.Key(certificateEntity, "id", id)

	var cert *models.Certificate
	if !s.cacheGet(ctx, key, &cert) || cert == nil {
		var err error
		cert, err = s.certRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		s.cacheSet(ctx, key, cert)
	}

	if err := s.authz.CanAccessUser(p, cert.UserID); err != nil {
		return nil, err
	}
	return cert, nil
}

// Update applies an administrative correction. Eligibility is not re-checked.
func (s *CertificateService) Update(ctx context.Context, id string, upd models.CertificateUpdate) (*models.Certificate, error) {
	if upd.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrValidationFailed)
	}

	cert, err := s.certRepo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.Info().Str("certificateID", id).Msg("Certificate updated")
	return cert, nil
}

// Delete removes a certificate and its stored image
func (s *CertificateService) Delete(ctx context.Context, id string) error {
	cert, err := s.certRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.certRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)

	if cert.CertificateURL != nil && s.storage != nil {
		if err := s.storage.DeleteFile(*cert.CertificateURL); err != nil {
			s.logger.Warn().Err(err).Str("certificateID", id).Msg("Failed to delete certificate image")
		}
	}

	s.logger.Info().Str("certificateID", id).Msg("Certificate deleted")
	return nil
}

// Recent returns the latest issued certificates
func (s *CertificateService) Recent(ctx context.Context, limit int) ([]*models.Certificate, error) {
	limit = helpers.ClampLimit(limit, helpers.DefaultPageSize, helpers.MaxPageSize)
	return s.certRepo.ListRecent(ctx, uint64(limit))
}

// RenderHTML returns the printable certificate page, rendering it when none was stored
func (s *CertificateService) RenderHTML(ctx context.Context, p appauth.Principal, id string) (string, error) {
	cert, err := s.GetByID(ctx, p, id)
	if err != nil {
		return "", err
	}
	if cert.CertificateHTML != nil && *cert.CertificateHTML != "" {
		return *cert.CertificateHTML, nil
	}
	return render.HTML(render.FromCertificate(cert, s.verifyURL(cert.ID)))
}

// RenderPNG draws the certificate image
func (s *CertificateService) RenderPNG(ctx context.Context, p appauth.Principal, id string) ([]byte, error) {
	cert, err := s.GetByID(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if s.png == nil {
		return nil, fmt.Errorf("%w: image rendering is not available", apperrors.ErrStorageUnavailable)
	}
	return s.png.Render(render.FromCertificate(cert, s.verifyURL(cert.ID)))
}

func (s *CertificateService) cacheGet(ctx context.Context, key string, dest any) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		return false
	}
	return hit
}

func (s *CertificateService) cacheSet(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// invalidate drops every cached certificate read
func (s *CertificateService) invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, certificateEntity+":"); err != nil {
		s.logger.Warn().Err(err).Msg("Cache invalidation failed")
	}
}

func limitString(limit uint64) string {
	if limit == 0 {
		return ""
	}
	return strconv.FormatUint(limit, 10)
}
