package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/lms/internal/app/certification"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/repositories"
	"github.com/yigit/lms/internal/pkg/email"
	"github.com/yigit/lms/internal/pkg/filestorage"
	"github.com/yigit/lms/internal/pkg/render"
)

// certificateDir is the storage sub path of rendered certificate images
const certificateDir = "certificates"

const notifyTimeout = 30 * time.Second

// SnapshotResolver looks up the names printed on a certificate
type SnapshotResolver struct {
	users   repositories.IUserRepository
	courses repositories.ICourseRepository
}

// NewSnapshotResolver creates a resolver over the user and course repositories
func NewSnapshotResolver(users repositories.IUserRepository, courses repositories.ICourseRepository) *SnapshotResolver {
	return &SnapshotResolver{users: users, courses: courses}
}

// ResolveSnapshot returns whatever could be found. It only fails when neither
// the user nor the course could be read.
func (r *SnapshotResolver) ResolveSnapshot(ctx context.Context, userID, courseID string) (certification.Snapshot, error) {
	var snap certification.Snapshot

	user, userErr := r.users.GetByID(ctx, userID)
	if userErr == nil {
		snap.UserName = user.DisplayName()
	}
	course, courseErr := r.courses.GetByID(ctx, courseID)
	if courseErr == nil {
		snap.CourseName = course.Title
		snap.CourseHours = course.Hours()
	}

	if userErr != nil && courseErr != nil {
		return snap, errors.Join(userErr, courseErr)
	}
	return snap, nil
}

// PNGRenderer draws certificate images
type PNGRenderer interface {
	Render(data render.CertificateData) ([]byte, error)
}

// CertificateNotifier tells students about new certificates
type CertificateNotifier interface {
	SendCertificateIssued(ctx context.Context, data email.CertificateIssued) error
}

// ArtifactPublisher renders, stores and announces newly issued certificates.
// It runs as the issuer's after-issue hook.
type ArtifactPublisher struct {
	certs    repositories.ICertificateRepository
	users    repositories.IUserRepository
	storage  filestorage.FileStorage
	png      PNGRenderer
	notifier CertificateNotifier
	baseURL  string
	logger   zerolog.Logger

	wg sync.WaitGroup
}

// NewArtifactPublisher creates an ArtifactPublisher. png, storage and notifier may be nil
// to skip the corresponding step.
func NewArtifactPublisher(
	certs repositories.ICertificateRepository,
	users repositories.IUserRepository,
	storage filestorage.FileStorage,
	png PNGRenderer,
	notifier CertificateNotifier,
	baseURL string,
	logger zerolog.Logger,
) *ArtifactPublisher {
	return &ArtifactPublisher{
		certs:    certs,
		users:    users,
		storage:  storage,
		png:      png,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
}

// VerifyURL is the public link printed on a certificate
func (p *ArtifactPublisher) VerifyURL(certID string) string {
	return p.baseURL + "/api/certificates/" + certID
}

// AfterIssue renders the HTML and PNG artifacts, records them on the
// certificate and queues the student notification.
func (p *ArtifactPublisher) AfterIssue(ctx context.Context, cert *models.Certificate) error {
	data := render.FromCertificate(cert, p.VerifyURL(cert.ID))

	html, err := render.HTML(data)
	if err != nil {
		return fmt.Errorf("render certificate html: %w", err)
	}

	var url *string
	if p.png != nil && p.storage != nil {
		img, err := p.png.Render(data)
		if err != nil {
			p.logger.Warn().Err(err).Str("certificateID", cert.ID).Msg("Failed to render certificate image")
		} else {
			saved, err := p.storage.SaveBytes(certificateDir, cert.ID, ".png", img)
			if err != nil {
				p.logger.Warn().Err(err).Str("certificateID", cert.ID).Msg("Failed to store certificate image")
			} else {
				url = &saved
			}
		}
	}

	if err := p.certs.SetArtifact(ctx, cert.ID, url, &html); err != nil {
		return fmt.Errorf("store certificate artifact: %w", err)
	}
	cert.CertificateHTML = &html
	if url != nil {
		cert.CertificateURL = url
	}

	p.notify(ctx, *cert)
	return nil
}

// notify sends the email in the background so issuance never waits on the mail provider
func (p *ArtifactPublisher) notify(ctx context.Context, cert models.Certificate) {
	if p.notifier == nil || p.users == nil {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		user, err := p.users.GetByID(ctx, cert.UserID)
		if err != nil {
			p.logger.Warn().Err(err).Str("userID", cert.UserID).Msg("Cannot notify certificate owner")
			return
		}

		link := p.VerifyURL(cert.ID)
		if cert.CertificateURL != nil {
			link = *cert.CertificateURL
			if strings.HasPrefix(link, "/") {
				link = p.baseURL + link
			}
		}

		err = p.notifier.SendCertificateIssued(ctx, email.CertificateIssued{
			ToEmail:            user.Email,
			ToName:             cert.UserName,
			CourseName:         cert.CourseName,
			RegistrationNumber: cert.RegistrationNumber,
			CertificateURL:     link,
		})
		if err != nil {
			p.logger.Error().Err(err).Str("certificateID", cert.ID).Msg("Failed to send certificate notification")
			return
		}
		p.logger.Debug().Str("certificateID", cert.ID).Str("to", user.Email).Msg("Certificate notification sent")
	}()
}

// Wait blocks until queued notifications are done
func (p *ArtifactPublisher) Wait() {
	p.wg.Wait()
}
