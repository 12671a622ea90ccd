package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/lms/internal/app/auth"
	"github.com/yigit/lms/internal/app/certification"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/models/dto"
	"github.com/yigit/lms/internal/app/repositories"
	"github.com/yigit/lms/internal/pkg/apperrors"
	"github.com/yigit/lms/internal/pkg/cache"
	"github.com/yigit/lms/internal/pkg/websocket"
)

// Batch job states
const (
	BatchStatusRunning   = "running"
	BatchStatusCompleted = "completed"
	BatchStatusCancelled = "cancelled"
)

// systemPrincipal starts jobs that no user asked for
const systemPrincipal = "scheduler"

// BatchRunner issues a list of certificates
type BatchRunner interface {
	IssueBatch(ctx context.Context, items []certification.Request, opts certification.Options, observe certification.ProgressObserver) certification.BatchResult
}

// EventPublisher pushes job events to subscribers
type EventPublisher interface {
	Publish(jobID, eventType string, data any)
}

type batchJob struct {
	id          string
	status      string
	cancellable bool
	progress    certification.Progress
	result      *certification.BatchResult
	startedBy   string
	startedAt   time.Time
	finishedAt  *time.Time
	cancel      context.CancelFunc
}

// BatchService runs certificate batches in the background and tracks their progress
type BatchService struct {
	runner      BatchRunner
	enrollments repositories.IEnrollmentRepository
	events      EventPublisher
	cache       cache.Cache
	logger      zerolog.Logger
	now         func() time.Time

	mu   sync.RWMutex
	jobs map[string]*batchJob
	wg   sync.WaitGroup
}

// NewBatchService creates a new BatchService. events and c may be nil.
func NewBatchService(
	runner BatchRunner,
	enrollments repositories.IEnrollmentRepository,
	events EventPublisher,
	c cache.Cache,
	logger zerolog.Logger,
) *BatchService {
	return &BatchService{
		runner:      runner,
		enrollments: enrollments,
		events:      events,
		cache:       c,
		logger:      logger,
		now:         time.Now,
		jobs:        map[string]*batchJob{},
	}
}

// Start accepts a batch and runs it asynchronously. Items come either from the
// request or from the enrollments of a course.
func (s *BatchService) Start(ctx context.Context, p appauth.Principal, req *dto.StartBatchRequest) (*dto.StartBatchResponse, error) {
	items, err := s.collectItems(ctx, req)
	if err != nil {
		return nil, err
	}

	job := s.newJob(p.UserID, req.Cancellable, len(items))
	opts := certification.Options{Cancellable: req.Cancellable, Concurrency: req.Concurrency}

	// The job outlives the HTTP request that started it.
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	job.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(jobCtx, job.id, items, opts)
	}()

	s.logger.Info().Str("jobID", job.id).Int("total", len(items)).Str("startedBy", p.UserID).Msg("Certificate batch started")
	return &dto.StartBatchResponse{JobID: job.id, Total: len(items)}, nil
}

func (s *BatchService) collectItems(ctx context.Context, req *dto.StartBatchRequest) ([]certification.Request, error) {
	if len(req.Items) > 0 {
		items := make([]certification.Request, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, certification.Request{
				UserID:   it.UserID,
				CourseID: it.CourseID,
				Snapshot: certification.Snapshot{UserName: it.UserName, CourseName: it.CourseName},
			})
		}
		return items, nil
	}

	if req.CourseID == "" {
		return nil, fmt.Errorf("%w: items or course_id is required", apperrors.ErrValidationFailed)
	}

	filter := models.EnrollmentFilter{CourseID: req.CourseID}
	if req.OnlyEligible {
		complete := models.MaxProgress
		filter.MinProgress = &complete
	}
	enrollments, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return enrollmentItems(enrollments), nil
}

func enrollmentItems(enrollments []*models.Enrollment) []certification.Request {
	items := make([]certification.Request, 0, len(enrollments))
	for _, e := range enrollments {
		items = append(items, certification.Request{UserID: e.UserID, CourseID: e.CourseID})
	}
	return items
}

func (s *BatchService) newJob(startedBy string, cancellable bool, total int) *batchJob {
	job := &batchJob{
		id:          uuid.NewString(),
		status:      BatchStatusRunning,
		cancellable: cancellable,
		progress:    certification.Progress{Total: total},
		startedBy:   startedBy,
		startedAt:   s.now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.id] = job
	s.mu.Unlock()
	return job
}

// run drives the coordinator and records progress on the job
func (s *BatchService) run(ctx context.Context, jobID string, items []certification.Request, opts certification.Options) certification.BatchResult {
	result := s.runner.IssueBatch(ctx, items, opts, func(p certification.Progress) {
		s.mu.Lock()
		if job, ok := s.jobs[jobID]; ok {
			job.progress = p
		}
		s.mu.Unlock()
		s.publish(jobID, websocket.EventProgress, p)
	})

	finished := s.now().UTC()
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if ok {
		job.result = &result
		job.finishedAt = &finished
		job.status = BatchStatusCompleted
		if result.Cancelled {
			job.status = BatchStatusCancelled
		}
		job.progress.Total = result.Total
		job.progress.Succeeded = result.SucceededCount()
		job.progress.Failed = result.FailedCount()
		// Cancelled items count as failed but were never attempted, so Done and
		// Percent both follow the attempted items.
		job.progress.Done = result.AttemptedCount()
		job.progress.Percent = certification.Percent(job.progress.Done, result.Total)
	}
	var resp *dto.BatchJobResponse
	if ok {
		resp = job.response()
	}
	s.mu.Unlock()

	if result.SucceededCount() > result.Duplicates && s.cache != nil {
		if err := s.cache.DeletePrefix(ctx, certificateEntity+":"); err != nil {
			s.logger.Warn().Err(err).Msg("Cache invalidation failed")
		}
	}
	if resp != nil {
		s.publish(jobID, websocket.EventCompleted, resp)
	}

	s.logger.Info().Str("jobID", jobID).Str("summary", result.Summary()).Msg("Certificate batch finished")
	return result
}

func (s *BatchService) publish(jobID, eventType string, data any) {
	if s.events != nil {
		s.events.Publish(jobID, eventType, data)
	}
}

func (j *batchJob) response() *dto.BatchJobResponse {
	resp := &dto.BatchJobResponse{
		ID:          j.id,
		Status:      j.status,
		Cancellable: j.cancellable,
		Progress:    j.progress,
		Result:      j.result,
		StartedBy:   j.startedBy,
		StartedAt:   j.startedAt,
		FinishedAt:  j.finishedAt,
	}
	if j.result != nil {
		resp.Summary = j.result.Summary()
	}
	return resp
}

// Get returns the state of a job
func (s *BatchService) Get(jobID string) (*dto.BatchJobResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, apperrors.ErrBatchJobNotFound
	}
	return job.response(), nil
}

// Snapshot returns the job state for new progress subscribers
func (s *BatchService) Snapshot(_ context.Context, jobID string) (any, error) {
	return s.Get(jobID)
}

// Cancel stops a cancellable job between items. Cancelling a finished job is a no-op.
func (s *BatchService) Cancel(jobID string) (*dto.BatchJobResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, apperrors.ErrBatchJobNotFound
	}
	if !job.cancellable {
		return nil, apperrors.ErrBatchNotCancellable
	}
	if job.status == BatchStatusRunning && job.cancel != nil {
		job.cancel()
		s.logger.Info().Str("jobID", jobID).Msg("Certificate batch cancellation requested")
	}
	return job.response(), nil
}

// Prune forgets finished jobs older than retention and returns how many were removed
func (s *BatchService) Prune(retention time.Duration) int {
	cutoff := s.now().UTC().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if job.finishedAt != nil && job.finishedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// AutoIssueSweep issues certificates for every completed enrollment that has none.
// It runs synchronously and is recorded as a job like any other batch.
func (s *BatchService) AutoIssueSweep(ctx context.Context) (certification.BatchResult, error) {
	complete := models.MaxProgress
	enrollments, err := s.enrollments.List(ctx, models.EnrollmentFilter{MinProgress: &complete, WithoutCert: true})
	if err != nil {
		return certification.BatchResult{}, fmt.Errorf("list completed enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return certification.BatchResult{}, nil
	}

	items := enrollmentItems(enrollments)
	job := s.newJob(systemPrincipal, false, len(items))
	return s.run(ctx, job.id, items, certification.Options{}), nil
}

// Wait blocks until every running job has finished
func (s *BatchService) Wait() {
	s.wg.Wait()
}
