// Package jobs runs periodic maintenance on a cron schedule
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/yigit/lms/internal/app/certification"
)

const (
	tokenCleanupSpec = "@daily"
	batchPruneSpec   = "@hourly"
	jobTimeout       = 10 * time.Minute
)

// Config holds scheduler settings
type Config struct {
	// AutoIssueSpec is a cron spec for the certificate sweep; empty disables it
	AutoIssueSpec  string
	BatchRetention time.Duration
}

// CertificateSweeper issues certificates for completed enrollments
type CertificateSweeper interface {
	AutoIssueSweep(ctx context.Context) (certification.BatchResult, error)
}

// TokenCleaner removes expired refresh tokens
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// JobPruner forgets finished batch jobs
type JobPruner interface {
	Prune(retention time.Duration) int
}

// Scheduler owns the cron runner and its jobs
type Scheduler struct {
	cron    *cron.Cron
	sweeper CertificateSweeper
	tokens  TokenCleaner
	pruner  JobPruner
	cfg     Config
	logger  zerolog.Logger
}

// NewScheduler registers the jobs. A nil dependency skips its job.
func NewScheduler(cfg Config, sweeper CertificateSweeper, tokens TokenCleaner, pruner JobPruner, logger zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		sweeper: sweeper,
		tokens:  tokens,
		pruner:  pruner,
		cfg:     cfg,
		logger:  logger,
	}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger{logger}),
		cron.SkipIfStillRunning(cronLogger{logger}),
	))

	if sweeper != nil && cfg.AutoIssueSpec != "" {
		if _, err := s.cron.AddFunc(cfg.AutoIssueSpec, s.withTimeout(s.RunAutoIssue)); err != nil {
			return nil, fmt.Errorf("invalid auto issue schedule %q: %w", cfg.AutoIssueSpec, err)
		}
	}
	if tokens != nil {
		if _, err := s.cron.AddFunc(tokenCleanupSpec, s.withTimeout(s.RunTokenCleanup)); err != nil {
			return nil, err
		}
	}
	if pruner != nil && cfg.BatchRetention > 0 {
		if _, err := s.cron.AddFunc(batchPruneSpec, s.RunBatchPrune); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Scheduler) withTimeout(job func(ctx context.Context)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		job(ctx)
	}
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries reports how many jobs are registered
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// RunAutoIssue issues missing certificates for completed enrollments
func (s *Scheduler) RunAutoIssue(ctx context.Context) {
	res, err := s.sweeper.AutoIssueSweep(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Certificate sweep failed")
		return
	}
	if res.Total == 0 {
		s.logger.Debug().Msg("Certificate sweep found nothing to issue")
		return
	}
	s.logger.Info().Str("summary", res.Summary()).Int("total", res.Total).Msg("Certificate sweep finished")
}

// RunTokenCleanup deletes expired refresh tokens
func (s *Scheduler) RunTokenCleanup(ctx context.Context) {
	n, err := s.tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Token cleanup failed")
		return
	}
	s.logger.Info().Int64("deleted", n).Msg("Expired refresh tokens removed")
}

// RunBatchPrune drops finished batch jobs past retention
func (s *Scheduler) RunBatchPrune() {
	if n := s.pruner.Prune(s.cfg.BatchRetention); n > 0 {
		s.logger.Info().Int("pruned", n).Msg("Finished batch jobs pruned")
	}
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
