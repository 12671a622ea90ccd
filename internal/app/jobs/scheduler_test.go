package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/lms/internal/app/certification"
)

type sweeperFunc func(ctx context.Context) (certification.BatchResult, error)

func (f sweeperFunc) AutoIssueSweep(ctx context.Context) (certification.BatchResult, error) {
	return f(ctx)
}

type cleanerFunc func(ctx context.Context) (int64, error)

func (f cleanerFunc) CleanupExpiredTokens(ctx context.Context) (int64, error) { return f(ctx) }

type pruneRecorder struct{ retention time.Duration }

func (p *pruneRecorder) Prune(retention time.Duration) int {
	p.retention = retention
	return 1
}

func TestNewScheduler_RegistersJobs(t *testing.T) {
	sweeper := sweeperFunc(func(context.Context) (certification.BatchResult, error) { return certification.BatchResult{}, nil })
	cleaner := cleanerFunc(func(context.Context) (int64, error) { return 0, nil })

	s, err := NewScheduler(Config{AutoIssueSpec: "@every 15m", BatchRetention: time.Hour}, sweeper, cleaner, &pruneRecorder{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 3, s.Entries())

	s, err = NewScheduler(Config{}, sweeper, cleaner, &pruneRecorder{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries(), "empty spec disables the sweep and zero retention disables pruning")

	_, err = NewScheduler(Config{AutoIssueSpec: "every now and then"}, sweeper, nil, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestScheduler_RunJobs(t *testing.T) {
	swept := 0
	sweeper := sweeperFunc(func(context.Context) (certification.BatchResult, error) {
		swept++
		if swept > 1 {
			return certification.BatchResult{}, errors.New("db down")
		}
		return certification.BatchResult{Total: 2}, nil
	})
	cleaned := false
	cleaner := cleanerFunc(func(context.Context) (int64, error) {
		cleaned = true
		return 4, nil
	})
	pruner := &pruneRecorder{}

	s, err := NewScheduler(Config{AutoIssueSpec: "@hourly", BatchRetention: 2 * time.Hour}, sweeper, cleaner, pruner, zerolog.Nop())
	require.NoError(t, err)

	s.RunAutoIssue(context.Background())
	s.RunAutoIssue(context.Background())
	s.RunTokenCleanup(context.Background())
	s.RunBatchPrune()

	assert.Equal(t, 2, swept)
	assert.True(t, cleaned)
	assert.Equal(t, 2*time.Hour, pruner.retention)
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := NewScheduler(Config{}, nil, nil, nil, zerolog.Nop())
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
