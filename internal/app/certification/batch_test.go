package certification_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/lms/internal/app/certification"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/repositories/memory"
)

// flakyStore fails inserts for the listed users and records every attempt.
type flakyStore struct {
	*memory.CertificateStore
	failFor map[string]error

	mu       sync.Mutex
	attempts []string
}

func (s *flakyStore) Insert(ctx context.Context, cert *models.Certificate) (*models.Certificate, error) {
	s.mu.Lock()
	s.attempts = append(s.attempts, cert.UserID)
	s.mu.Unlock()
	if err, ok := s.failFor[cert.UserID]; ok {
		return nil, err
	}
	return s.CertificateStore.Insert(ctx, cert)
}

func newCoordinator(db *memory.DB) *certification.Coordinator {
	return certification.NewCoordinator(newIssuer(db), zerolog.Nop())
}

func items(userIDs ...string) []certification.Request {
	out := make([]certification.Request, 0, len(userIDs))
	for _, id := range userIDs {
		out = append(out, certification.Request{UserID: id, CourseID: "c1"})
	}
	return out
}

func TestIssueBatch_MixedList(t *testing.T) {
	db := memory.New()
	seedEnrollment(t, db, "u1", "c1", progress(100))
	seedEnrollment(t, db, "u2", "c1", progress(40))
	seedEnrollment(t, db, "u3", "c1", progress(100))
	_, err := newIssuer(db).Issue(context.Background(), certification.Request{UserID: "u3", CourseID: "c1"})
	require.NoError(t, err)

	res := newCoordinator(db).IssueBatch(context.Background(), items("u1", "u2", "u3", "u4"), certification.Options{}, nil)

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 2, res.SucceededCount())
	assert.Equal(t, 2, res.FailedCount())
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 100, res.ProgressPercent)
	assert.ErrorIs(t, res.Failed[0].Err, certification.ErrNotEligible)
	assert.ErrorIs(t, res.Failed[1].Err, certification.ErrNotEnrolled)
	assert.Equal(t, "2 succeeded, 2 failed (1 already issued)", res.Summary())
	assert.Equal(t, 2, db.Certificates().Count())
}

func TestIssueBatch_ContinuesAfterStorageError(t *testing.T) {
	db := memory.New()
	users := []string{"u1", "u2", "u3", "u4", "u5"}
	for _, u := range users {
		seedEnrollment(t, db, u, "c1", progress(100))
	}
	store := &flakyStore{
		CertificateStore: db.Certificates(),
		failFor:          map[string]error{"u3": errors.New("connection reset")},
	}
	coordinator := certification.NewCoordinator(certification.NewIssuer(store, db.Enrollments()), zerolog.Nop())

	res := coordinator.IssueBatch(context.Background(), items(users...), certification.Options{}, nil)

	assert.Equal(t, 4, res.SucceededCount())
	require.Equal(t, 1, res.FailedCount())
	assert.Equal(t, 2, res.Failed[0].Index)
	assert.ErrorIs(t, res.Failed[0].Err, certification.ErrStorageFailure)
	assert.NotEmpty(t, res.Failed[0].Error)
	assert.Equal(t, users, store.attempts)
	assert.Equal(t, 4, db.Certificates().Count())
}

func TestIssueBatch_ReportsProgressInOrder(t *testing.T) {
	db := memory.New()
	for _, u := range []string{"u1", "u2", "u3", "u4", "u5"} {
		seedEnrollment(t, db, u, "c1", progress(100))
	}

	var seen []certification.Progress
	res := newCoordinator(db).IssueBatch(context.Background(), items("u1", "u2", "u3", "u4", "u5"), certification.Options{},
		func(p certification.Progress) { seen = append(seen, p) })

	require.Len(t, seen, 5)
	percents := make([]int, 0, len(seen))
	for i, p := range seen {
		percents = append(percents, p.Percent)
		assert.Equal(t, i+1, p.Done)
		assert.Equal(t, 5, p.Total)
	}
	assert.Equal(t, []int{20, 40, 60, 80, 100}, percents)
	for i, o := range res.Succeeded {
		assert.Equal(t, i, o.Index)
	}
}

func TestIssueBatch_RoundsProgress(t *testing.T) {
	assert.Equal(t, 33, certification.Percent(1, 3))
	assert.Equal(t, 67, certification.Percent(2, 3))
	assert.Equal(t, 100, certification.Percent(3, 3))
	assert.Equal(t, 0, certification.Percent(0, 0))
}

func TestIssueBatch_EmptyList(t *testing.T) {
	db := memory.New()
	calls := 0

	res := newCoordinator(db).IssueBatch(context.Background(), nil, certification.Options{}, func(certification.Progress) { calls++ })

	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0, res.SucceededCount())
	assert.Equal(t, 0, res.FailedCount())
	assert.Equal(t, 0, res.ProgressPercent)
	assert.Equal(t, 0, calls)
	assert.Equal(t, "0 succeeded, 0 failed", res.Summary())
}

func TestIssueBatch_MissingIDsFailWithoutIssuing(t *testing.T) {
	db := memory.New()
	seedEnrollment(t, db, "u1", "c1", progress(100))
	batch := []certification.Request{{UserID: "", CourseID: "c1"}, {UserID: "u1", CourseID: "c1"}}

	res := newCoordinator(db).IssueBatch(context.Background(), batch, certification.Options{}, nil)

	require.Equal(t, 1, res.FailedCount())
	assert.ErrorIs(t, res.Failed[0].Err, certification.ErrInvalidRequest)
	assert.Equal(t, 1, res.SucceededCount())
}

func TestIssueBatch_Cancellation(t *testing.T) {
	newDB := func() *memory.DB {
		db := memory.New()
		for _, u := range []string{"u1", "u2", "u3"} {
			seedEnrollment(t, db, u, "c1", progress(100))
		}
		return db
	}

	t.Run("cancellable stops between items", func(t *testing.T) {
		db := newDB()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		res := newCoordinator(db).IssueBatch(ctx, items("u1", "u2", "u3"), certification.Options{Cancellable: true},
			func(certification.Progress) { cancel() })

		assert.True(t, res.Cancelled)
		assert.Equal(t, 1, res.SucceededCount())
		require.Equal(t, 2, res.FailedCount())
		for _, o := range res.Failed {
			assert.ErrorIs(t, o.Err, certification.ErrCancelled)
		}
		assert.Equal(t, 1, db.Certificates().Count())
		assert.Contains(t, res.Summary(), "cancelled")
	})

	t.Run("without the flag the batch runs to the end", func(t *testing.T) {
		db := newDB()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res := newCoordinator(db).IssueBatch(ctx, items("u1", "u2", "u3"), certification.Options{}, nil)

		assert.False(t, res.Cancelled)
		assert.Equal(t, 3, res.SucceededCount())
		assert.Equal(t, 3, db.Certificates().Count())
	})

	t.Run("in-flight item ignores cancellation", func(t *testing.T) {
		db := newDB()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var itemErr error
		issuer := issuerFunc(func(ictx context.Context, req certification.Request) (certification.Result, error) {
			cancel()
			itemErr = ictx.Err()
			return newIssuer(db).Issue(ictx, req)
		})
		res := certification.NewCoordinator(issuer, zerolog.Nop()).
			IssueBatch(ctx, items("u1", "u2"), certification.Options{Cancellable: true}, nil)

		assert.NoError(t, itemErr)
		assert.Equal(t, 1, res.SucceededCount())
		assert.True(t, res.Cancelled)
	})
}

type issuerFunc func(ctx context.Context, req certification.Request) (certification.Result, error)

func (f issuerFunc) Issue(ctx context.Context, req certification.Request) (certification.Result, error) {
	return f(ctx, req)
}

func TestIssueBatch_Parallel(t *testing.T) {
	db := memory.New()
	var batch []certification.Request
	for i := 0; i < 20; i++ {
		u := fmt.Sprintf("u%02d", i)
		seedEnrollment(t, db, u, "c1", progress(100))
		// Every pair appears twice so concurrent inserts race on the unique key.
		batch = append(batch, certification.Request{UserID: u, CourseID: "c1"}, certification.Request{UserID: u, CourseID: "c1"})
	}

	var (
		mu   sync.Mutex
		last int
	)
	res := newCoordinator(db).IssueBatch(context.Background(), batch, certification.Options{Concurrency: 4},
		func(p certification.Progress) {
			mu.Lock()
			defer mu.Unlock()
			assert.GreaterOrEqual(t, p.Percent, last)
			last = p.Percent
		})

	assert.Equal(t, 40, res.SucceededCount())
	assert.Equal(t, 0, res.FailedCount())
	assert.Equal(t, 20, res.Duplicates)
	assert.Equal(t, 100, last)
	assert.Equal(t, 20, db.Certificates().Count())
	for i, o := range res.Succeeded {
		assert.Equal(t, i, o.Index)
	}
}
