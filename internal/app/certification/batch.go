package certification

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yigit/lms/internal/app/models"
	"golang.org/x/sync/errgroup"
)

// CertificateIssuer is the single-pair operation the coordinator drives.
type CertificateIssuer interface {
	Issue(ctx context.Context, req Request) (Result, error)
}

// Options controls a batch run.
type Options struct {
	// Cancellable lets ctx cancellation stop the batch between items.
	// Without it the batch always runs to the end.
	Cancellable bool `json:"cancellable"`
	// Concurrency above 1 issues items in parallel. Only safe because the
	// certificate store enforces (user, course) uniqueness.
	Concurrency int `json:"concurrency"`
}

// Progress is emitted after every attempted item.
type Progress struct {
	Done      int `json:"done"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ProgressObserver receives progress updates. Calls are serialized and
// Percent never decreases.
type ProgressObserver func(Progress)

// ItemOutcome records what happened to one batch item.
type ItemOutcome struct {
	Index       int                 `json:"index"`
	UserID      string              `json:"userId"`
	CourseID    string              `json:"courseId"`
	Certificate *models.Certificate `json:"certificate,omitempty"`
	Duplicate   bool                `json:"duplicate"`
	Err         error               `json:"-"`
	Error       string              `json:"error,omitempty"`
}

// BatchResult aggregates a batch run.
type BatchResult struct {
	Total           int           `json:"total"`
	Succeeded       []ItemOutcome `json:"succeeded"`
	Failed          []ItemOutcome `json:"failed"`
	Duplicates      int           `json:"duplicates"`
	ProgressPercent int           `json:"progressPercent"`
	Cancelled       bool          `json:"cancelled"`
}

// SucceededCount includes duplicates.
func (r BatchResult) SucceededCount() int { return len(r.Succeeded) }

// FailedCount includes items skipped by cancellation.
func (r BatchResult) FailedCount() int { return len(r.Failed) }

// AttemptedCount leaves out items skipped by cancellation.
func (r BatchResult) AttemptedCount() int {
	n := len(r.Succeeded)
	for _, o := range r.Failed {
		if !errors.Is(o.Err, ErrCancelled) {
			n++
		}
	}
	return n
}

// Summary renders the partial-success message shown to operators.
func (r BatchResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d succeeded, %d failed", r.SucceededCount(), r.FailedCount())
	if r.Duplicates > 0 {
		fmt.Fprintf(&b, " (%d already issued)", r.Duplicates)
	}
	if r.Cancelled {
		b.WriteString(", cancelled")
	}
	return b.String()
}

// Percent returns round(done/total*100).
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// Coordinator drives issuance over a list of requests, continuing on error.
type Coordinator struct {
	issuer CertificateIssuer
	logger zerolog.Logger
}

// NewCoordinator creates a batch coordinator.
func NewCoordinator(issuer CertificateIssuer, logger zerolog.Logger) *Coordinator {
	return &Coordinator{issuer: issuer, logger: logger}
}

type batchRun struct {
	mu      sync.Mutex
	result  BatchResult
	done    int
	observe ProgressObserver
}

func (r *batchRun) record(o ItemOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o.Err != nil {
		o.Error = o.Err.Error()
		r.result.Failed = append(r.result.Failed, o)
	} else {
		if o.Duplicate {
			r.result.Duplicates++
		}
		r.result.Succeeded = append(r.result.Succeeded, o)
	}
	r.done++
	r.result.ProgressPercent = Percent(r.done, r.result.Total)

	if r.observe != nil {
		r.observe(Progress{
			Done:      r.done,
			Total:     r.result.Total,
			Percent:   r.result.ProgressPercent,
			Succeeded: len(r.result.Succeeded),
			Failed:    len(r.result.Failed),
		})
	}
}

func (r *batchRun) cancelRemaining(items []Request, from int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.result.Cancelled = true
	for idx := from; idx < len(items); idx++ {
		r.result.Failed = append(r.result.Failed, ItemOutcome{
			Index:    idx,
			UserID:   items[idx].UserID,
			CourseID: items[idx].CourseID,
			Err:      ErrCancelled,
			Error:    ErrCancelled.Error(),
		})
	}
}

// IssueBatch attempts every item in order and never returns an error: each
// item's failure is recorded in the result. An empty list yields an empty result.
func (c *Coordinator) IssueBatch(ctx context.Context, items []Request, opts Options, observe ProgressObserver) BatchResult {
	run := &batchRun{
		result: BatchResult{
			Total:     len(items),
			Succeeded: []ItemOutcome{},
			Failed:    []ItemOutcome{},
		},
		observe: observe,
	}
	if len(items) == 0 {
		return run.result
	}

	// In-flight items always complete, even when the batch is cancelled.
	itemCtx := context.WithoutCancel(ctx)

	if opts.Concurrency > 1 {
		c.runParallel(ctx, itemCtx, items, opts, run)
	} else {
		c.runSequential(ctx, itemCtx, items, opts, run)
	}

	sortOutcomes(run.result.Succeeded)
	sortOutcomes(run.result.Failed)

	c.logger.Info().
		Int("total", run.result.Total).
		Int("succeeded", run.result.SucceededCount()).
		Int("failed", run.result.FailedCount()).
		Int("duplicates", run.result.Duplicates).
		Bool("cancelled", run.result.Cancelled).
		Msg("Certificate batch finished")

	return run.result
}

func (c *Coordinator) runSequential(ctx, itemCtx context.Context, items []Request, opts Options, run *batchRun) {
	for idx, item := range items {
		if opts.Cancellable && ctx.Err() != nil {
			run.cancelRemaining(items, idx)
			return
		}
		run.record(c.issueOne(itemCtx, idx, item))
	}
}

func (c *Coordinator) runParallel(ctx, itemCtx context.Context, items []Request, opts Options, run *batchRun) {
	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	for idx, item := range items {
		if opts.Cancellable && ctx.Err() != nil {
			_ = g.Wait()
			run.cancelRemaining(items, idx)
			return
		}
		idx, item := idx, item
		g.Go(func() error {
			run.record(c.issueOne(itemCtx, idx, item))
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Coordinator) issueOne(ctx context.Context, idx int, item Request) ItemOutcome {
	outcome := ItemOutcome{Index: idx, UserID: item.UserID, CourseID: item.CourseID}

	if strings.TrimSpace(item.UserID) == "" || strings.TrimSpace(item.CourseID) == "" {
		outcome.Err = ErrInvalidRequest
		return outcome
	}

	res, err := c.issuer.Issue(ctx, item)
	if err != nil {
		c.logger.Warn().Err(err).
			Int("index", idx).
			Str("userID", item.UserID).
			Str("courseID", item.CourseID).
			Msg("Batch item failed")
		outcome.Err = err
		return outcome
	}

	outcome.Certificate = res.Certificate
	outcome.Duplicate = res.Duplicate
	return outcome
}

func sortOutcomes(outcomes []ItemOutcome) {
	sort.Slice(outcomes, func(a, b int) bool { return outcomes[a].Index < outcomes[b].Index })
}
