package authclient

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// BatchItem is one (user, course) pair of a batch request
type BatchItem struct {
	UserID     string `json:"user_id"`
	CourseID   string `json:"course_id"`
	UserName   string `json:"user_name,omitempty"`
	CourseName string `json:"course_name,omitempty"`
}

// BatchRequest starts a certificate batch
type BatchRequest struct {
	Items        []BatchItem `json:"items,omitempty"`
	CourseID     string      `json:"course_id,omitempty"`
	OnlyEligible bool        `json:"only_eligible,omitempty"`
	Cancellable  bool        `json:"cancellable,omitempty"`
	Concurrency  int         `json:"concurrency,omitempty"`
}

// BatchAccepted is returned when a batch job starts
type BatchAccepted struct {
	JobID string `json:"jobId"`
	Total int    `json:"total"`
}

// BatchProgress mirrors the server's progress counters
type BatchProgress struct {
	Done      int `json:"done"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// BatchStatus is the polled state of a batch job
type BatchStatus struct {
	ID         string        `json:"id"`
	Status     string        `json:"status"`
	Progress   BatchProgress `json:"progress"`
	Summary    string        `json:"summary,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
}

// Finished reports whether the job stopped running
func (s *BatchStatus) Finished() bool {
	return s != nil && s.Status != "running"
}

// StartBatch starts an asynchronous certificate batch
func (b *RESTBackend) StartBatch(ctx context.Context, token string, req BatchRequest) (*BatchAccepted, error) {
	return call[*BatchAccepted](ctx, b, http.MethodPost, "/api/certificates/batch", token, req)
}

// BatchStatus polls a batch job
func (b *RESTBackend) BatchStatus(ctx context.Context, token, jobID string) (*BatchStatus, error) {
	return call[*BatchStatus](ctx, b, http.MethodGet, "/api/certificates/batch/"+url.PathEscape(jobID), token, nil)
}

// CancelBatch asks a cancellable batch to stop
func (b *RESTBackend) CancelBatch(ctx context.Context, token, jobID string) (*BatchStatus, error) {
	return call[*BatchStatus](ctx, b, http.MethodDelete, "/api/certificates/batch/"+url.PathEscape(jobID), token, nil)
}
