package dto

import (
	"time"

	"github.com/yigit/lms/internal/app/certification"
)

// BatchItemRequest is one (user, course) pair of a batch
type BatchItemRequest struct {
	UserID     string `json:"user_id"`
	CourseID   string `json:"course_id"`
	UserName   string `json:"user_name,omitempty"`
	CourseName string `json:"course_name,omitempty"`
}

// StartBatchRequest starts a batch either from an explicit item list or from
// every enrollment of a course.
type StartBatchRequest struct {
	Items        []BatchItemRequest `json:"items" binding:"required_without=CourseID,omitempty,max=5000"`
	CourseID     string             `json:"course_id" binding:"omitempty,uuid"`
	OnlyEligible bool               `json:"only_eligible"`
	Cancellable  bool               `json:"cancellable"`
	Concurrency  int                `json:"concurrency" binding:"omitempty,min=1,max=16"`
}

// StartBatchResponse is returned when a batch job is accepted
type StartBatchResponse struct {
	JobID string `json:"jobId"`
	Total int    `json:"total"`
}

// BatchJobResponse describes the state of a batch job
type BatchJobResponse struct {
	ID          string                     `json:"id"`
	Status      string                     `json:"status" example:"running" enums:"running,completed,cancelled"`
	Cancellable bool                       `json:"cancellable"`
	Progress    certification.Progress     `json:"progress"`
	Summary     string                     `json:"summary,omitempty"`
	Result      *certification.BatchResult `json:"result,omitempty"`
	StartedBy   string                     `json:"startedBy"`
	StartedAt   time.Time                  `json:"startedAt"`
	FinishedAt  *time.Time                 `json:"finishedAt,omitempty"`
}
