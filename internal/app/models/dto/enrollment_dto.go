package dto

import "github.com/yigit/lms/internal/app/models"

// EnrollmentListQuery filters enrollment listings
type EnrollmentListQuery struct {
	UserID   string `form:"user_id" binding:"omitempty,uuid"`
	CourseID string `form:"course_id" binding:"omitempty,uuid"`
	Limit    uint64 `form:"limit" binding:"omitempty,max=500"`
	Offset   uint64 `form:"offset"`
}

// Filter converts the query into a repository filter
func (q EnrollmentListQuery) Filter() models.EnrollmentFilter {
	return models.EnrollmentFilter{UserID: q.UserID, CourseID: q.CourseID, Limit: q.Limit, Offset: q.Offset}
}

// EnrollRequest enrolls a user in a course. UserID defaults to the caller.
type EnrollRequest struct {
	UserID   string `json:"user_id" binding:"omitempty,uuid"`
	CourseID string `json:"course_id" binding:"required,uuid"`
}

// UpdateProgressRequest sets the stored progress of an enrollment
type UpdateProgressRequest struct {
	UserID   string `json:"user_id" binding:"required,uuid"`
	CourseID string `json:"course_id" binding:"required,uuid"`
	Progress *int   `json:"progress" binding:"required,min=0,max=100"`
}
