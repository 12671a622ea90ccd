package dto

import (
	"time"

	"github.com/yigit/lms/internal/app/models"
)

// CheckCertificateQuery identifies the (user, course) pair to look up
type CheckCertificateQuery struct {
	UserID   string `form:"user_id" binding:"required,uuid"`
	CourseID string `form:"course_id" binding:"required,uuid"`
}

// CertificateListQuery filters certificate listings
type CertificateListQuery struct {
	UserID   string `form:"user_id" binding:"omitempty,uuid"`
	CourseID string `form:"course_id" binding:"omitempty,uuid"`
	Limit    uint64 `form:"limit" binding:"omitempty,max=500"`
}

// Filter converts the query into a repository filter
func (q CertificateListQuery) Filter() models.CertificateFilter {
	return models.CertificateFilter{UserID: q.UserID, CourseID: q.CourseID, Limit: q.Limit}
}

// CreateCertificateRequest asks for a certificate to be issued.
// Names are optional and resolved from the user and course when empty.
type CreateCertificateRequest struct {
	UserID     string     `json:"user_id" binding:"required,uuid"`
	CourseID   string     `json:"course_id" binding:"required,uuid"`
	UserName   string     `json:"user_name" binding:"max=200"`
	CourseName string     `json:"course_name" binding:"max=200"`
	IssueDate  *time.Time `json:"issue_date,omitempty"`
}

// UpdateCertificateRequest is an administrative correction. Omitted fields are unchanged.
type UpdateCertificateRequest struct {
	UserName       *string    `json:"user_name,omitempty" binding:"omitempty,min=1,max=200"`
	CourseName     *string    `json:"course_name,omitempty" binding:"omitempty,min=1,max=200"`
	CourseHours    *int       `json:"course_hours,omitempty" binding:"omitempty,min=1,max=10000"`
	IssueDate      *time.Time `json:"issue_date,omitempty"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	CertificateURL *string    `json:"certificate_url,omitempty" binding:"omitempty,max=2048"`
}

// ToUpdate converts the request into a model update
func (r UpdateCertificateRequest) ToUpdate() models.CertificateUpdate {
	return models.CertificateUpdate{
		UserName:       r.UserName,
		CourseName:     r.CourseName,
		CourseHours:    r.CourseHours,
		IssueDate:      r.IssueDate,
		ExpiryDate:     r.ExpiryDate,
		CertificateURL: r.CertificateURL,
	}
}

// IssueCertificateResponse is returned by POST /api/certificates
type IssueCertificateResponse struct {
	Certificate *models.Certificate `json:"certificate"`
	Duplicate   bool                `json:"duplicate"`
}
