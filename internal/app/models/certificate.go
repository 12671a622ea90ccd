package models

import "time"

// Certificate is the proof of completion for a (user, course) pair.
// UserName and CourseName are frozen at issuance time.
type Certificate struct {
	ID                 string     `json:"id" db:"id"`
	UserID             string     `json:"userId" db:"user_id"`
	CourseID           string     `json:"courseId" db:"course_id"`
	UserName           string     `json:"userName" db:"user_name"`
	CourseName         string     `json:"courseName" db:"course_name"`
	CourseHours        int        `json:"courseHours" db:"course_hours"`
	RegistrationNumber string     `json:"registrationNumber" db:"registration_number" example:"CERT-LZ3K1Q2A-7XK2P"`
	IssueDate          time.Time  `json:"issueDate" db:"issue_date"`
	ExpiryDate         *time.Time `json:"expiryDate,omitempty" db:"expiry_date"`
	CertificateURL     *string    `json:"certificateUrl,omitempty" db:"certificate_url"`
	CertificateHTML    *string    `json:"certificateHtml,omitempty" db:"certificate_html"`
	CreatedAt          time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time  `json:"updatedAt" db:"updated_at"`
}

// CertificateFilter narrows certificate listings. Empty fields are ignored.
type CertificateFilter struct {
	UserID   string
	CourseID string
	Limit    uint64
}

// CertificateUpdate carries an administrative correction. Nil fields are left untouched.
type CertificateUpdate struct {
	UserName       *string
	CourseName     *string
	CourseHours    *int
	IssueDate      *time.Time
	ExpiryDate     *time.Time
	CertificateURL *string
}

// IsEmpty reports whether the update changes nothing.
func (u CertificateUpdate) IsEmpty() bool {
	return u.UserName == nil && u.CourseName == nil && u.CourseHours == nil &&
		u.IssueDate == nil && u.ExpiryDate == nil && u.CertificateURL == nil
}
