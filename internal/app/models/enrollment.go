package models

import "time"

// Enrollment links a user to a course with a completion percentage.
// Progress is a pointer so rows with an unknown progress stay distinguishable from 0.
type Enrollment struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"userId" db:"user_id"`
	CourseID    string     `json:"courseId" db:"course_id"`
	Progress    *int       `json:"progress" db:"progress" example:"100"`
	EnrolledAt  time.Time  `json:"enrolledAt" db:"enrolled_at"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`
}

// ProgressValue returns the stored progress or 0 when unknown.
func (e *Enrollment) ProgressValue() int {
	if e == nil || e.Progress == nil {
		return 0
	}
	return *e.Progress
}

// EnrollmentFilter narrows enrollment listings. Empty fields are ignored.
type EnrollmentFilter struct {
	UserID        string
	CourseID      string
	MinProgress   *int
	WithoutCert   bool
	Limit, Offset uint64
}
