package models

import (
	"regexp"
	"strconv"
	"time"
)

// DefaultCourseHours is used when a course duration does not state its hours.
const DefaultCourseHours = 40

var hoursPattern = regexp.MustCompile(`(?i)(\d+)\s*h`)

// Course represents a catalog course. Only the fields certificates depend on are modelled.
type Course struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	Duration    *string   `json:"duration,omitempty" db:"duration" example:"40h"`
	Instructor  string    `json:"instructor" db:"instructor"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Hours extracts the workload in hours from the free-form duration ("12h", "8 h 30m").
func (c *Course) Hours() int {
	if c == nil || c.Duration == nil {
		return DefaultCourseHours
	}
	m := hoursPattern.FindStringSubmatch(*c.Duration)
	if len(m) < 2 {
		return DefaultCourseHours
	}
	h, err := strconv.Atoi(m[1])
	if err != nil || h <= 0 {
		return DefaultCourseHours
	}
	return h
}
