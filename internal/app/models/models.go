package models

// RoleType defines the user role type
type RoleType string

const (
	RoleAdmin   RoleType = "admin"
	RoleStudent RoleType = "student"
)

// Valid reports whether the role is one the platform knows about.
func (r RoleType) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// MaxProgress is the progress value of a fully completed enrollment.
const MaxProgress = 100
