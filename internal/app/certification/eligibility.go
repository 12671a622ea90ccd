package certification

import "github.com/yigit/lms/internal/app/models"

// IsEligible reports whether an enrollment qualifies for a certificate.
// Unknown progress is never eligible.
func IsEligible(enrollment *models.Enrollment) bool {
	if enrollment == nil || enrollment.Progress == nil {
		return false
	}
	return *enrollment.Progress == models.MaxProgress
}
