package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/pkg/apperrors"
)

// Validation rule patterns
var (
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`

	PasswordMinLength = 8

	NameMinLength = 2
	NameMaxLength = 100
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Email *regexp.Regexp
}{
	Email: regexp.MustCompile(EmailPattern),
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks a normalized email address
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email cannot be empty", apperrors.ErrValidationFailed)
	}
	if !CompiledPatterns.Email.MatchString(email) {
		return apperrors.ErrInvalidEmail
	}
	return nil
}

// ValidatePassword requires a minimum length with at least one letter and one digit
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password cannot be empty", apperrors.ErrValidationFailed)
	}
	if len(password) < PasswordMinLength {
		return fmt.Errorf("%w: password must be at least %d characters long", apperrors.ErrInvalidPassword, PasswordMinLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		return fmt.Errorf("%w: password must contain at least one letter", apperrors.ErrInvalidPassword)
	}
	if !hasDigit {
		return fmt.Errorf("%w: password must contain at least one digit", apperrors.ErrInvalidPassword)
	}
	return nil
}

// ValidateName checks an optional display name. Empty is allowed.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if n := len([]rune(name)); n < NameMinLength || n > NameMaxLength {
		return fmt.Errorf("%w: name must be between %d and %d characters", apperrors.ErrValidationFailed, NameMinLength, NameMaxLength)
	}
	return nil
}

// ValidateProgress requires a percentage between 0 and 100
func ValidateProgress(progress int) error {
	if progress < 0 || progress > models.MaxProgress {
		return fmt.Errorf("%w: progress must be between 0 and %d", apperrors.ErrValidationFailed, models.MaxProgress)
	}
	return nil
}

// ValidateRole accepts only known roles
func ValidateRole(role string) (models.RoleType, error) {
	r := models.RoleType(strings.ToLower(strings.TrimSpace(role)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: role must be admin or student", apperrors.ErrInvalidRole)
	}
	return r, nil
}
