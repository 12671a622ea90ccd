// Package certification holds the certificate issuance workflow: eligibility,
// idempotent issuance and batch coordination. It depends only on the store
// ports declared here, never on a concrete database.
package certification

import (
	"errors"
	"fmt"
)

var (
	// ErrNotEnrolled is returned when no enrollment exists for the pair.
	ErrNotEnrolled = errors.New("user is not enrolled in this course")
	// ErrNotEligible is returned when the enrollment has not reached 100% progress.
	ErrNotEligible = errors.New("course must be 100% complete to receive a certificate")
	// ErrStorageFailure wraps any persistence error. Callers may retry.
	ErrStorageFailure = errors.New("certificate storage failure")
	// ErrUniqueViolation must be returned (possibly wrapped) by CertificateStore.Insert
	// when a certificate for the same user and course already exists.
	ErrUniqueViolation = errors.New("certificate already exists for user and course")
	// ErrInvalidRequest is returned for requests missing the user or course id.
	ErrInvalidRequest = errors.New("user id and course id are required")
	// ErrCancelled marks batch items that were never attempted because the batch was cancelled.
	ErrCancelled = errors.New("batch cancelled before the item was attempted")
)

func storageFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}
