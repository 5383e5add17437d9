package domain

import (
	"errors"
	"fmt"
	"time"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure: no infrastructure dependency.

var (
	// Command rejections. The reducer reports these but never fails on them:
	// a rejected command leaves the snapshot untouched.
	ErrValidation = errors.New("invalid command payload")
	ErrReference  = errors.New("referenced entity does not exist")

	// Persistence errors
	ErrStorageQuota = errors.New("snapshot exceeds storage capacity")
	ErrImportFormat = errors.New("invalid import document")

	// Auth errors
	ErrNoFamily = errors.New("household is not set up")
	ErrWrongPIN = errors.New("wrong PIN")
	ErrLocked   = errors.New("too many failed login attempts")
	ErrNoMatch  = errors.New("no parent linked to this identity")
)

// ─── Structured Errors ──────────────────────────────────────────────────────

// StorageQuotaError reports a save that did not fit the store. The in-memory
// snapshot stays authoritative; only the durable copy is behind.
type StorageQuotaError struct {
	Size  int
	Limit int
}

func (e *StorageQuotaError) Error() string {
	return fmt.Sprintf("snapshot is %d bytes, storage limit is %d bytes", e.Size, e.Limit)
}

func (e *StorageQuotaError) Unwrap() error { return ErrStorageQuota }

// ImportFormatError explains why an import document was refused.
type ImportFormatError struct {
	Reason string
}

func (e *ImportFormatError) Error() string {
	return "import rejected: " + e.Reason
}

func (e *ImportFormatError) Unwrap() error { return ErrImportFormat }

// AuthLockoutError carries how long login stays locked.
type AuthLockoutError struct {
	Remaining time.Duration
}

func (e *AuthLockoutError) Error() string {
	return fmt.Sprintf("login locked, try again in %s", e.Remaining.Round(time.Second))
}

func (e *AuthLockoutError) Unwrap() error { return ErrLocked }

// Invalid wraps ErrValidation with the offending field.
func Invalid(field, problem string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, problem)
}

// Missing wraps ErrReference with the kind and id that could not be found.
func Missing(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrReference, kind, id)
}

// IsRejection reports whether err is a silent command rejection.
func IsRejection(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrReference)
}
