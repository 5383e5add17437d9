package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// SnapshotGateway persists the whole household as one blob.
// Implemented by infra/sqlite.DB.
type SnapshotGateway interface {
	// Load returns the stored snapshot, or DefaultSnapshot() when nothing is
	// stored or the stored blob cannot be parsed. Errors are I/O failures only.
	Load(ctx context.Context) (Snapshot, error)

	// Save replaces the stored snapshot. A *StorageQuotaError is returned when
	// the encoded snapshot does not fit.
	Save(ctx context.Context, s Snapshot) error
}

// LockoutState is the failed-login counter for one login key.
type LockoutState struct {
	Attempts    int       `json:"attempts"`
	LockedUntil time.Time `json:"lockedUntil"`
}

// LockoutStore persists LockoutState independently of the snapshot, so an
// import or reset never clears a lockout.
type LockoutStore interface {
	GetLockout(ctx context.Context, key string) (LockoutState, error)
	PutLockout(ctx context.Context, key string, st LockoutState) error
}
