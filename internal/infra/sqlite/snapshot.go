package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kidzy-family/kidzy/internal/domain"
	"github.com/kidzy-family/kidzy/internal/infra/metrics"
)

// ─── Snapshot Gateway ───────────────────────────────────────────────────────

// Load returns the stored household. A missing row yields the default
// snapshot; so does a blob that no longer parses, which is logged.
func (d *DB) Load(ctx context.Context) (domain.Snapshot, error) {
	var data []byte
	err := d.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSnapshot(), nil
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	s, err := domain.DecodeSnapshot(data)
	if err != nil {
		d.log.Warn("stored snapshot unreadable, starting from defaults", "err", err, "bytes", len(data))
		return domain.DefaultSnapshot(), nil
	}
	return s, nil
}

// Save replaces the stored household. An encoding larger than the
// configured capacity is refused with *domain.StorageQuotaError.
func (d *DB) Save(ctx context.Context, s domain.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		metrics.SnapshotSaves.WithLabelValues("error").Inc()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if d.maxBytes > 0 && len(data) > d.maxBytes {
		metrics.SnapshotSaves.WithLabelValues("quota").Inc()
		return &domain.StorageQuotaError{Size: len(data), Limit: d.maxBytes}
	}

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, data, size_bytes, saved_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			data=excluded.data,
			size_bytes=excluded.size_bytes,
			saved_at=excluded.saved_at`,
		data, len(data), time.Now().Unix(),
	)
	if err != nil {
		metrics.SnapshotSaves.WithLabelValues("error").Inc()
		return fmt.Errorf("save snapshot: %w", err)
	}
	metrics.SnapshotSaves.WithLabelValues("ok").Inc()
	metrics.SnapshotBytes.Set(float64(len(data)))
	return nil
}

// SnapshotInfo describes the stored snapshot row.
type SnapshotInfo struct {
	SizeBytes int
	Limit     int // 0 when uncapped
	SavedAt   time.Time
}

// Info reports the stored snapshot's size and save time. A household that
// was never saved reports a zero SavedAt.
func (d *DB) Info(ctx context.Context) (SnapshotInfo, error) {
	info := SnapshotInfo{}
	if d.maxBytes > 0 {
		info.Limit = d.maxBytes
	}
	var savedAt int64
	err := d.db.QueryRowContext(ctx,
		`SELECT size_bytes, saved_at FROM snapshots WHERE id = 1`).Scan(&info.SizeBytes, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("snapshot info: %w", err)
	}
	info.SavedAt = time.Unix(savedAt, 0)
	return info, nil
}

// ─── Key-Value ──────────────────────────────────────────────────────────────

// SetValue stores a key-value pair.
func (d *DB) SetValue(ctx context.Context, key, value string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	return err
}

// GetValue retrieves a value by key.
// Returns "" if key not found.
func (d *DB) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// ─── Lockout Store ──────────────────────────────────────────────────────────

const lockoutPrefix = "lockout:"

// GetLockout returns the failed-login state for key, zero if none.
func (d *DB) GetLockout(ctx context.Context, key string) (domain.LockoutState, error) {
	var st domain.LockoutState
	raw, err := d.GetValue(ctx, lockoutPrefix+key)
	if err != nil {
		return st, fmt.Errorf("get lockout: %w", err)
	}
	if raw == "" {
		return st, nil
	}
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		d.log.Warn("corrupt lockout state, clearing", "key", key, "err", err)
		return domain.LockoutState{}, nil
	}
	return st, nil
}

// PutLockout stores the failed-login state for key.
func (d *DB) PutLockout(ctx context.Context, key string, st domain.LockoutState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode lockout: %w", err)
	}
	if err := d.SetValue(ctx, lockoutPrefix+key, string(raw)); err != nil {
		return fmt.Errorf("put lockout: %w", err)
	}
	return nil
}
