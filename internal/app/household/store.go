package household

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kidzy-family/kidzy/internal/domain"
	"github.com/kidzy-family/kidzy/internal/infra/metrics"
)

// Outcome reports what a dispatch did to the in-memory state. A rejected
// command has Applied=false and the reason; it is not an error.
type Outcome struct {
	Applied bool
	Reason  error

	// Appended holds the ledger entries the command added.
	Appended []domain.Transaction
}

// Store holds the authoritative snapshot. Dispatch is serialised: one
// transition at a time, each followed by a save.
type Store struct {
	mu      sync.Mutex
	snap    domain.Snapshot
	gw      domain.SnapshotGateway
	reducer *Reducer
	log     *slog.Logger
}

// NewStore loads the snapshot from gw. A household that was set up but has
// nobody logged in gets the first parent as session parent.
func NewStore(ctx context.Context, gw domain.SnapshotGateway, r *Reducer, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	snap, err := gw.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	st := &Store{
		snap:    domain.Normalize(snap),
		gw:      gw,
		reducer: r,
		log:     log.With("component", "store"),
	}
	if st.snap.NeedsAutoLogin() {
		st.snap = st.autoLogin(st.snap)
	}
	return st, nil
}

// Snapshot returns a copy of the current state.
func (st *Store) Snapshot() domain.Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snap.Clone()
}

// Now is the reducer clock, so queries and transitions agree on "today".
func (st *Store) Now() time.Time {
	return st.reducer.Clock()
}

// Dispatch validates cmd, applies it and persists the result. The new state
// is kept even if saving fails; the save error is returned so the caller can
// warn that durable storage is behind.
func (st *Store) Dispatch(ctx context.Context, cmd Command) (Outcome, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	start := time.Now()
	defer func() {
		metrics.CommandLatency.WithLabelValues(cmd.Kind()).Observe(time.Since(start).Seconds())
	}()

	next, reason, panicked := st.transition(cmd)
	if panicked {
		metrics.CommandsTotal.WithLabelValues(cmd.Kind(), "panic").Inc()
		return Outcome{Reason: reason}, nil
	}
	if reason != nil {
		metrics.CommandsTotal.WithLabelValues(cmd.Kind(), "rejected").Inc()
		st.log.Info("command rejected", "command", cmd.Kind(), "reason", reason)
		return Outcome{Reason: reason}, nil
	}

	if next.NeedsAutoLogin() {
		next = st.autoLogin(next)
	}
	out := Outcome{Applied: true, Appended: appended(cmd, st.snap, next)}
	for _, tx := range out.Appended {
		metrics.TransactionsTotal.WithLabelValues(string(tx.Type)).Inc()
	}
	st.snap = next
	metrics.CommandsTotal.WithLabelValues(cmd.Kind(), "applied").Inc()
	st.log.Debug("command applied", "command", cmd.Kind())

	return out, st.persist(ctx)
}

// transition runs the reducer, turning a panic into a no-op.
func (st *Store) transition(cmd Command) (next domain.Snapshot, reason error, panicked bool) {
	defer func() {
		if p := recover(); p != nil {
			st.log.Error("command panicked", "command", cmd.Kind(), "panic", p)
			next, reason, panicked = st.snap, fmt.Errorf("%s: internal error", cmd.Kind()), true
		}
	}()
	next, reason = st.reducer.Apply(st.snap, cmd)
	return next, reason, false
}

func (st *Store) autoLogin(s domain.Snapshot) domain.Snapshot {
	next, err := st.reducer.Apply(s, SetCurrentParent{ParentID: s.Parents[0].ID})
	if err != nil {
		st.log.Warn("auto-login failed", "err", err)
		return s
	}
	st.log.Info("auto-login", "parent", s.Parents[0].ID)
	return next
}

func (st *Store) persist(ctx context.Context) error {
	err := st.gw.Save(ctx, st.snap)
	var quota *domain.StorageQuotaError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &quota):
		st.log.Warn("snapshot not saved: storage full", "size", quota.Size, "limit", quota.Limit)
	default:
		st.log.Error("snapshot not saved", "err", err)
	}
	return fmt.Errorf("save snapshot: %w", err)
}

// appended returns the transactions cmd added. Wholesale replacements are
// not new activity.
func appended(cmd Command, prev, next domain.Snapshot) []domain.Transaction {
	switch cmd.(type) {
	case LoadData, ResetAll:
		return nil
	}
	if len(next.Transactions) <= len(prev.Transactions) {
		return nil
	}
	out := make([]domain.Transaction, len(next.Transactions)-len(prev.Transactions))
	copy(out, next.Transactions[len(prev.Transactions):])
	return out
}
