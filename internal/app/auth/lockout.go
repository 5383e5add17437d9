package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/kidzy-family/kidzy/internal/domain"
)

// LockoutConfig configures failed-login backoff.
type LockoutConfig struct {
	Threshold int           // Failures before the first lock
	BaseDelay time.Duration // First lock duration (doubles each further failure)
	MaxDelay  time.Duration // Cap on lock duration
}

// DefaultLockoutConfig returns production lockout defaults.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		Threshold: 5,
		BaseDelay: 30 * time.Second,
		MaxDelay:  time.Hour,
	}
}

// Limiter tracks consecutive failures per login key in a LockoutStore, so
// lockouts survive restarts and imports.
type Limiter struct {
	store  domain.LockoutStore
	config LockoutConfig
	clock  func() time.Time
}

// NewLimiter creates a limiter. A nil clock uses time.Now.
func NewLimiter(store domain.LockoutStore, cfg LockoutConfig, clock func() time.Time) *Limiter {
	if clock == nil {
		clock = time.Now
	}
	if cfg.Threshold < 1 {
		cfg.Threshold = DefaultLockoutConfig().Threshold
	}
	return &Limiter{store: store, config: cfg, clock: clock}
}

// Delay returns how long the failures-th consecutive failure locks login.
// Zero below the threshold, then base * 2^(failures-threshold) up to max.
func (c LockoutConfig) Delay(failures int) time.Duration {
	if failures < c.Threshold {
		return 0
	}
	d := c.BaseDelay
	for i := c.Threshold; i < failures; i++ {
		d *= 2
		if d >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if d > c.MaxDelay {
		return c.MaxDelay
	}
	return d
}

// Check returns an *AuthLockoutError while key is locked.
func (l *Limiter) Check(ctx context.Context, key string) error {
	st, err := l.store.GetLockout(ctx, key)
	if err != nil {
		return fmt.Errorf("read lockout: %w", err)
	}
	if now := l.clock(); now.Before(st.LockedUntil) {
		return &domain.AuthLockoutError{Remaining: st.LockedUntil.Sub(now)}
	}
	return nil
}

// Fail records a failed attempt and returns the updated state.
func (l *Limiter) Fail(ctx context.Context, key string) (domain.LockoutState, error) {
	st, err := l.store.GetLockout(ctx, key)
	if err != nil {
		return st, fmt.Errorf("read lockout: %w", err)
	}
	st.Attempts++
	if d := l.config.Delay(st.Attempts); d > 0 {
		st.LockedUntil = l.clock().Add(d)
	}
	if err := l.store.PutLockout(ctx, key, st); err != nil {
		return st, fmt.Errorf("write lockout: %w", err)
	}
	return st, nil
}

// Reset clears the failure count after a successful login.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if err := l.store.PutLockout(ctx, key, domain.LockoutState{}); err != nil {
		return fmt.Errorf("reset lockout: %w", err)
	}
	return nil
}
