package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kidzy-family/kidzy/internal/app/household"
	"github.com/kidzy-family/kidzy/internal/domain"
	"github.com/kidzy-family/kidzy/internal/infra/metrics"
)

// Authenticator runs the PIN login flow against the household store.
type Authenticator struct {
	store   *household.Store
	limiter *Limiter
	log     *slog.Logger
}

// NewAuthenticator creates an authenticator.
func NewAuthenticator(store *household.Store, limiter *Limiter, log *slog.Logger) *Authenticator {
	if log == nil {
		log = slog.Default()
	}
	return &Authenticator{store: store, limiter: limiter, log: log.With("component", "auth")}
}

func lockoutKey(familyID string) string { return "login:" + familyID }

// Login verifies pin and makes parentID the session parent. A legacy
// plaintext PIN is re-hashed in the same transition. Failures count
// towards the lockout; while locked every attempt returns *AuthLockoutError.
// A non-nil error after a successful login is a save failure: the session
// is active in memory.
func (a *Authenticator) Login(ctx context.Context, parentID, pin string) error {
	s := a.store.Snapshot()
	if s.Family == nil {
		return domain.ErrNoFamily
	}
	key := lockoutKey(s.Family.ID)
	if err := a.limiter.Check(ctx, key); err != nil {
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		return err
	}
	if _, ok := s.Parent(parentID); !ok {
		return domain.Missing("parent", parentID)
	}

	ok, legacy := VerifyPIN(s.Family.PIN, pin)
	if !ok {
		metrics.LoginAttempts.WithLabelValues("wrong_pin").Inc()
		st, err := a.limiter.Fail(ctx, key)
		if err != nil {
			return err
		}
		a.log.Warn("wrong PIN", "parent", parentID, "attempts", st.Attempts)
		return domain.ErrWrongPIN
	}

	cmd := household.CompleteLogin{ParentID: parentID}
	if legacy {
		hashed, err := HashPIN(pin)
		if err != nil {
			return err
		}
		cmd.UpgradedPIN = hashed
		a.log.Info("upgrading legacy PIN")
	}
	out, err := a.store.Dispatch(ctx, cmd)
	if !out.Applied {
		return out.Reason
	}
	if rerr := a.limiter.Reset(ctx, key); rerr != nil {
		a.log.Error("reset lockout", "err", rerr)
	}
	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	return err
}

// MatchExternal logs in the parent linked to an external identity, matched
// by uid first and then case-insensitively by email.
func (a *Authenticator) MatchExternal(ctx context.Context, email, uid string) (domain.Parent, error) {
	s := a.store.Snapshot()
	if s.Family == nil {
		return domain.Parent{}, domain.ErrNoFamily
	}
	p, ok := matchParent(s.Parents, email, uid)
	if !ok {
		return domain.Parent{}, domain.ErrNoMatch
	}
	out, err := a.store.Dispatch(ctx, household.SetCurrentParent{ParentID: p.ID})
	if !out.Applied {
		return domain.Parent{}, fmt.Errorf("start session: %w", out.Reason)
	}
	return p, err
}

func matchParent(parents []domain.Parent, email, uid string) (domain.Parent, bool) {
	if uid != "" {
		for _, p := range parents {
			if p.ExternalUID == uid {
				return p, true
			}
		}
	}
	email = strings.TrimSpace(email)
	if email != "" {
		for _, p := range parents {
			if strings.EqualFold(p.Email, email) {
				return p, true
			}
		}
	}
	return domain.Parent{}, false
}
