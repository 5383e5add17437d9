package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// ─── Errors ─────────────────────────────────────────────────────────────────

func TestStructuredErrors_Unwrap(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"quota", &StorageQuotaError{Size: 10, Limit: 5}, ErrStorageQuota},
		{"import", &ImportFormatError{Reason: "missing keys"}, ErrImportFormat},
		{"lockout", &AuthLockoutError{Remaining: time.Minute}, ErrLocked},
		{"invalid", Invalid("name", "is required"), ErrValidation},
		{"missing", Missing("kid", "kid_9"), ErrReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.want)
			}
		})
	}
}

func TestIsRejection(t *testing.T) {
	if !IsRejection(Invalid("amount", "must be positive")) {
		t.Error("validation error should be a rejection")
	}
	if !IsRejection(Missing("wish", "w1")) {
		t.Error("reference error should be a rejection")
	}
	if IsRejection(&StorageQuotaError{Size: 2, Limit: 1}) {
		t.Error("quota error is not a rejection")
	}
}

func TestAuthLockoutError_Message(t *testing.T) {
	err := &AuthLockoutError{Remaining: 29*time.Second + 600*time.Millisecond}
	if got := err.Error(); got != "login locked, try again in 30s" {
		t.Errorf("Error() = %q", got)
	}
}

// ─── Ledger Entries ─────────────────────────────────────────────────────────

func TestTransaction_Signed(t *testing.T) {
	amt := decimal.RequireFromString("2.5")
	tests := []struct {
		typ  TxType
		want string
	}{
		{TxEarn, "2.5"},
		{TxDeduct, "-2.5"},
		{TxRedeem, "-2.5"},
		{TxType("gift"), "0"},
	}
	for _, tt := range tests {
		got := Transaction{Type: tt.typ, Amount: amt}.Signed()
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("Signed(%s) = %s, want %s", tt.typ, got, tt.want)
		}
	}
}

func TestBonus_Apply(t *testing.T) {
	base := decimal.NewFromInt(3)
	if got := (Bonus{Multiplier: 2}).Apply(base); !got.Equal(decimal.NewFromInt(6)) {
		t.Errorf("x2 = %s, want 6", got)
	}
	if got := (Bonus{}).Apply(base); !got.Equal(base) {
		t.Errorf("zero multiplier = %s, want base", got)
	}
}

func TestProgress_Pct(t *testing.T) {
	p := Progress{Current: decimal.NewFromInt(3), Target: decimal.NewFromInt(4)}
	if p.Pct() != 75 {
		t.Errorf("Pct() = %d, want 75", p.Pct())
	}
	p.Current = decimal.NewFromInt(9)
	if p.Pct() != 100 {
		t.Errorf("Pct() over target = %d, want 100", p.Pct())
	}
}

// ─── Snapshot ───────────────────────────────────────────────────────────────

func TestDefaultSnapshot(t *testing.T) {
	s := DefaultSnapshot()
	if s.Family != nil {
		t.Error("default snapshot should have no family")
	}
	if len(s.BehaviorCategories) != 5 {
		t.Errorf("categories = %d, want 5", len(s.BehaviorCategories))
	}
	item, cat, ok := s.Behavior("bh_1")
	if !ok || cat != "Health" || item.Name != "Ate fruits/vegetables" || !item.DollarValue.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Behavior(bh_1) = %+v, %q, %v", item, cat, ok)
	}
	if s.Settings.WeekStartDay != "monday" {
		t.Errorf("WeekStartDay = %q", s.Settings.WeekStartDay)
	}
}

func TestClone_Independent(t *testing.T) {
	s := DefaultSnapshot()
	s.Family = &Family{ID: "fam_1", Name: "Rivera"}
	s.Kids = append(s.Kids, Kid{ID: "kid_1", Name: "Ava"})

	c := s.Clone()
	c.Family.Name = "Changed"
	c.Kids[0].Name = "Changed"
	c.BehaviorCategories[0].Items[0].Name = "Changed"

	if s.Family.Name != "Rivera" || s.Kids[0].Name != "Ava" {
		t.Error("Clone shares family or kids with the original")
	}
	if s.BehaviorCategories[0].Items[0].Name == "Changed" {
		t.Error("Clone shares behavior items with the original")
	}
}

func TestDecodeSnapshot_MergesOverDefaults(t *testing.T) {
	s, err := DecodeSnapshot([]byte(`{"kids":[{"id":"kid_1","name":"Ava"}],"settings":{"soundEnabled":false},"transactions":null}`))
	if err != nil {
		t.Fatalf("DecodeSnapshot() error: %v", err)
	}
	if len(s.Kids) != 1 || s.Kids[0].Name != "Ava" {
		t.Errorf("Kids = %+v", s.Kids)
	}
	if s.Transactions == nil {
		t.Error("null transactions should normalize to empty")
	}
	if len(s.BehaviorCategories) == 0 {
		t.Error("missing catalog should fall back to defaults")
	}
	if s.Settings.SoundEnabled || !s.Settings.HapticsEnabled || s.Settings.Currency != "$" {
		t.Errorf("Settings = %+v, want stored key over defaults", s.Settings)
	}
}

func TestDecodeSnapshot_Malformed(t *testing.T) {
	if _, err := DecodeSnapshot([]byte(`{"kids":`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestNeedsAutoLogin(t *testing.T) {
	s := DefaultSnapshot()
	if s.NeedsAutoLogin() {
		t.Error("no family, no auto-login")
	}
	s.Family = &Family{ID: "fam_1"}
	s.Parents = []Parent{{ID: "parent_1"}}
	if !s.NeedsAutoLogin() {
		t.Error("fresh setup should auto-login")
	}
	s.LoggedOut = true
	if s.NeedsAutoLogin() {
		t.Error("explicit logout should stay logged out")
	}
}

func TestHasCompletion(t *testing.T) {
	s := DefaultSnapshot()
	s.Challenges = []ChallengeCompletion{{ChallengeID: "big_earner", KidID: "kid_1", Date: "2024-03-15"}}
	if !s.HasCompletion("big_earner", "kid_1", "2024-03-15") {
		t.Error("expected completion")
	}
	if s.HasCompletion("big_earner", "kid_1", "2024-03-16") {
		t.Error("completion is per date")
	}
}
