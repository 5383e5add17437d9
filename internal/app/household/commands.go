package household

import (
	"github.com/shopspring/decimal"

	"github.com/kidzy-family/kidzy/internal/domain"
)

// Command is a state transition request. The set is closed: only the types
// in this file implement it.
type Command interface {
	// Kind is the stable snake_case identifier used in logs and metrics.
	Kind() string
	command()
}

// ─── Session ────────────────────────────────────────────────────────────────

// KidInput describes a kid created together with the family.
type KidInput struct {
	Name   string `json:"name"`
	Age    *int   `json:"age,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// SetupFamily creates the family, its admin parent and optional kids.
// PIN must already be hashed by the caller.
type SetupFamily struct {
	FamilyName   string
	PIN          string
	ParentName   string
	ParentAvatar string
	ParentEmail  string
	Kids         []KidInput
}

// SetCurrentParent switches the session to an existing parent.
type SetCurrentParent struct{ ParentID string }

// CompleteLogin starts a session after a successful PIN check. UpgradedPIN,
// when set, replaces a legacy plaintext PIN in the same transition.
type CompleteLogin struct {
	ParentID    string
	UpgradedPIN string
}

// Logout ends the session and suppresses auto-login.
type Logout struct{}

// SetKidMode enters the kid-facing view for KidID, or leaves it when empty.
type SetKidMode struct{ KidID string }

// ─── Parents & Kids ─────────────────────────────────────────────────────────

type AddParent struct {
	Name        string
	Avatar      string
	Email       string
	ExternalUID string
}

// UpdateParent patches the non-nil fields.
type UpdateParent struct {
	ID          string
	Name        *string
	Avatar      *string
	Email       *string
	ExternalUID *string
}

type RemoveParent struct{ ID string }

type AddKid struct {
	Name   string
	Age    *int
	Avatar string
}

// UpdateKid patches the non-nil fields.
type UpdateKid struct {
	ID     string
	Name   *string
	Age    *int
	Avatar *string
}

// RemoveKid deletes the kid and everything that references it.
type RemoveKid struct{ ID string }

// ─── Behaviors ──────────────────────────────────────────────────────────────

type AddBehaviorCategory struct {
	Name  string
	Icon  string
	Color string
}

type AddBehaviorItem struct {
	CategoryID  string
	Name        string
	DollarValue decimal.Decimal
	Frequency   domain.Frequency
}

type RemoveBehaviorItem struct {
	CategoryID string
	ItemID     string
}

// ReplaceBehaviorCategories swaps the whole catalog.
type ReplaceBehaviorCategories struct {
	Categories []domain.BehaviorCategory
}

// ─── Ledger ─────────────────────────────────────────────────────────────────

// AddTransaction appends a ledger entry. ID and timestamp are assigned by
// the reducer. Multiplier is zero or 1..3 and only used for earns.
type AddTransaction struct {
	KidID      string
	ParentID   string
	Type       domain.TxType
	Amount     decimal.Decimal
	Reason     string
	Category   string
	BehaviorID string
	Multiplier int
}

// RemoveTransaction is the administrative correction that deletes an entry.
type RemoveTransaction struct{ ID string }

// ─── Wishes & Dreams ────────────────────────────────────────────────────────

type AddWish struct {
	KidID         string
	Name          string
	TargetDollars decimal.Decimal
	Icon          string
	Image         string
}

// UpdateWish patches an active wish.
type UpdateWish struct {
	ID            string
	Name          *string
	TargetDollars *decimal.Decimal
	Icon          *string
	Image         *string
}

type RemoveWish struct{ ID string }

// RedeemWish spends Amount on the wish and marks it redeemed, appending the
// matching redeem transaction in the same transition.
type RedeemWish struct {
	WishID   string
	KidID    string
	Amount   decimal.Decimal
	WishName string
	ParentID string
}

// FulfillWish records that a redeemed wish was handed over.
type FulfillWish struct{ ID string }

type AddDream struct {
	KidID         string
	Name          string
	Description   string
	TargetDollars decimal.Decimal
	Icon          string
	Image         string
}

type UpdateDream struct {
	ID            string
	Name          *string
	Description   *string
	TargetDollars *decimal.Decimal
	Icon          *string
	Image         *string
}

type RemoveDream struct{ ID string }

// ─── Challenges ─────────────────────────────────────────────────────────────

// CompleteChallenge claims a daily challenge and pays its reward. Reward is
// optional; when given it must equal the template reward.
type CompleteChallenge struct {
	ChallengeID string
	KidID       string
	Date        string
	Reward      *decimal.Decimal
}

// ─── Settings & Lifecycle ───────────────────────────────────────────────────

// UpdateSettings patches the non-nil settings.
type UpdateSettings struct {
	Currency             *string
	WeekStartDay         *string
	SoundEnabled         *bool
	HapticsEnabled       *bool
	DailyCheckInReminder *bool
}

type SetOnboardingComplete struct{}

// LoadData replaces the whole snapshot. Used by import.
type LoadData struct{ Snapshot domain.Snapshot }

// ResetAll returns the household to DefaultSnapshot.
type ResetAll struct{}

func (SetupFamily) Kind() string               { return "setup_family" }
func (SetCurrentParent) Kind() string          { return "set_current_parent" }
func (CompleteLogin) Kind() string             { return "complete_login" }
func (Logout) Kind() string                    { return "logout" }
func (SetKidMode) Kind() string                { return "set_kid_mode" }
func (AddParent) Kind() string                 { return "add_parent" }
func (UpdateParent) Kind() string              { return "update_parent" }
func (RemoveParent) Kind() string              { return "remove_parent" }
func (AddKid) Kind() string                    { return "add_kid" }
func (UpdateKid) Kind() string                 { return "update_kid" }
func (RemoveKid) Kind() string                 { return "remove_kid" }
func (AddBehaviorCategory) Kind() string       { return "add_behavior_category" }
func (AddBehaviorItem) Kind() string           { return "add_behavior_item" }
func (RemoveBehaviorItem) Kind() string        { return "remove_behavior_item" }
func (ReplaceBehaviorCategories) Kind() string { return "replace_behavior_categories" }
func (AddTransaction) Kind() string            { return "add_transaction" }
func (RemoveTransaction) Kind() string         { return "remove_transaction" }
func (AddWish) Kind() string                   { return "add_wish" }
func (UpdateWish) Kind() string                { return "update_wish" }
func (RemoveWish) Kind() string                { return "remove_wish" }
func (RedeemWish) Kind() string                { return "redeem_wish" }
func (FulfillWish) Kind() string               { return "fulfill_wish" }
func (AddDream) Kind() string                  { return "add_dream" }
func (UpdateDream) Kind() string               { return "update_dream" }
func (RemoveDream) Kind() string               { return "remove_dream" }
func (CompleteChallenge) Kind() string         { return "complete_challenge" }
func (UpdateSettings) Kind() string            { return "update_settings" }
func (SetOnboardingComplete) Kind() string     { return "set_onboarding_complete" }
func (LoadData) Kind() string                  { return "load_data" }
func (ResetAll) Kind() string                  { return "reset_all" }

func (SetupFamily) command()               {}
func (SetCurrentParent) command()          {}
func (CompleteLogin) command()             {}
func (Logout) command()                    {}
func (SetKidMode) command()                {}
func (AddParent) command()                 {}
func (UpdateParent) command()              {}
func (RemoveParent) command()              {}
func (AddKid) command()                    {}
func (UpdateKid) command()                 {}
func (RemoveKid) command()                 {}
func (AddBehaviorCategory) command()       {}
func (AddBehaviorItem) command()           {}
func (RemoveBehaviorItem) command()        {}
func (ReplaceBehaviorCategories) command() {}
func (AddTransaction) command()            {}
func (RemoveTransaction) command()         {}
func (AddWish) command()                   {}
func (UpdateWish) command()                {}
func (RemoveWish) command()                {}
func (RedeemWish) command()                {}
func (FulfillWish) command()               {}
func (AddDream) command()                  {}
func (UpdateDream) command()               {}
func (RemoveDream) command()               {}
func (CompleteChallenge) command()         {}
func (UpdateSettings) command()            {}
func (SetOnboardingComplete) command()     {}
func (LoadData) command()                  {}
func (ResetAll) command()                  {}
