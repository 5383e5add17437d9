// Package domain contains the Kidzy household types.
// Domain types are pure: no persistence, no clock, no randomness.
package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Snapshot documents carry amounts as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// SystemParentID marks transactions issued by the household itself
// (challenge rewards) rather than by a parent.
const SystemParentID = "system"

// ─── Family & Parents ───────────────────────────────────────────────────────

// Family is the household root. PIN holds either a hashed credential or,
// for data created before hashing existed, the plaintext PIN.
type Family struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PIN       string    `json:"pin"`
	CreatedAt time.Time `json:"createdAt"`
}

// ParentRole distinguishes the founding parent from the rest.
type ParentRole string

const (
	RoleAdmin  ParentRole = "admin"
	RoleParent ParentRole = "parent"
)

// Parent is an adult able to award and deduct K$.
type Parent struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Avatar      string     `json:"avatar,omitempty"`
	Role        ParentRole `json:"role"`
	Email       string     `json:"email,omitempty"`
	ExternalUID string     `json:"googleUid,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ─── Kids ───────────────────────────────────────────────────────────────────

// Kid is a child holding a K$ balance.
type Kid struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Age       *int      `json:"age,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ─── Behaviors ──────────────────────────────────────────────────────────────

// Frequency says how often a behavior may be rewarded.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyAnytime   Frequency = "anytime"
	FrequencyMilestone Frequency = "milestone"
)

// BehaviorItem is a single rewardable behavior.
type BehaviorItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DollarValue decimal.Decimal `json:"dollarValue"`
	Frequency   Frequency       `json:"frequency"`
}

// BehaviorCategory groups behavior items for display and challenges.
type BehaviorCategory struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Icon  string         `json:"icon"`
	Color string         `json:"color"`
	Items []BehaviorItem `json:"items"`
}

// ─── Ledger ─────────────────────────────────────────────────────────────────

// TxType is the kind of ledger entry.
type TxType string

const (
	TxEarn   TxType = "earn"
	TxDeduct TxType = "deduct"
	TxRedeem TxType = "redeem"
)

// Valid reports whether t is one of the three ledger types.
func (t TxType) Valid() bool {
	return t == TxEarn || t == TxDeduct || t == TxRedeem
}

// Transaction is one immutable ledger entry. Amount is never negative;
// the sign comes from Type.
type Transaction struct {
	ID         string          `json:"id"`
	KidID      string          `json:"kidId"`
	ParentID   string          `json:"parentId,omitempty"`
	Type       TxType          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
	Category   string          `json:"category,omitempty"`
	BehaviorID string          `json:"behaviorId,omitempty"`
	Multiplier int             `json:"multiplier,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Signed returns the amount with the sign it contributes to a balance.
func (t Transaction) Signed() decimal.Decimal {
	switch t.Type {
	case TxEarn:
		return t.Amount
	case TxDeduct, TxRedeem:
		return t.Amount.Neg()
	}
	return decimal.Zero
}

// ─── Wishes & Dreams ────────────────────────────────────────────────────────

// GoalStatus tracks the wish lifecycle.
type GoalStatus string

const (
	StatusActive   GoalStatus = "active"
	StatusRedeemed GoalStatus = "redeemed"
)

// WishListItem is something a kid saves K$ for and can redeem.
type WishListItem struct {
	ID            string          `json:"id"`
	KidID         string          `json:"kidId"`
	Name          string          `json:"name"`
	TargetDollars decimal.Decimal `json:"targetDollars"`
	Icon          string          `json:"icon,omitempty"`
	Image         string          `json:"image,omitempty"`
	Status        GoalStatus      `json:"status"`
	Fulfilled     bool            `json:"fulfilled,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	RedeemedAt    *time.Time      `json:"redeemedAt,omitempty"`
	FulfilledAt   *time.Time      `json:"fulfilledAt,omitempty"`
}

// DreamGoal is a purely aspirational savings target. It is never redeemed.
type DreamGoal struct {
	ID            string          `json:"id"`
	KidID         string          `json:"kidId"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	TargetDollars decimal.Decimal `json:"targetDollars"`
	Icon          string          `json:"icon,omitempty"`
	Image         string          `json:"image,omitempty"`
	Status        GoalStatus      `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ChallengeCompletion records a claimed daily challenge.
// At most one exists per (ChallengeID, KidID, Date).
type ChallengeCompletion struct {
	ChallengeID string          `json:"challengeId"`
	KidID       string          `json:"kidId"`
	Date        string          `json:"date"`
	Reward      decimal.Decimal `json:"reward"`
	CompletedAt time.Time       `json:"completedAt"`
}

// ─── Settings ───────────────────────────────────────────────────────────────

// Settings holds household preferences.
type Settings struct {
	Currency             string `json:"currency"`
	WeekStartDay         string `json:"weekStartDay"`
	SoundEnabled         bool   `json:"soundEnabled"`
	HapticsEnabled       bool   `json:"hapticsEnabled"`
	DailyCheckInReminder bool   `json:"dailyCheckInReminder"`
}

// DefaultSettings returns the settings of a fresh household.
func DefaultSettings() Settings {
	return Settings{
		Currency:             "$",
		WeekStartDay:         "monday",
		SoundEnabled:         true,
		HapticsEnabled:       true,
		DailyCheckInReminder: true,
	}
}

// ─── Snapshot ───────────────────────────────────────────────────────────────

// Snapshot is the whole persisted household state.
type Snapshot struct {
	Family             *Family               `json:"family"`
	Parents            []Parent              `json:"parents"`
	Kids               []Kid                 `json:"kids"`
	BehaviorCategories []BehaviorCategory    `json:"behaviorCategories"`
	Transactions       []Transaction         `json:"transactions"`
	WishListItems      []WishListItem        `json:"wishListItems"`
	DreamGoals         []DreamGoal           `json:"dreamGoals"`
	Challenges         []ChallengeCompletion `json:"challenges"`
	Settings           Settings              `json:"settings"`

	CurrentParentID    string `json:"currentParentId"`
	LoggedOut          bool   `json:"loggedOut,omitempty"`
	KidMode            string `json:"kidMode,omitempty"`
	OnboardingComplete bool   `json:"onboardingComplete,omitempty"`
}

// DefaultSnapshot returns the pre-setup household: no family, the default
// behavior catalog and default settings.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Parents:            []Parent{},
		Kids:               []Kid{},
		BehaviorCategories: DefaultCategories(),
		Transactions:       []Transaction{},
		WishListItems:      []WishListItem{},
		DreamGoals:         []DreamGoal{},
		Challenges:         []ChallengeCompletion{},
		Settings:           DefaultSettings(),
	}
}

// Clone returns a copy whose slices can be modified without touching s.
func (s Snapshot) Clone() Snapshot {
	c := s
	if s.Family != nil {
		f := *s.Family
		c.Family = &f
	}
	c.Parents = append([]Parent{}, s.Parents...)
	c.Kids = append([]Kid{}, s.Kids...)
	c.Transactions = append([]Transaction{}, s.Transactions...)
	c.WishListItems = append([]WishListItem{}, s.WishListItems...)
	c.DreamGoals = append([]DreamGoal{}, s.DreamGoals...)
	c.Challenges = append([]ChallengeCompletion{}, s.Challenges...)
	c.BehaviorCategories = make([]BehaviorCategory, len(s.BehaviorCategories))
	for i, cat := range s.BehaviorCategories {
		cat.Items = append([]BehaviorItem{}, cat.Items...)
		c.BehaviorCategories[i] = cat
	}
	return c
}

// Kid returns the kid with the given id.
func (s Snapshot) Kid(id string) (Kid, bool) {
	for _, k := range s.Kids {
		if k.ID == id {
			return k, true
		}
	}
	return Kid{}, false
}

// Parent returns the parent with the given id.
func (s Snapshot) Parent(id string) (Parent, bool) {
	for _, p := range s.Parents {
		if p.ID == id {
			return p, true
		}
	}
	return Parent{}, false
}

// Wish returns the wish-list item with the given id.
func (s Snapshot) Wish(id string) (WishListItem, bool) {
	for _, w := range s.WishListItems {
		if w.ID == id {
			return w, true
		}
	}
	return WishListItem{}, false
}

// Behavior looks an item up across all categories and returns it together
// with the name of its category.
func (s Snapshot) Behavior(id string) (BehaviorItem, string, bool) {
	for _, cat := range s.BehaviorCategories {
		for _, item := range cat.Items {
			if item.ID == id {
				return item, cat.Name, true
			}
		}
	}
	return BehaviorItem{}, "", false
}

// HasCompletion reports whether the challenge was already claimed.
func (s Snapshot) HasCompletion(challengeID, kidID, date string) bool {
	for _, c := range s.Challenges {
		if c.ChallengeID == challengeID && c.KidID == kidID && c.Date == date {
			return true
		}
	}
	return false
}

// NeedsAutoLogin is true right after setup: a family and parents exist,
// nobody is logged in, and nobody logged out on purpose.
func (s Snapshot) NeedsAutoLogin() bool {
	return s.Family != nil && len(s.Parents) > 0 && s.CurrentParentID == "" && !s.LoggedOut && s.KidMode == ""
}

// Normalize replaces nil collections with empty ones and restores the
// default catalog and settings when they are missing.
func Normalize(s Snapshot) Snapshot {
	if s.Parents == nil {
		s.Parents = []Parent{}
	}
	if s.Kids == nil {
		s.Kids = []Kid{}
	}
	if s.BehaviorCategories == nil {
		s.BehaviorCategories = DefaultCategories()
	}
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	if s.WishListItems == nil {
		s.WishListItems = []WishListItem{}
	}
	if s.DreamGoals == nil {
		s.DreamGoals = []DreamGoal{}
	}
	if s.Challenges == nil {
		s.Challenges = []ChallengeCompletion{}
	}
	if s.Settings == (Settings{}) {
		s.Settings = DefaultSettings()
	}
	return s
}

// DecodeSnapshot parses a snapshot document over DefaultSnapshot: keys the
// document omits keep their default values.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	s := DefaultSnapshot()
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSnapshot(), err
	}
	return Normalize(s), nil
}
