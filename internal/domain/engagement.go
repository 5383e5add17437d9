// Engagement types: achievements, daily challenges and bonus multipliers.
// These are derived views; none of them is persisted except
// ChallengeCompletion, which lives in the Snapshot.
package domain

import "github.com/shopspring/decimal"

// ─── Achievement Types ──────────────────────────────────────────────────────

// AchievementCategory groups badges by the metric they track.
type AchievementCategory string

const (
	CatEarnings   AchievementCategory = "earnings"
	CatStreaks    AchievementCategory = "streaks"
	CatTasks      AchievementCategory = "tasks"
	CatDiversity  AchievementCategory = "diversity"
	CatMultiplier AchievementCategory = "multiplier"
)

// Badge is one achievement evaluated for a kid.
type Badge struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"desc"`
	Icon        string              `json:"icon"`
	Category    AchievementCategory `json:"category"`
	Progress    decimal.Decimal     `json:"progress"`
	Target      decimal.Decimal     `json:"target"`
	Unlocked    bool                `json:"unlocked"`
}

// AchievementReport is the full badge catalog for one kid.
type AchievementReport struct {
	All      []Badge `json:"all"`
	Unlocked int     `json:"unlocked"`
	Total    int     `json:"total"`
}

// ─── Challenge Types ────────────────────────────────────────────────────────

// Progress is how far a kid is into a challenge.
type Progress struct {
	Current   decimal.Decimal `json:"current"`
	Target    decimal.Decimal `json:"target"`
	Completed bool            `json:"completed"`
}

// Pct returns completion percentage (0-100).
func (p Progress) Pct() int {
	if !p.Target.IsPositive() {
		return 100
	}
	pct := p.Current.Div(p.Target).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if pct > 100 {
		pct = 100
	}
	return int(pct)
}

// Challenge is one of the day's selected challenges.
type Challenge struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Reward      decimal.Decimal `json:"reward"`
	Date        string          `json:"date"`
}

// ─── Bonus Types ────────────────────────────────────────────────────────────

// Bonus is the outcome of one multiplier roll.
type Bonus struct {
	Multiplier int    `json:"multiplier"`
	Label      string `json:"label,omitempty"`
}

// Apply scales a base behavior value by the multiplier.
func (b Bonus) Apply(base decimal.Decimal) decimal.Decimal {
	m := b.Multiplier
	if m < 1 {
		m = 1
	}
	return base.Mul(decimal.NewFromInt(int64(m)))
}
