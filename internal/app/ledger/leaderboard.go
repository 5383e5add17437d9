package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kidzy-family/kidzy/internal/domain"
)

// WeeklyEntry is one row of the weekly leaderboard.
type WeeklyEntry struct {
	Kid              domain.Kid      `json:"kid"`
	WeeklyEarnings   decimal.Decimal `json:"weeklyEarnings"`
	WeeklyDeductions decimal.Decimal `json:"weeklyDeductions"`
	WeeklyNet        decimal.Decimal `json:"weeklyNet"`
	Streak           int             `json:"streak"`
}

// WeeklyLeaderboard ranks kids by this week's net earnings, highest first.
// Kids with equal net keep their input order.
func WeeklyLeaderboard(kids []domain.Kid, txs []domain.Transaction, now time.Time) []WeeklyEntry {
	week := ThisWeek(now)
	out := make([]WeeklyEntry, 0, len(kids))
	for _, k := range kids {
		earn := sumInRange(k.ID, txs, domain.TxEarn, week)
		deduct := sumInRange(k.ID, txs, domain.TxDeduct, week)
		out = append(out, WeeklyEntry{
			Kid:              k,
			WeeklyEarnings:   earn,
			WeeklyDeductions: deduct,
			WeeklyNet:        earn.Sub(deduct),
			Streak:           Streak(k.ID, txs, now),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].WeeklyNet.GreaterThan(out[j].WeeklyNet)
	})
	return out
}

// ImprovedEntry is one row of the most-improved leaderboard.
type ImprovedEntry struct {
	Kid            domain.Kid      `json:"kid"`
	ThisWeek       decimal.Decimal `json:"thisWeek"`
	LastWeek       decimal.Decimal `json:"lastWeek"`
	ImprovementPct int64           `json:"improvement"`
}

// ImprovementPct is round((this-last)/last*100) when last week had
// earnings, otherwise 100 for any earnings this week and 0 for none.
// Halves round toward +∞, so -2.5% reports as -2.
func ImprovementPct(thisWeek, lastWeek decimal.Decimal) int64 {
	if lastWeek.IsPositive() {
		return roundHalfUp(thisWeek.Sub(lastWeek).Div(lastWeek).Mul(hundred))
	}
	if thisWeek.IsPositive() {
		return 100
	}
	return 0
}

var half = decimal.New(5, -1)

// roundHalfUp rounds to the nearest integer with ties going up. decimal's
// Round sends ties away from zero, which differs for negative halves.
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Add(half).Floor().IntPart()
}

// MostImprovedLeaderboard ranks kids by week-over-week earnings growth.
func MostImprovedLeaderboard(kids []domain.Kid, txs []domain.Transaction, now time.Time) []ImprovedEntry {
	out := make([]ImprovedEntry, 0, len(kids))
	for _, k := range kids {
		this := EarningsThisWeek(k.ID, txs, now)
		last := EarningsLastWeek(k.ID, txs, now)
		out = append(out, ImprovedEntry{
			Kid:            k,
			ThisWeek:       this,
			LastWeek:       last,
			ImprovementPct: ImprovementPct(this, last),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ImprovementPct > out[j].ImprovementPct
	})
	return out
}
