package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kidzy-family/kidzy/internal/domain"
)

// MaxStreakScan bounds how far back Streak walks.
const MaxStreakScan = 365

// earnDays returns the set of local day keys on which the kid earned.
func earnDays(kidID string, txs []domain.Transaction, loc *time.Location) map[string]bool {
	days := make(map[string]bool)
	for _, tx := range txs {
		if tx.KidID == kidID && tx.Type == domain.TxEarn {
			days[localDay(tx.Timestamp, loc)] = true
		}
	}
	return days
}

// Streak counts consecutive days with at least one earn, walking back from
// today. Today is exempt until it ends: an empty today is not counted but
// does not break the streak built up to yesterday.
func Streak(kidID string, txs []domain.Transaction, now time.Time) int {
	days := earnDays(kidID, txs, now.Location())
	today := StartOfDay(now)

	streak := 0
	for i := 0; i < MaxStreakScan; i++ {
		if days[DayKey(today.AddDate(0, 0, -i))] {
			streak++
			continue
		}
		if i > 0 {
			break
		}
	}
	return streak
}

// LongestStreak returns the longest run of consecutive calendar days with
// earnings the kid ever had, bucketed in loc.
func LongestStreak(kidID string, txs []domain.Transaction, loc *time.Location) int {
	days := earnDays(kidID, txs, loc)
	if len(days) == 0 {
		return 0
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	longest, current := 1, 1
	for i := 1; i < len(keys); i++ {
		if dayGap(keys[i-1], keys[i]) == 1 {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 1
		}
	}
	return longest
}

// dayGap returns the number of calendar days between two day keys.
// Keys are compared in UTC so DST transitions never skew the count.
func dayGap(a, b string) int {
	ta, errA := time.Parse(DayLayout, a)
	tb, errB := time.Parse(DayLayout, b)
	if errA != nil || errB != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// DailyHigh is the best single day of earnings.
type DailyHigh struct {
	Date   string          `json:"date,omitempty"`
	Amount decimal.Decimal `json:"amount"`
}

// dailyTotals sums earn amounts per local day.
func dailyTotals(kidID string, txs []domain.Transaction, loc *time.Location) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.KidID == kidID && tx.Type == domain.TxEarn {
			key := localDay(tx.Timestamp, loc)
			totals[key] = totals[key].Add(tx.Amount)
		}
	}
	return totals
}

// DailyHighRecord returns the day with the highest summed earnings. On a tie
// the earliest day keeps the record. No earnings yields a zero DailyHigh.
func DailyHighRecord(kidID string, txs []domain.Transaction, loc *time.Location) DailyHigh {
	totals := dailyTotals(kidID, txs, loc)
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := DailyHigh{Amount: decimal.Zero}
	for _, k := range keys {
		if totals[k].GreaterThan(best.Amount) {
			best = DailyHigh{Date: k, Amount: totals[k]}
		}
	}
	return best
}

// IsNewDailyHigh reports whether today's non-zero earnings beat every other
// day strictly. Tying a past day is not a new high.
func IsNewDailyHigh(kidID string, txs []domain.Transaction, now time.Time) bool {
	totals := dailyTotals(kidID, txs, now.Location())
	today := DayKey(now)
	todayTotal := totals[today]
	if !todayTotal.IsPositive() {
		return false
	}
	for day, amount := range totals {
		if day != today && amount.GreaterThanOrEqual(todayTotal) {
			return false
		}
	}
	return true
}
