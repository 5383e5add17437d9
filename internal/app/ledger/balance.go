// Package ledger derives balances and statistics from the transaction log.
// The log is the only source of truth: nothing here is cached or persisted,
// every figure is recomputed from []domain.Transaction on demand.
//
// Functions that talk about "today" or "this week" take now explicitly and
// bucket transaction timestamps in now's location.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kidzy-family/kidzy/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Balance returns Σearn − Σdeduct − Σredeem over the kid's transactions.
// This is the only balance formula; everything else calls it.
func Balance(kidID string, txs []domain.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		if tx.KidID == kidID {
			sum = sum.Add(tx.Signed())
		}
	}
	return sum
}

// sumInRange totals one transaction type for a kid inside r.
func sumInRange(kidID string, txs []domain.Transaction, typ domain.TxType, r Range) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		if tx.KidID == kidID && tx.Type == typ && r.Contains(tx.Timestamp) {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum
}

// EarningsInRange sums earn amounts with timestamp in [start, end).
func EarningsInRange(kidID string, txs []domain.Transaction, start, end time.Time) decimal.Decimal {
	return sumInRange(kidID, txs, domain.TxEarn, Range{Start: start, End: end})
}

// DeductionsInRange sums deduct amounts with timestamp in [start, end).
func DeductionsInRange(kidID string, txs []domain.Transaction, start, end time.Time) decimal.Decimal {
	return sumInRange(kidID, txs, domain.TxDeduct, Range{Start: start, End: end})
}

// EarningsToday sums earnings on now's calendar day.
func EarningsToday(kidID string, txs []domain.Transaction, now time.Time) decimal.Decimal {
	return sumInRange(kidID, txs, domain.TxEarn, Day(now))
}

// EarningsThisWeek sums earnings in the Monday-start week containing now.
func EarningsThisWeek(kidID string, txs []domain.Transaction, now time.Time) decimal.Decimal {
	return sumInRange(kidID, txs, domain.TxEarn, ThisWeek(now))
}

// DeductionsThisWeek sums deductions in the week containing now.
func DeductionsThisWeek(kidID string, txs []domain.Transaction, now time.Time) decimal.Decimal {
	return sumInRange(kidID, txs, domain.TxDeduct, ThisWeek(now))
}

// EarningsLastWeek sums earnings in the week before the one containing now.
func EarningsLastWeek(kidID string, txs []domain.Transaction, now time.Time) decimal.Decimal {
	return sumInRange(kidID, txs, domain.TxEarn, LastWeek(now))
}

// TotalEarned sums every earn the kid ever received.
func TotalEarned(kidID string, txs []domain.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		if tx.KidID == kidID && tx.Type == domain.TxEarn {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum
}

// EarnsOn returns the kid's earn transactions on the calendar day of day.
func EarnsOn(kidID string, txs []domain.Transaction, day time.Time) []domain.Transaction {
	r := Day(day)
	var out []domain.Transaction
	for _, tx := range txs {
		if tx.KidID == kidID && tx.Type == domain.TxEarn && r.Contains(tx.Timestamp) {
			out = append(out, tx)
		}
	}
	return out
}

// CompletedBehaviorsToday lists behavior ids earned by the kid today, in
// ledger order. Custom earns without a behavior are skipped.
func CompletedBehaviorsToday(kidID string, txs []domain.Transaction, now time.Time) []string {
	var ids []string
	for _, tx := range EarnsOn(kidID, txs, now) {
		if tx.BehaviorID != "" {
			ids = append(ids, tx.BehaviorID)
		}
	}
	return ids
}

// IsBehaviorCompletedToday reports whether the behavior was already earned
// by the kid today.
func IsBehaviorCompletedToday(kidID, behaviorID string, txs []domain.Transaction, now time.Time) bool {
	for _, id := range CompletedBehaviorsToday(kidID, txs, now) {
		if id == behaviorID {
			return true
		}
	}
	return false
}

// WishProgressPercent returns min(100, round(balance/target*100)). A target
// of zero or less counts as complete; a negative balance counts as 0%.
func WishProgressPercent(target, balance decimal.Decimal) int {
	if !target.IsPositive() {
		return 100
	}
	pct := balance.Div(target).Mul(hundred).Round(0).IntPart()
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return int(pct)
}
