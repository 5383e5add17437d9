package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kidzy-family/kidzy/internal/domain"
)

// KidStats is the cumulative picture of one kid fed to achievement metrics.
type KidStats struct {
	TotalEarned        decimal.Decimal `json:"totalEarned"`
	CurrentStreak      int             `json:"currentStreak"`
	LongestStreak      int             `json:"longestStreak"`
	TasksCompleted     int             `json:"tasksCompleted"`
	DistinctCategories int             `json:"distinctCategories"`
	MultiplierHits     int             `json:"multiplierHits"`
}

// Stats computes KidStats from the ledger.
func Stats(kidID string, txs []domain.Transaction, now time.Time) KidStats {
	st := KidStats{
		TotalEarned:   TotalEarned(kidID, txs),
		CurrentStreak: Streak(kidID, txs, now),
		LongestStreak: LongestStreak(kidID, txs, now.Location()),
	}
	categories := make(map[string]bool)
	for _, tx := range txs {
		if tx.KidID != kidID {
			continue
		}
		if tx.Multiplier > 1 {
			st.MultiplierHits++
		}
		if tx.Type != domain.TxEarn {
			continue
		}
		st.TasksCompleted++
		if tx.Category != "" {
			categories[tx.Category] = true
		}
	}
	st.DistinctCategories = len(categories)
	return st
}

// Summary is the dashboard card for one kid.
type Summary struct {
	Kid           domain.Kid      `json:"kid"`
	Balance       decimal.Decimal `json:"balance"`
	TodayEarnings decimal.Decimal `json:"todayEarnings"`
	WeekEarnings  decimal.Decimal `json:"weeklyEarnings"`
	Streak        int             `json:"streak"`
	LongestStreak int             `json:"longestStreak"`
	DailyHigh     DailyHigh       `json:"dailyHigh"`
	NewDailyHigh  bool            `json:"newDailyHigh"`
}

// KidSummary computes the dashboard figures for a kid.
func KidSummary(kid domain.Kid, txs []domain.Transaction, now time.Time) Summary {
	return Summary{
		Kid:           kid,
		Balance:       Balance(kid.ID, txs),
		TodayEarnings: EarningsToday(kid.ID, txs, now),
		WeekEarnings:  EarningsThisWeek(kid.ID, txs, now),
		Streak:        Streak(kid.ID, txs, now),
		LongestStreak: LongestStreak(kid.ID, txs, now.Location()),
		DailyHigh:     DailyHighRecord(kid.ID, txs, now.Location()),
		NewDailyHigh:  IsNewDailyHigh(kid.ID, txs, now),
	}
}
