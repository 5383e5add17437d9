// Package engagement holds the gamification layer built on top of the ledger:
// the badge catalog, the date-seeded daily challenges and the bonus
// multiplier roller. Everything here is recomputed from transactions; only
// challenge completions are persisted, and they live in the snapshot.
package engagement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kidzy-family/kidzy/internal/app/ledger"
	"github.com/kidzy-family/kidzy/internal/domain"
)

// AchievementDef is one badge in the catalog. Metric extracts the tracked
// value from a kid's stats; the badge unlocks once it reaches Target.
type AchievementDef struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Category    domain.AchievementCategory
	Target      decimal.Decimal
	Metric      func(ledger.KidStats) decimal.Decimal
}

// Evaluate builds the badge for the given stats. Progress is capped at
// Target so the UI can draw a bar without clamping.
func (d AchievementDef) Evaluate(st ledger.KidStats) domain.Badge {
	v := d.Metric(st)
	return domain.Badge{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Icon:        d.Icon,
		Category:    d.Category,
		Progress:    decimal.Min(v, d.Target),
		Target:      d.Target,
		Unlocked:    v.GreaterThanOrEqual(d.Target),
	}
}

// Achievements evaluates the full catalog for one kid.
func Achievements(kidID string, txs []domain.Transaction, now time.Time) domain.AchievementReport {
	st := ledger.Stats(kidID, txs, now)
	defs := AllAchievements()
	report := domain.AchievementReport{All: make([]domain.Badge, 0, len(defs)), Total: len(defs)}
	for _, def := range defs {
		b := def.Evaluate(st)
		if b.Unlocked {
			report.Unlocked++
		}
		report.All = append(report.All, b)
	}
	return report
}

// ─── Achievement Definitions ────────────────────────────────────────────────

func totalEarned(s ledger.KidStats) decimal.Decimal { return s.TotalEarned }
func longestStreak(s ledger.KidStats) decimal.Decimal {
	return decimal.NewFromInt(int64(s.LongestStreak))
}
func tasksCompleted(s ledger.KidStats) decimal.Decimal {
	return decimal.NewFromInt(int64(s.TasksCompleted))
}
func distinctCategories(s ledger.KidStats) decimal.Decimal {
	return decimal.NewFromInt(int64(s.DistinctCategories))
}
func multiplierHits(s ledger.KidStats) decimal.Decimal {
	return decimal.NewFromInt(int64(s.MultiplierHits))
}

func tier(id, name, desc, icon string, cat domain.AchievementCategory, target int64, metric func(ledger.KidStats) decimal.Decimal) AchievementDef {
	return AchievementDef{
		ID: id, Name: name, Description: desc, Icon: icon,
		Category: cat, Target: decimal.NewFromInt(target), Metric: metric,
	}
}

// AllAchievements returns the full badge catalog in display order.
func AllAchievements() []AchievementDef {
	return []AchievementDef{
		// ── Earnings ───────────────────────────────────────────────────
		tier("earn_10", "First Steps", "Earned $10 K$", "👣", domain.CatEarnings, 10, totalEarned),
		tier("earn_50", "Rising Star", "Earned $50 K$", "⭐", domain.CatEarnings, 50, totalEarned),
		tier("earn_100", "Century Club", "Earned $100 K$", "💯", domain.CatEarnings, 100, totalEarned),
		tier("earn_500", "K$ Mogul", "Earned $500 K$", "💰", domain.CatEarnings, 500, totalEarned),
		tier("earn_1000", "Kidzy Legend", "Earned $1,000 K$", "👑", domain.CatEarnings, 1000, totalEarned),

		// ── Streaks ────────────────────────────────────────────────────
		tier("streak_3", "Hat Trick", "3-day streak", "🔥", domain.CatStreaks, 3, longestStreak),
		tier("streak_7", "Week Warrior", "7-day streak", "⚔️", domain.CatStreaks, 7, longestStreak),
		tier("streak_14", "Fortnight Hero", "14-day streak", "🦸", domain.CatStreaks, 14, longestStreak),
		tier("streak_30", "Monthly Master", "30-day streak", "🏅", domain.CatStreaks, 30, longestStreak),

		// ── Tasks ──────────────────────────────────────────────────────
		tier("tasks_10", "Getting Started", "Completed 10 tasks", "📋", domain.CatTasks, 10, tasksCompleted),
		tier("tasks_50", "Task Master", "Completed 50 tasks", "🎯", domain.CatTasks, 50, tasksCompleted),
		tier("tasks_100", "Habit Builder", "Completed 100 tasks", "🏗️", domain.CatTasks, 100, tasksCompleted),

		// ── Diversity ──────────────────────────────────────────────────
		tier("diverse_3", "Well Rounded", "Earned in 3 categories", "🧭", domain.CatDiversity, 3, distinctCategories),
		tier("diverse_5", "All-Rounder", "Earned in 5 categories", "🌈", domain.CatDiversity, 5, distinctCategories),

		// ── Multipliers ────────────────────────────────────────────────
		tier("multi_1", "Lucky Day", "Got your first bonus multiplier", "🍀", domain.CatMultiplier, 1, multiplierHits),
		tier("multi_5", "Fortune Finder", "Got 5 bonus multipliers", "🎰", domain.CatMultiplier, 5, multiplierHits),
	}
}
