package engagement

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kidzy-family/kidzy/internal/app/ledger"
	"github.com/kidzy-family/kidzy/internal/domain"
)

// ChallengesPerDay is how many templates are drawn for each date.
const ChallengesPerDay = 3

// ChallengeTemplate is a daily micro-goal. Check measures a kid's progress
// over the calendar day containing day, in day's location.
type ChallengeTemplate struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Reward      decimal.Decimal
	Check       func(kidID string, txs []domain.Transaction, day time.Time) domain.Progress
}

// Instance stamps the template with the date it was drawn for.
func (c ChallengeTemplate) Instance(date string) domain.Challenge {
	return domain.Challenge{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Icon:        c.Icon,
		Reward:      c.Reward,
		Date:        date,
	}
}

func progress(current, target int64) domain.Progress {
	return domain.Progress{
		Current:   decimal.NewFromInt(current),
		Target:    decimal.NewFromInt(target),
		Completed: current >= target,
	}
}

// distinctBehaviors returns the set of behavior ids the kid earned on day.
// Repeats of an anytime behavior count once.
func distinctBehaviors(kidID string, txs []domain.Transaction, day time.Time) map[string]bool {
	seen := make(map[string]bool)
	for _, id := range ledger.CompletedBehaviorsToday(kidID, txs, day) {
		seen[id] = true
	}
	return seen
}

// countBehaviors counts how many of ids the kid earned on day.
func countBehaviors(ids ...string) func(string, []domain.Transaction, time.Time) domain.Progress {
	return func(kidID string, txs []domain.Transaction, day time.Time) domain.Progress {
		done := distinctBehaviors(kidID, txs, day)
		n := 0
		for _, id := range ids {
			if done[id] {
				n++
			}
		}
		return progress(int64(n), int64(len(ids)))
	}
}

var (
	bigEarnerTarget = decimal.NewFromInt(15)

	templates = []ChallengeTemplate{
		{
			ID: "early_bird", Name: "Early Bird", Description: "Complete 2 tasks before noon",
			Icon: "🌅", Reward: decimal.NewFromInt(5),
			Check: func(kidID string, txs []domain.Transaction, day time.Time) domain.Progress {
				n := 0
				for _, tx := range ledger.EarnsOn(kidID, txs, day) {
					if tx.Timestamp.In(day.Location()).Hour() < 12 {
						n++
					}
				}
				return progress(int64(n), 2)
			},
		},
		{
			ID: "task_master", Name: "Task Master", Description: "Complete 5 behaviors today",
			Icon: "🎯", Reward: decimal.NewFromInt(8),
			Check: func(kidID string, txs []domain.Transaction, day time.Time) domain.Progress {
				return progress(int64(len(distinctBehaviors(kidID, txs, day))), 5)
			},
		},
		{
			ID: "category_explorer", Name: "Explorer", Description: "Earn from 3 different categories",
			Icon: "🧭", Reward: decimal.NewFromInt(6),
			Check: func(kidID string, txs []domain.Transaction, day time.Time) domain.Progress {
				seen := make(map[string]bool)
				for _, tx := range ledger.EarnsOn(kidID, txs, day) {
					if tx.Category != "" {
						seen[tx.Category] = true
					}
				}
				return progress(int64(len(seen)), 3)
			},
		},
		{
			ID: "big_earner", Name: "Big Earner", Description: "Earn 15+ K$ today",
			Icon: "💰", Reward: decimal.NewFromInt(5),
			Check: func(kidID string, txs []domain.Transaction, day time.Time) domain.Progress {
				earned := ledger.EarningsToday(kidID, txs, day)
				return domain.Progress{
					Current:   decimal.Min(earned, bigEarnerTarget),
					Target:    bigEarnerTarget,
					Completed: earned.GreaterThanOrEqual(bigEarnerTarget),
				}
			},
		},
		{
			ID: "hygiene_hero", Name: "Hygiene Hero", Description: "Complete all hygiene tasks",
			Icon: "🧼", Reward: decimal.NewFromInt(7),
			Check: countBehaviors("bh_5", "bh_6", "bh_7", "bh_8"),
		},
		{
			ID: "health_champion", Name: "Health Champ", Description: "Complete all health tasks",
			Icon: "💪", Reward: decimal.NewFromInt(7),
			Check: countBehaviors("bh_1", "bh_2", "bh_3", "bh_4"),
		},
		{
			ID: "streak_builder", Name: "Streak Builder", Description: "Keep your streak going!",
			Icon: "🔥", Reward: decimal.NewFromInt(3),
			Check: func(kidID string, txs []domain.Transaction, day time.Time) domain.Progress {
				if ledger.EarningsToday(kidID, txs, day).IsPositive() {
					return progress(1, 1)
				}
				return progress(0, 1)
			},
		},
		{
			ID: "study_star", Name: "Study Star", Description: "Complete 2 learning tasks",
			Icon: "📚", Reward: decimal.NewFromInt(6),
			Check: func(kidID string, txs []domain.Transaction, day time.Time) domain.Progress {
				p := countBehaviors("bh_14", "bh_15", "bh_16", "bh_17")(kidID, txs, day)
				return progress(p.Current.IntPart(), 2)
			},
		},
	}
)

// Templates returns the challenge catalog in selection order.
func Templates() []ChallengeTemplate {
	out := make([]ChallengeTemplate, len(templates))
	copy(out, templates)
	return out
}

// Template looks a challenge template up by id.
func Template(id string) (ChallengeTemplate, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return ChallengeTemplate{}, false
}

// dateSeed turns "YYYY-MM-DD" into the integer YYYYMMDD.
func dateSeed(date string) (int, error) {
	if _, err := time.Parse(ledger.DayLayout, date); err != nil {
		return 0, fmt.Errorf("challenge date %q: %w", date, err)
	}
	return strconv.Atoi(strings.ReplaceAll(date, "-", ""))
}

// pickIndices walks index = (seed + i*3) mod n, skipping repeats, until
// want distinct indices are chosen or n steps have been taken.
func pickIndices(seed, n, want int) []int {
	if n == 0 {
		return nil
	}
	base := seed % n
	used := make(map[int]bool, want)
	var out []int
	for i := 0; len(out) < want && i < n; i++ {
		idx := (base + i*3) % n
		if !used[idx] {
			used[idx] = true
			out = append(out, idx)
		}
	}
	return out
}

// DailyChallenges returns the challenges for a calendar date. The same date
// always yields the same challenges in the same order, for every kid.
func DailyChallenges(date string) ([]domain.Challenge, error) {
	seed, err := dateSeed(date)
	if err != nil {
		return nil, err
	}
	var out []domain.Challenge
	for _, idx := range pickIndices(seed, len(templates), ChallengesPerDay) {
		out = append(out, templates[idx].Instance(date))
	}
	return out, nil
}

// IsSelected reports whether challengeID is among the challenges for date.
func IsSelected(challengeID, date string) bool {
	daily, err := DailyChallenges(date)
	if err != nil {
		return false
	}
	for _, c := range daily {
		if c.ID == challengeID {
			return true
		}
	}
	return false
}

// ChallengeProgress evaluates a challenge for a kid on the challenge's own
// date, interpreted in loc. Unknown ids report zero of one.
func ChallengeProgress(c domain.Challenge, kidID string, txs []domain.Transaction, loc *time.Location) domain.Progress {
	tmpl, ok := Template(c.ID)
	if !ok {
		return progress(0, 1)
	}
	day, err := ledger.ParseDay(c.Date, loc)
	if err != nil {
		return progress(0, 1)
	}
	return tmpl.Check(kidID, txs, day)
}

// ChallengeStatus is a challenge together with one kid's standing on it.
type ChallengeStatus struct {
	domain.Challenge
	Progress domain.Progress `json:"progress"`
	Claimed  bool            `json:"claimed"`
}

// DailyStatus lists the date's challenges with the kid's progress and
// whether each was already claimed in s.
func DailyStatus(s domain.Snapshot, kidID, date string, loc *time.Location) ([]ChallengeStatus, error) {
	daily, err := DailyChallenges(date)
	if err != nil {
		return nil, err
	}
	out := make([]ChallengeStatus, 0, len(daily))
	for _, c := range daily {
		out = append(out, ChallengeStatus{
			Challenge: c,
			Progress:  ChallengeProgress(c, kidID, s.Transactions, loc),
			Claimed:   s.HasCompletion(c.ID, kidID, date),
		})
	}
	return out, nil
}

// CanClaim checks whether the kid may claim challengeID for date: it must
// be one of the date's challenges, complete, and not claimed already.
func CanClaim(s domain.Snapshot, challengeID, kidID, date string, loc *time.Location) error {
	if !IsSelected(challengeID, date) {
		return domain.Invalid("challengeId", fmt.Sprintf("%q is not a challenge for %s", challengeID, date))
	}
	if s.HasCompletion(challengeID, kidID, date) {
		return domain.Invalid("challengeId", "already claimed")
	}
	tmpl, _ := Template(challengeID)
	p := ChallengeProgress(tmpl.Instance(date), kidID, s.Transactions, loc)
	if !p.Completed {
		return domain.Invalid("challengeId", fmt.Sprintf("not complete (%s/%s)", p.Current, p.Target))
	}
	return nil
}
