package engagement_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kidzy-family/kidzy/internal/app/engagement"
	"github.com/kidzy-family/kidzy/internal/domain"
)

// day is 2024-03-15, a Friday; its challenges are big_earner,
// streak_builder and task_master.
var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func earn(kid string, amount int64, at time.Time, behaviorID, category string) domain.Transaction {
	return domain.Transaction{
		ID:         at.Format(time.RFC3339Nano) + behaviorID,
		KidID:      kid,
		Type:       domain.TxEarn,
		Amount:     decimal.NewFromInt(amount),
		BehaviorID: behaviorID,
		Category:   category,
		Multiplier: 1,
		Timestamp:  at,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Daily Challenge Selection
// ═══════════════════════════════════════════════════════════════════════════

func ids(cs []domain.Challenge) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestDailyChallenges_Deterministic(t *testing.T) {
	first, err := engagement.DailyChallenges("2024-03-15")
	if err != nil {
		t.Fatalf("DailyChallenges() error: %v", err)
	}
	second, _ := engagement.DailyChallenges("2024-03-15")

	want := []string{"big_earner", "streak_builder", "task_master"}
	got := ids(first)
	if len(got) != len(want) {
		t.Fatalf("expected %d challenges, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("challenge %d = %s, want %s", i, got[i], want[i])
		}
		if ids(second)[i] != got[i] {
			t.Errorf("second call differs at %d: %s vs %s", i, ids(second)[i], got[i])
		}
		if first[i].Date != "2024-03-15" {
			t.Errorf("challenge %d date = %q", i, first[i].Date)
		}
	}
}

func TestDailyChallenges_VariesByDate(t *testing.T) {
	a, _ := engagement.DailyChallenges("2024-03-15")
	b, _ := engagement.DailyChallenges("2024-03-16")
	if ids(a)[0] == ids(b)[0] {
		t.Errorf("expected different first challenge, both %s", ids(a)[0])
	}
	want := []string{"hygiene_hero", "study_star", "category_explorer"}
	for i, id := range ids(b) {
		if id != want[i] {
			t.Errorf("2024-03-16 challenge %d = %s, want %s", i, id, want[i])
		}
	}
}

func TestDailyChallenges_AlwaysThreeDistinct(t *testing.T) {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 366; i++ {
		date := d.AddDate(0, 0, i).Format("2006-01-02")
		cs, err := engagement.DailyChallenges(date)
		if err != nil {
			t.Fatalf("%s: %v", date, err)
		}
		if len(cs) != engagement.ChallengesPerDay {
			t.Fatalf("%s: got %d challenges", date, len(cs))
		}
		seen := map[string]bool{}
		for _, c := range cs {
			if seen[c.ID] {
				t.Fatalf("%s: duplicate %s", date, c.ID)
			}
			seen[c.ID] = true
		}
	}
}

func TestDailyChallenges_BadDate(t *testing.T) {
	for _, bad := range []string{"", "2024-13-01", "15/03/2024", "today"} {
		if _, err := engagement.DailyChallenges(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Challenge Progress
// ═══════════════════════════════════════════════════════════════════════════

func TestChallengeProgress_EarlyBird(t *testing.T) {
	tmpl, ok := engagement.Template("early_bird")
	if !ok {
		t.Fatal("early_bird template missing")
	}
	txs := []domain.Transaction{
		earn("k1", 1, day.Add(9*time.Hour), "bh_1", "Health"),
		earn("k1", 1, day.Add(13*time.Hour), "bh_2", "Health"),
	}
	p := tmpl.Check("k1", txs, day)
	if p.Completed || !p.Current.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1/2 incomplete, got %s/%s", p.Current, p.Target)
	}

	txs = append(txs, earn("k1", 1, day.Add(11*time.Hour+59*time.Minute), "bh_3", "Health"))
	p = tmpl.Check("k1", txs, day)
	if !p.Completed {
		t.Errorf("expected complete, got %s/%s", p.Current, p.Target)
	}
}

func TestChallengeProgress_BigEarnerCapped(t *testing.T) {
	c := domain.Challenge{ID: "big_earner", Date: "2024-03-15"}
	txs := []domain.Transaction{earn("k1", 40, day.Add(10*time.Hour), "", "Custom")}
	p := engagement.ChallengeProgress(c, "k1", txs, time.UTC)
	if !p.Current.Equal(decimal.NewFromInt(15)) || !p.Completed {
		t.Errorf("expected capped 15/15 complete, got %s/%s", p.Current, p.Target)
	}
	if p.Pct() != 100 {
		t.Errorf("expected 100%%, got %d", p.Pct())
	}
}

func TestChallengeProgress_OnlyThatDay(t *testing.T) {
	c := domain.Challenge{ID: "hygiene_hero", Date: "2024-03-15"}
	txs := []domain.Transaction{
		earn("k1", 1, day.Add(8*time.Hour), "bh_5", "Hygiene"),
		earn("k1", 1, day.Add(8*time.Hour), "bh_6", "Hygiene"),
		earn("k1", 1, day.Add(-time.Hour), "bh_7", "Hygiene"),
		earn("k2", 1, day.Add(8*time.Hour), "bh_8", "Hygiene"),
	}
	p := engagement.ChallengeProgress(c, "k1", txs, time.UTC)
	if !p.Current.Equal(decimal.NewFromInt(2)) || !p.Target.Equal(decimal.NewFromInt(4)) {
		t.Errorf("expected 2/4, got %s/%s", p.Current, p.Target)
	}
}

func TestChallengeProgress_TaskMasterCountsDistinctBehaviors(t *testing.T) {
	c := domain.Challenge{ID: "task_master", Date: "2024-03-15"}
	var txs []domain.Transaction
	for i := 0; i < 5; i++ {
		txs = append(txs, earn("k1", 5, day.Add(time.Duration(9+i)*time.Hour), "bh_18", "Bonus"))
	}
	p := engagement.ChallengeProgress(c, "k1", txs, time.UTC)
	if p.Completed || !p.Current.Equal(decimal.NewFromInt(1)) {
		t.Errorf("five repeats of one behavior: got %s/%s completed=%v, want 1/5", p.Current, p.Target, p.Completed)
	}

	for i, id := range []string{"bh_1", "bh_2", "bh_3", "bh_19"} {
		txs = append(txs, earn("k1", 1, day.Add(time.Duration(15+i)*time.Hour), id, "Health"))
	}
	p = engagement.ChallengeProgress(c, "k1", txs, time.UTC)
	if !p.Completed || !p.Current.Equal(decimal.NewFromInt(5)) {
		t.Errorf("five distinct behaviors: got %s/%s completed=%v", p.Current, p.Target, p.Completed)
	}
}

func TestChallengeProgress_UnknownTemplate(t *testing.T) {
	p := engagement.ChallengeProgress(domain.Challenge{ID: "nope", Date: "2024-03-15"}, "k1", nil, time.UTC)
	if p.Completed || !p.Target.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 0/1, got %s/%s", p.Current, p.Target)
	}
}

func TestCanClaim(t *testing.T) {
	s := domain.DefaultSnapshot()
	s.Kids = []domain.Kid{{ID: "k1", Name: "Ava"}}
	s.Transactions = []domain.Transaction{earn("k1", 2, day.Add(10*time.Hour), "bh_1", "Health")}

	if err := engagement.CanClaim(s, "streak_builder", "k1", "2024-03-15", time.UTC); err != nil {
		t.Errorf("expected claimable, got %v", err)
	}

	err := engagement.CanClaim(s, "task_master", "k1", "2024-03-15", time.UTC)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("incomplete challenge: expected ErrValidation, got %v", err)
	}

	err = engagement.CanClaim(s, "early_bird", "k1", "2024-03-15", time.UTC)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unselected challenge: expected ErrValidation, got %v", err)
	}

	s.Challenges = append(s.Challenges, domain.ChallengeCompletion{
		ChallengeID: "streak_builder", KidID: "k1", Date: "2024-03-15",
	})
	if err := engagement.CanClaim(s, "streak_builder", "k1", "2024-03-15", time.UTC); err == nil {
		t.Error("expected double claim to be refused")
	}
}

func TestDailyStatus(t *testing.T) {
	s := domain.DefaultSnapshot()
	s.Transactions = []domain.Transaction{earn("k1", 2, day.Add(10*time.Hour), "bh_1", "Health")}
	s.Challenges = []domain.ChallengeCompletion{{ChallengeID: "streak_builder", KidID: "k1", Date: "2024-03-15"}}

	st, err := engagement.DailyStatus(s, "k1", "2024-03-15", time.UTC)
	if err != nil {
		t.Fatalf("DailyStatus() error: %v", err)
	}
	if len(st) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(st))
	}
	if st[1].ID != "streak_builder" || !st[1].Claimed || !st[1].Progress.Completed {
		t.Errorf("streak_builder status = %+v", st[1])
	}
	if st[0].Claimed {
		t.Error("big_earner should not be claimed")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Multiplier
// ═══════════════════════════════════════════════════════════════════════════

func TestBonusFor_Boundaries(t *testing.T) {
	tests := []struct {
		draw float64
		want int
	}{
		{0, 3}, {0.0499, 3}, {0.05, 2}, {0.1999, 2}, {0.20, 1}, {0.9999, 1},
	}
	for _, tt := range tests {
		if got := engagement.BonusFor(tt.draw).Multiplier; got != tt.want {
			t.Errorf("BonusFor(%v) = %d, want %d", tt.draw, got, tt.want)
		}
	}
	if engagement.BonusFor(0.01).Label != engagement.LabelTriple {
		t.Error("triple label missing")
	}
	if engagement.BonusFor(0.5).Label != "" {
		t.Error("plain roll should have no label")
	}
}

func TestRoller_Distribution(t *testing.T) {
	const n = 100_000
	r := engagement.NewSeededRoller(42)
	counts := map[int]int{}
	for i := 0; i < n; i++ {
		counts[r.Roll().Multiplier]++
	}
	check := func(m int, want float64) {
		got := float64(counts[m]) / n
		if math.Abs(got-want) > 0.01 {
			t.Errorf("multiplier %d rate = %.4f, want %.2f±0.01", m, got, want)
		}
	}
	check(3, 0.05)
	check(2, 0.15)
	check(1, 0.80)
	if counts[1]+counts[2]+counts[3] != n {
		t.Errorf("unexpected multipliers: %v", counts)
	}
}

func TestBonus_Apply(t *testing.T) {
	got := domain.Bonus{Multiplier: 3}.Apply(decimal.RequireFromString("1.5"))
	if !got.Equal(decimal.RequireFromString("4.5")) {
		t.Errorf("expected 4.5, got %s", got)
	}
}

func TestRoller_Encouragement(t *testing.T) {
	r := engagement.NewRoller()
	for i := 0; i < 50; i++ {
		if r.Encouragement() == "" {
			t.Fatal("empty encouragement")
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievements
// ═══════════════════════════════════════════════════════════════════════════

func badge(r domain.AchievementReport, id string) domain.Badge {
	for _, b := range r.All {
		if b.ID == id {
			return b
		}
	}
	return domain.Badge{}
}

func TestAchievements_Catalog(t *testing.T) {
	r := engagement.Achievements("k1", nil, day)
	if r.Total != len(engagement.AllAchievements()) || r.Total != 16 {
		t.Errorf("expected 16 badges, got %d", r.Total)
	}
	if r.Unlocked != 0 {
		t.Errorf("expected nothing unlocked, got %d", r.Unlocked)
	}
	seen := map[string]bool{}
	for _, b := range r.All {
		if seen[b.ID] {
			t.Errorf("duplicate badge %s", b.ID)
		}
		seen[b.ID] = true
	}
}

func TestAchievements_Unlocks(t *testing.T) {
	now := day.Add(18 * time.Hour)
	categories := []string{"Health", "Hygiene", "Learning"}
	var txs []domain.Transaction
	for i := 0; i < 10; i++ {
		tx := earn("k1", 2, now.AddDate(0, 0, -(i%3)).Add(-time.Duration(i)*time.Minute), "", categories[i%3])
		if i == 0 {
			tx.Multiplier = 2
		}
		txs = append(txs, tx)
	}

	r := engagement.Achievements("k1", txs, now)
	for _, id := range []string{"earn_10", "tasks_10", "streak_3", "diverse_3", "multi_1"} {
		if !badge(r, id).Unlocked {
			t.Errorf("expected %s unlocked", id)
		}
	}
	for _, id := range []string{"earn_50", "streak_7", "multi_5", "diverse_5"} {
		if badge(r, id).Unlocked {
			t.Errorf("expected %s locked", id)
		}
	}
	if r.Unlocked != 5 {
		t.Errorf("expected 5 unlocked, got %d", r.Unlocked)
	}

	b := badge(r, "earn_50")
	if !b.Progress.Equal(decimal.NewFromInt(20)) || !b.Target.Equal(decimal.NewFromInt(50)) {
		t.Errorf("earn_50 progress = %s/%s", b.Progress, b.Target)
	}
	if got := badge(r, "earn_10").Progress; !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("earn_10 progress should cap at 10, got %s", got)
	}
}
