package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidzy-family/kidzy/internal/domain"
)

// Friday 2024-03-15 15:00 UTC.
var now = time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)

func tx(kid string, typ domain.TxType, amount int64, at time.Time) domain.Transaction {
	return domain.Transaction{
		ID:        kid + at.Format(time.RFC3339Nano) + string(typ),
		KidID:     kid,
		Type:      typ,
		Amount:    decimal.NewFromInt(amount),
		Timestamp: at,
	}
}

func daysAgo(n int) time.Time {
	return now.AddDate(0, 0, -n)
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// =============================================================================
// PERIODS
// =============================================================================

func TestWeekStart_MondayBoundaries(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{"friday", now, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)},
		{"monday itself", time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)},
		{"sunday goes back six days", time.Date(2024, 3, 17, 23, 59, 0, 0, time.UTC), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)},
		{"across month", time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC), time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(WeekStart(tt.at)), "got %s", WeekStart(tt.at))
		})
	}
}

func TestRanges_HalfOpen(t *testing.T) {
	week := ThisWeek(now)
	assert.True(t, week.Contains(week.Start))
	assert.False(t, week.Contains(week.End))

	last := LastWeek(now)
	assert.True(t, last.End.Equal(week.Start))
	assert.Equal(t, 7*24*time.Hour, last.End.Sub(last.Start))
}

func TestDayKey_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	ts := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-15", DayKey(ts))
	assert.Equal(t, "2024-03-16", DayKey(ts.In(tokyo)))
}

// =============================================================================
// BALANCE
// =============================================================================

func TestBalance_Formula(t *testing.T) {
	txs := []domain.Transaction{
		tx("k1", domain.TxEarn, 10, daysAgo(3)),
		tx("k1", domain.TxDeduct, 2, daysAgo(2)),
		tx("k1", domain.TxEarn, 5, daysAgo(1)),
		tx("k1", domain.TxRedeem, 4, now),
		tx("k2", domain.TxEarn, 100, now),
	}
	assert.True(t, dec(9).Equal(Balance("k1", txs)))
	assert.True(t, dec(100).Equal(Balance("k2", txs)))
	assert.True(t, Balance("nobody", txs).IsZero())
}

func TestBalance_OrderIndependent(t *testing.T) {
	txs := []domain.Transaction{
		tx("k1", domain.TxEarn, 7, daysAgo(1)),
		tx("k1", domain.TxRedeem, 3, now),
		tx("k1", domain.TxDeduct, 1, daysAgo(5)),
	}
	reversed := []domain.Transaction{txs[2], txs[1], txs[0]}
	assert.True(t, Balance("k1", txs).Equal(Balance("k1", reversed)))
}

func TestEarningsInRange_HalfOpen(t *testing.T) {
	start := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	txs := []domain.Transaction{
		tx("k1", domain.TxEarn, 1, start),
		tx("k1", domain.TxEarn, 10, end),
		tx("k1", domain.TxEarn, 100, start.Add(-time.Nanosecond)),
		tx("k1", domain.TxDeduct, 50, start.Add(time.Hour)),
	}
	assert.True(t, dec(1).Equal(EarningsInRange("k1", txs, start, end)))
	assert.True(t, dec(50).Equal(DeductionsInRange("k1", txs, start, end)))
}

func TestWeeklyEarnings(t *testing.T) {
	txs := []domain.Transaction{
		tx("k1", domain.TxEarn, 5, now),                            // this week
		tx("k1", domain.TxEarn, 3, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)), // this monday
		tx("k1", domain.TxEarn, 8, time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)), // last sunday
		tx("k1", domain.TxEarn, 2, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)),   // last monday
		tx("k1", domain.TxEarn, 9, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)),   // two weeks ago
		tx("k1", domain.TxDeduct, 4, now),
	}
	assert.True(t, dec(5).Equal(EarningsToday("k1", txs, now)))
	assert.True(t, dec(8).Equal(EarningsThisWeek("k1", txs, now)))
	assert.True(t, dec(10).Equal(EarningsLastWeek("k1", txs, now)))
	assert.True(t, dec(4).Equal(DeductionsThisWeek("k1", txs, now)))
}

func TestCompletedBehaviorsToday(t *testing.T) {
	a := tx("k1", domain.TxEarn, 1, now)
	a.BehaviorID = "bh_1"
	b := tx("k1", domain.TxEarn, 1, daysAgo(1))
	b.BehaviorID = "bh_2"
	c := tx("k1", domain.TxEarn, 1, now.Add(-time.Hour))
	txs := []domain.Transaction{a, b, c}

	assert.Equal(t, []string{"bh_1"}, CompletedBehaviorsToday("k1", txs, now))
	assert.True(t, IsBehaviorCompletedToday("k1", "bh_1", txs, now))
	assert.False(t, IsBehaviorCompletedToday("k1", "bh_2", txs, now))
	assert.False(t, IsBehaviorCompletedToday("k2", "bh_1", txs, now))
}

func TestWishProgressPercent(t *testing.T) {
	tests := []struct {
		target, balance int64
		want            int
	}{
		{20, 10, 50},
		{20, 40, 100},
		{3, 1, 33},
		{3, 2, 67},
		{0, 5, 100},
		{-1, 5, 100},
		{10, -5, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WishProgressPercent(dec(tt.target), dec(tt.balance)),
			"target=%d balance=%d", tt.target, tt.balance)
	}
}

// =============================================================================
// STREAKS
// =============================================================================

func TestStreak_ThroughToday(t *testing.T) {
	txs := []domain.Transaction{
		tx("k1", domain.TxEarn, 1, daysAgo(2)),
		tx("k1", domain.TxEarn, 1, daysAgo(1)),
		tx("k1", domain.TxEarn, 1, now),
	}
	assert.Equal(t, 3, Streak("k1", txs, now))
}

func TestStreak_TodayEmptyDoesNotBreak(t *testing.T) {
	txs := []domain.Transaction{
		tx("k1", domain.TxEarn, 1, daysAgo(2)),
		tx("k1", domain.TxEarn, 1, daysAgo(1)),
	}
	assert.Equal(t, 2, Streak("k1", txs, now))
}

func TestStreak_GapStopsScan(t *testing.T) {
	txs := []domain.Transaction{
		tx("k1", domain.TxEarn, 1, daysAgo(5)),
		tx("k1", domain.TxEarn, 1, daysAgo(4)),
		tx("k1", domain.TxEarn, 1, daysAgo(1)),
		tx("k1", domain.TxEarn, 1, now),
	}
	assert.Equal(t, 2, Streak("k1", txs, now))
}

func TestStreak_IgnoresDeductionsAndOtherKids(t *testing.T) {
	txs := []domain.Transaction{
		tx("k1", domain.TxDeduct, 1, now),
		tx("k2", domain.TxEarn, 1, daysAgo(1)),
	}
	assert.Equal(t, 0, Streak("k1", txs, now))
	assert.Equal(t, 1, Streak("k2", txs, now))
}

func TestStreak_CappedAtScanLimit(t *testing.T) {
	var txs []domain.Transaction
	for i := 0; i < MaxStreakScan+30; i++ {
		txs = append(txs, tx("k1", domain.TxEarn, 1, daysAgo(i)))
	}
	assert.Equal(t, MaxStreakScan, Streak("k1", txs, now))
}

func TestLongestStreak(t *testing.T) {
	txs := []domain.Transaction{
		tx("k1", domain.TxEarn, 1, daysAgo(20)),
		tx("k1", domain.TxEarn, 1, daysAgo(19)),
		tx("k1", domain.TxEarn, 1, daysAgo(18)),
		tx("k1", domain.TxEarn, 2, daysAgo(18).Add(time.Hour)),
		tx("k1", domain.TxEarn, 1, daysAgo(17)),
		tx("k1", domain.TxEarn, 1, daysAgo(3)),
		tx("k1", domain.TxEarn, 1, daysAgo(2)),
	}
	assert.Equal(t, 4, LongestStreak("k1", txs, time.UTC))
	assert.Equal(t, 0, LongestStreak("k2", txs, time.UTC))
}

func TestLongestStreak_AcrossMonthEnd(t *testing.T) {
	txs := []domain.Transaction{
		tx("k1", domain.TxEarn, 1, time.Date(2024, 2, 28, 10, 0, 0, 0, time.UTC)),
		tx("k1", domain.TxEarn, 1, time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)),
		tx("k1", domain.TxEarn, 1, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)),
	}
	assert.Equal(t, 3, LongestStreak("k1", txs, time.UTC))
}

// =============================================================================
// DAILY HIGH
// =============================================================================

func TestDailyHighRecord(t *testing.T) {
	txs := []domain.Transaction{
		tx("k1", domain.TxEarn, 4, daysAgo(3)),
		tx("k1", domain.TxEarn, 4, daysAgo(3).Add(time.Hour)),
		tx("k1", domain.TxEarn, 8, daysAgo(1)),
		tx("k1", domain.TxEarn, 5, now),
	}
	high := DailyHighRecord("k1", txs, time.UTC)
	assert.Equal(t, DayKey(daysAgo(3)), high.Date, "tie keeps earliest day")
	assert.True(t, dec(8).Equal(high.Amount))

	empty := DailyHighRecord("k2", txs, time.UTC)
	assert.Empty(t, empty.Date)
	assert.True(t, empty.Amount.IsZero())
}

func TestIsNewDailyHigh(t *testing.T) {
	base := []domain.Transaction{tx("k1", domain.TxEarn, 6, daysAgo(2))}

	assert.False(t, IsNewDailyHigh("k1", base, now), "nothing earned today")

	tie := append(append([]domain.Transaction{}, base...), tx("k1", domain.TxEarn, 6, now))
	assert.False(t, IsNewDailyHigh("k1", tie, now), "tie is not a new high")

	beat := append(append([]domain.Transaction{}, base...), tx("k1", domain.TxEarn, 7, now))
	assert.True(t, IsNewDailyHigh("k1", beat, now))

	first := []domain.Transaction{tx("k1", domain.TxEarn, 1, now)}
	assert.True(t, IsNewDailyHigh("k1", first, now))
}

// =============================================================================
// LEADERBOARDS
// =============================================================================

func TestWeeklyLeaderboard_StableOrder(t *testing.T) {
	kids := []domain.Kid{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	txs := []domain.Transaction{
		tx("a", domain.TxEarn, 10, now),
		tx("b", domain.TxEarn, 25, now),
		tx("c", domain.TxEarn, 30, now),
		tx("c", domain.TxDeduct, 5, now),
		tx("d", domain.TxDeduct, 5, now),
	}
	board := WeeklyLeaderboard(kids, txs, now)
	require.Len(t, board, 4)

	var ids []string
	for i, e := range board {
		ids = append(ids, e.Kid.ID)
		if i > 0 {
			assert.False(t, e.WeeklyNet.GreaterThan(board[i-1].WeeklyNet), "non-increasing")
		}
	}
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids)
	assert.True(t, dec(25).Equal(board[1].WeeklyNet))
	assert.True(t, dec(5).Equal(board[1].WeeklyDeductions))
	assert.True(t, dec(-5).Equal(board[3].WeeklyNet))
	assert.Equal(t, 1, board[0].Streak)
}

func TestImprovementPct(t *testing.T) {
	tests := []struct {
		this, last int64
		want       int64
	}{
		{15, 10, 50},
		{10, 10, 0},
		{5, 10, -50},
		{10, 0, 100},
		{0, 0, 0},
		{2, 3, -33},
		{41, 40, 3},
		{39, 40, -2},
		{1, 8, -87},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ImprovementPct(dec(tt.this), dec(tt.last)), "this=%d last=%d", tt.this, tt.last)
	}
}

func TestMostImprovedLeaderboard(t *testing.T) {
	lastWeek := daysAgo(7)
	kids := []domain.Kid{{ID: "flat"}, {ID: "grower"}, {ID: "new"}}
	txs := []domain.Transaction{
		tx("flat", domain.TxEarn, 10, lastWeek),
		tx("flat", domain.TxEarn, 10, now),
		tx("grower", domain.TxEarn, 10, lastWeek),
		tx("grower", domain.TxEarn, 30, now),
		tx("new", domain.TxEarn, 1, now),
	}
	board := MostImprovedLeaderboard(kids, txs, now)
	require.Len(t, board, 3)
	assert.Equal(t, "grower", board[0].Kid.ID)
	assert.Equal(t, int64(200), board[0].ImprovementPct)
	assert.Equal(t, "new", board[1].Kid.ID)
	assert.Equal(t, int64(100), board[1].ImprovementPct)
	assert.Equal(t, "flat", board[2].Kid.ID)
}

// =============================================================================
// STATS
// =============================================================================

func TestStats(t *testing.T) {
	a := tx("k1", domain.TxEarn, 4, daysAgo(1))
	a.Category = "Health"
	a.Multiplier = 2
	b := tx("k1", domain.TxEarn, 3, now)
	b.Category = "Learning"
	c := tx("k1", domain.TxEarn, 1, now)
	c.Category = "Health"
	c.Multiplier = 1
	d := tx("k1", domain.TxDeduct, 9, now)

	st := Stats("k1", []domain.Transaction{a, b, c, d}, now)
	assert.True(t, dec(8).Equal(st.TotalEarned))
	assert.Equal(t, 2, st.CurrentStreak)
	assert.Equal(t, 2, st.LongestStreak)
	assert.Equal(t, 3, st.TasksCompleted)
	assert.Equal(t, 2, st.DistinctCategories)
	assert.Equal(t, 1, st.MultiplierHits)
}
