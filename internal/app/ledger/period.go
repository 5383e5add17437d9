package ledger

import "time"

// DayLayout is the calendar day key format.
const DayLayout = "2006-01-02"

// Range is a half-open time window [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside [Start, End).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// DayKey returns the YYYY-MM-DD calendar day of t in t's location.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses a day key as midnight in loc.
func ParseDay(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayLayout, key, loc)
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Day returns the calendar day containing t.
func Day(t time.Time) Range {
	start := StartOfDay(t)
	return Range{Start: start, End: start.AddDate(0, 0, 1)}
}

// WeekStart returns local midnight of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	wd := int(t.Weekday())
	offset := 1 - wd
	if t.Weekday() == time.Sunday {
		offset = -6
	}
	return StartOfDay(t).AddDate(0, 0, offset)
}

// ThisWeek returns the Monday-start week containing t.
func ThisWeek(t time.Time) Range {
	start := WeekStart(t)
	return Range{Start: start, End: start.AddDate(0, 0, 7)}
}

// LastWeek returns the 7 days immediately preceding ThisWeek(t).
func LastWeek(t time.Time) Range {
	end := WeekStart(t)
	return Range{Start: end.AddDate(0, 0, -7), End: end}
}

// localDay returns the day key of a transaction timestamp as seen from loc.
func localDay(ts time.Time, loc *time.Location) string {
	return DayKey(ts.In(loc))
}
