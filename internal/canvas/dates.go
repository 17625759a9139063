package canvas

import (
	"strings"
	"time"
)

// dateRange is an inclusive [Start, End] window at day granularity.
type dateRange struct {
	Start time.Time
	End   time.Time
}

// resolveDateRange maps a filter keyword or explicit date to a concrete
// window. Recognized keywords: today, tomorrow, this_week. An explicit
// value must be YYYY-MM-DD. Malformed input returns ok=false, which
// callers treat as "no filter" rather than an error.
func resolveDateRange(value string, now time.Time) (dateRange, bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return dateRange{}, false
	case "today":
		return dateRange{Start: day, End: day}, true
	case "tomorrow":
		t := day.AddDate(0, 0, 1)
		return dateRange{Start: t, End: t}, true
	case "this_week":
		return dateRange{Start: day, End: day.AddDate(0, 0, 6)}, true
	}

	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), now.Location())
	if err != nil {
		return dateRange{}, false
	}
	return dateRange{Start: t, End: t}, true
}

// contains reports whether the date part of t falls inside the range.
func (r dateRange) contains(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.Start.Location())
	return !d.Before(r.Start) && !d.After(r.End)
}

// parseCanvasTime parses Canvas timestamps, which are RFC 3339 with a
// trailing Z. Returns the zero time when unparsable.
func parseCanvasTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(value, "Z")); err == nil {
		return t
	}
	return time.Time{}
}

// sameOrAfterDay reports whether a is on the same calendar day as b or later.
func sameOrAfterDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return !da.Before(db)
}
