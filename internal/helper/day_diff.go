package helper

import (
	"strconv"
	"time"
)

// All day arithmetic is pinned to Taiwan time so a date boundary crossing
// always counts as one full day, independent of the server timezone.
var taipei = mustLocation()

func mustLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		// No DST in Taiwan, the fixed offset is equivalent
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

var dateLayouts = []string{
	"2006-01-02T15:04:05.000Z07:00",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dayIndex converts an instant to its Taipei calendar date expressed as
// days since the epoch. Subtracting indices instead of raw durations
// keeps the count stable across offsets.
func dayIndex(t time.Time) int {
	local := t.In(taipei)
	y, m, d := local.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// DaysSince returns the whole calendar days elapsed between dateStr and
// now. Unparseable input and negative spans yield 0.
func DaysSince(dateStr string, now time.Time) int {
	if dateStr == "" {
		return 0
	}
	t, ok := parseDate(dateStr)
	if !ok {
		return 0
	}
	diff := dayIndex(now) - dayIndex(t)
	if diff < 0 {
		return 0
	}
	return diff
}

// DaysSinceCell is the export variant: empty cell for missing or
// unparseable dates instead of a zero.
func DaysSinceCell(dateStr string, now time.Time) string {
	if dateStr == "" {
		return ""
	}
	t, ok := parseDate(dateStr)
	if !ok {
		return ""
	}
	diff := dayIndex(now) - dayIndex(t)
	if diff < 0 {
		diff = 0
	}
	return strconv.Itoa(diff)
}

// DatePart reduces a timestamp to its calendar date for export columns.
func DatePart(dateStr string) string {
	if dateStr == "" {
		return ""
	}
	t, ok := parseDate(dateStr)
	if !ok {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// NowISO formats now the way every timestamp in the store is written.
func NowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
