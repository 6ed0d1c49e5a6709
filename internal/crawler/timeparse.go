package crawler

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// localDateTime matches "dd/mm/yyyy - hh:mm", "dd/mm/yyyy hh:mm" and "dd/mm/yyyy"
// anywhere in a string, e.g. "Thứ Bảy, ngày 18/10/2026 - 09:30 AM GMT+7".
var localDateTime = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})(?:\s*-?\s*(\d{1,2}):(\d{2}))?`)

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime reads a publish time from raw. Zone-less values are taken in loc.
// It returns false when nothing usable was found.
func ParseTime(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}

	m := localDateTime.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, minute := 0, 0
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
	}
	if month < 1 || month > 12 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	// time.Date normalizes 31/02 into March; reject instead
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
