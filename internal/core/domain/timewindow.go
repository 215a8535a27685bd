package domain

import (
	"strconv"
	"strings"
	"time"
)

// ParseWindow parses a freshness window string into a UTC timestamp.
// Accepted forms: "7d" (now minus seven days), "YYYY-MM-DD" (midnight
// UTC), or RFC3339. Returns the zero time for unparseable input; the
// caller treats that as "no filter".
func ParseWindow(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	if stripped, ok := strings.CutSuffix(s, "d"); ok {
		if days, err := strconv.ParseInt(stripped, 10, 64); err == nil && days > 0 {
			return now.UTC().Add(-time.Duration(days) * 24 * time.Hour)
		}
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC()
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}

	return time.Time{}
}
