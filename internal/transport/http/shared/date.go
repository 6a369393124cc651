package shared

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// ParseDay parses a calendar date in YYYY-MM-DD form at midnight in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
}
