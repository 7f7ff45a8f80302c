package domain

import (
	"strings"
	"time"
)

// ISODateLayout is the calendar-day format used across filters and records.
const ISODateLayout = "2006-01-02"

// ISODate formats t as a calendar day.
func ISODate(t time.Time) string {
	return t.Format(ISODateLayout)
}

// ResolveRelativeDate turns the literal words "today" and "tomorrow" into
// concrete ISO dates relative to now. Any other value is returned unchanged,
// trimmed; callers that need strict dates validate separately.
func ResolveRelativeDate(value string, now time.Time) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "today":
		return ISODate(now)
	case "tomorrow":
		return ISODate(now.AddDate(0, 0, 1))
	default:
		return strings.TrimSpace(value)
	}
}
