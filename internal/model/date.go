package model

import (
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used for storage and input.
const DateLayout = "2006-01-02"

// ShortLayout is the compact display format for stamped step dates.
const ShortLayout = "Jan-02"

// ParseDate parses an ISO date. An empty string is a ValidationError.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, &ValidationError{Field: "date", Reason: "date is required"}
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Reason: "expected YYYY-MM-DD, got " + v}
	}
	return t, nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate formats t as an ISO date.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// FormatShort renders a step date for display, or "—" when absent.
func FormatShort(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format(ShortLayout)
}
