package models

import (
	"fmt"
	"strings"
	"time"
)

var dayLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDay parses a date or datetime and truncates it to a UTC calendar day.
func ParseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return TruncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
}

// TruncateDay drops the time of day, keeping the calendar date as written.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDay(t time.Time) string {
	return t.Format(DateLayout)
}

// Nights counts the nights of the stay [checkIn, checkOut).
func Nights(checkIn, checkOut time.Time) int {
	return int(TruncateDay(checkOut).Sub(TruncateDay(checkIn)).Hours() / 24)
}
