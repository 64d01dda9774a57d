// backend/src/utils/date_utils.go
package utils

import (
	"fmt"
	"strings"
	"time"
)

// ISODateFormat is the canonical date layout used between adapters, the
// normalizer and the ledger store.
const ISODateFormat = "2006-01-02"

// ParseDateFormats parses a date string trying each layout in order and
// returns the first match as a date-only UTC value. Platform exports disagree
// on date layout (Airbnb leads with US dates, Booking.com with ISO), so each
// adapter passes its own preference list.
func ParseDateFormats(dateStr string, formats ...string) (time.Time, error) {
	s := strings.TrimSpace(dateStr)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q matches none of the expected formats", s)
}

// DateOnly truncates a time to its calendar day in UTC. Ledger dates carry
// no time-of-day component.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
