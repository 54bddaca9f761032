package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Storage timestamps are naive UTC ISO-8601 strings so that
// lexicographic comparison inside SQLite matches chronological order.
const storageTimeLayout = "2006-01-02T15:04:05.999999"

// FormatStorageTime renders a timestamp for the index database.
// A nil timestamp becomes the empty string.
func FormatStorageTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(storageTimeLayout)
}

// ParseStorageTime reads a timestamp written by FormatStorageTime.
// Empty or malformed values come back as nil.
func ParseStorageTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// parseRecordTimestamp reads a timestamp from a log line. Inputs with a
// zone offset are converted to UTC; naive inputs are assumed UTC.
func parseRecordTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t = t.UTC()
		return &t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return &t
	}
	return nil
}

// FormatLocalTime renders a timestamp in the local timezone for display.
func FormatLocalTime(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// ParseDateInput parses a --since/--until value. Bare dates expand to
// midnight, or to the end of the day when endOfDay is set.
func ParseDateInput(value string, endOfDay bool) (time.Time, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), "T", " ")
	if cleaned == "" {
		return time.Time{}, errors.New("empty datetime value")
	}
	if len(cleaned) == 10 {
		t, err := time.Parse("2006-01-02", cleaned)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q", value)
		}
		if endOfDay {
			t = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		}
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", value)
}
