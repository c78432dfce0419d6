package metrics

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/claude/pulseboard/internal/models"
)

// maxEpochMs is the largest instant representable as a date (±100,000,000 days).
const maxEpochMs = 8.64e15

// timeLayouts are tried in order for calendar strings. Layouts without a zone are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseEpoch converts a client timestamp to epoch milliseconds. Numbers are taken as
// epoch milliseconds, numeric strings are coerced, anything else is parsed as a
// calendar string. ok is false when the result is not a finite, representable instant.
func ParseEpoch(s models.Stamp) (ms int64, ok bool) {
	if !s.Present {
		return 0, false
	}
	if s.Numeric {
		return epochFromFloat(s.Num)
	}
	text := strings.TrimSpace(s.Text)
	if text == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return epochFromFloat(v)
	}
	t, err := ParseTime(text)
	if err != nil {
		return 0, false
	}
	return t.UnixMilli(), true
}

// ParseTime parses a calendar string using the accepted layouts.
func ParseTime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// StampTime converts a Stamp to a time.Time in UTC.
func StampTime(s models.Stamp) (time.Time, bool) {
	ms, ok := ParseEpoch(s)
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

func epochFromFloat(v float64) (int64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > maxEpochMs {
		return 0, false
	}
	return int64(v), true
}
