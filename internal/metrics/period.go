package metrics

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period labels accepted from the period selector.
const (
	PeriodToday     = "Today"
	PeriodYesterday = "Yesterday"
	PeriodCustom    = "Custom"
)

// Period is a local calendar day selected for aggregation.
type Period struct {
	Label string    `json:"label"`
	Date  string    `json:"date"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ResolvePeriod maps a selector label (and a YYYY-MM-DD date for Custom) to the
// local-day window [Start, End) in loc. An empty label means Today; a bare date
// with no label means Custom.
func ResolvePeriod(label, date string, now time.Time, loc *time.Location) (Period, error) {
	if loc == nil {
		loc = time.UTC
	}
	if label == "" {
		label = PeriodToday
		if date != "" {
			label = PeriodCustom
		}
	}

	var day time.Time
	switch strings.ToLower(label) {
	case "today":
		label = PeriodToday
		day = now.In(loc)
	case "yesterday":
		label = PeriodYesterday
		day = now.In(loc).AddDate(0, 0, -1)
	case "custom":
		if date == "" {
			return Period{}, fmt.Errorf("custom period requires a date")
		}
		parsed, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return Period{}, fmt.Errorf("invalid date %q: %w", date, err)
		}
		day = parsed
		label = date
	default:
		return Period{}, fmt.Errorf("unknown period %q", label)
	}

	start := DayStart(day, loc)
	return Period{
		Label: label,
		Date:  start.Format("2006-01-02"),
		Start: start,
		End:   start.AddDate(0, 0, 1),
	}, nil
}

// DayStart returns local midnight of t's calendar day in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// LoadLocation resolves an IANA zone name or a fixed "+HH:MM" / "-HH:MM" offset.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "UTC") || name == "Z" {
		return time.UTC, nil
	}
	if name[0] == '+' || name[0] == '-' {
		return parseOffset(name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading location %q: %w", name, err)
	}
	return loc, nil
}

func parseOffset(s string) (*time.Location, error) {
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	hh, mm, found := strings.Cut(s[1:], ":")
	if !found && len(hh) == 4 {
		hh, mm = hh[:2], hh[2:]
	}
	if !digits(hh) || ((found || mm != "") && !digits(mm)) {
		return nil, fmt.Errorf("invalid UTC offset %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h > 14 {
		return nil, fmt.Errorf("invalid UTC offset %q", s)
	}
	m := 0
	if mm != "" {
		m, err = strconv.Atoi(mm)
		if err != nil || m >= 60 {
			return nil, fmt.Errorf("invalid UTC offset %q", s)
		}
	}
	return time.FixedZone("UTC"+s, sign*(h*3600+m*60)), nil
}

// digits reports whether s is a non-empty run of ASCII digits.
func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
