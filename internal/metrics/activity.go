package metrics

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// ActivitySample is a reading tagged with the activity it was recorded during.
type ActivitySample struct {
	Time time.Time
	Type string
}

// ActivityLog is one stretch of a single activity.
type ActivityLog struct {
	ActivityType    string    `json:"activity_type"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes float64   `json:"duration_minutes"`
}

// ActivityTotal is the time spent in one activity over a window.
type ActivityTotal struct {
	ActivityType    string  `json:"activity_type"`
	DurationMinutes float64 `json:"duration_minutes"`
	Sessions        int     `json:"sessions"`
}

// GroupActivity turns tagged samples into logs. Samples of the same activity no
// more than gap apart belong to one log; untagged samples are ignored. Logs come
// back newest first.
func GroupActivity(samples []ActivitySample, gap time.Duration) []ActivityLog {
	byType := make(map[string][]time.Time)
	for _, s := range samples {
		t := strings.TrimSpace(s.Type)
		if t == "" {
			continue
		}
		byType[t] = append(byType[t], s.Time)
	}

	logs := []ActivityLog{}
	for typ, times := range byType {
		slices.SortFunc(times, func(a, b time.Time) int { return a.Compare(b) })
		start, last := times[0], times[0]
		for _, t := range times[1:] {
			if t.Sub(last) > gap {
				logs = append(logs, newActivityLog(typ, start, last))
				start = t
			}
			last = t
		}
		logs = append(logs, newActivityLog(typ, start, last))
	}

	slices.SortFunc(logs, func(a, b ActivityLog) int {
		if c := b.StartTime.Compare(a.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ActivityType, b.ActivityType)
	})
	return logs
}

func newActivityLog(typ string, start, end time.Time) ActivityLog {
	return ActivityLog{
		ActivityType:    typ,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: round2(end.Sub(start).Minutes()),
	}
}

// ActivityTotals sums log durations per activity, longest first.
func ActivityTotals(logs []ActivityLog) []ActivityTotal {
	idx := make(map[string]int)
	totals := []ActivityTotal{}
	for _, l := range logs {
		i, ok := idx[l.ActivityType]
		if !ok {
			i = len(totals)
			idx[l.ActivityType] = i
			totals = append(totals, ActivityTotal{ActivityType: l.ActivityType})
		}
		totals[i].DurationMinutes += l.DurationMinutes
		totals[i].Sessions++
	}
	for i := range totals {
		totals[i].DurationMinutes = round2(totals[i].DurationMinutes)
	}
	slices.SortFunc(totals, func(a, b ActivityTotal) int {
		if c := cmp.Compare(b.DurationMinutes, a.DurationMinutes); c != 0 {
			return c
		}
		return cmp.Compare(a.ActivityType, b.ActivityType)
	})
	return totals
}
