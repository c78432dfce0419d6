package metrics

import (
	"math"
	"time"

	"github.com/claude/pulseboard/internal/models"
)

// SleepSession is a parsed sleep session.
type SleepSession struct {
	Date          string    `json:"date"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours float64   `json:"duration_hours"`
}

// ParseSleepSessions keeps sessions with parseable, ordered start and end times.
// A missing duration is derived from the interval.
func ParseSleepSessions(raw []models.SleepSessionPayload) (sessions []SleepSession, dropped int) {
	sessions = make([]SleepSession, 0, len(raw))
	for _, r := range raw {
		start, ok := StampTime(r.StartTime)
		if !ok {
			dropped++
			continue
		}
		end, ok := StampTime(r.EndTime)
		if !ok || end.Before(start) {
			dropped++
			continue
		}
		hours := end.Sub(start).Hours()
		if r.DurationHours.Finite() {
			hours = r.DurationHours.V
		}
		sessions = append(sessions, SleepSession{
			Date:          r.Date,
			StartTime:     start,
			EndTime:       end,
			DurationHours: hours,
		})
	}
	return sessions, dropped
}

// Overlaps reports whether the session's [start, end) interval intersects [from, to).
func (s SleepSession) Overlaps(from, to time.Time) bool {
	return s.StartTime.Before(to) && s.EndTime.After(from)
}

// SessionsForDay returns the sessions attributed to the local calendar day containing
// day: those overlapping local midnight to midnight in loc.
func SessionsForDay(sessions []SleepSession, day time.Time, loc *time.Location) []SleepSession {
	if loc == nil {
		loc = time.UTC
	}
	from := DayStart(day, loc)
	to := from.AddDate(0, 0, 1)
	return SessionsBetween(sessions, from, to)
}

// SessionsBetween returns the sessions overlapping [from, to).
func SessionsBetween(sessions []SleepSession, from, to time.Time) []SleepSession {
	var out []SleepSession
	for _, s := range sessions {
		if s.Overlaps(from, to) {
			out = append(out, s)
		}
	}
	return out
}

// SleepPoints converts sessions into duration readings stamped at the session end
// so they can go through Summarize as KindSleep.
func SleepPoints(sessions []SleepSession) []Point {
	points := make([]Point, 0, len(sessions))
	for _, s := range sessions {
		if !isFinite(s.DurationHours) {
			continue
		}
		h := s.DurationHours
		points = append(points, Point{Epoch: s.EndTime.UnixMilli(), Value: &h})
	}
	return points
}

// DailySleep is the sleep total attributed to one local day.
type DailySleep struct {
	Date     string  `json:"date"`
	Weekday  string  `json:"day"`
	Hours    float64 `json:"hours"`
	Sessions int     `json:"sessions"`
}

// WeeklySleep totals sleep for the given number of local days ending with the day
// containing now, oldest first.
func WeeklySleep(sessions []SleepSession, now time.Time, days int, loc *time.Location) []DailySleep {
	if loc == nil {
		loc = time.UTC
	}
	today := DayStart(now, loc)
	out := make([]DailySleep, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		matched := SessionsForDay(sessions, day, loc)
		var total float64
		for _, s := range matched {
			if isFinite(s.DurationHours) {
				total += s.DurationHours
			}
		}
		out = append(out, DailySleep{
			Date:     day.Format("2006-01-02"),
			Weekday:  day.Format("Mon"),
			Hours:    math.Round(total*100) / 100,
			Sessions: len(matched),
		})
	}
	return out
}
