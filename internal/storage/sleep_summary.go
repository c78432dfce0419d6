package storage

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/claude/pulseboard/internal/metrics"
)

// SleepSummaryPeriod holds aggregated sleep stats for one time period.
type SleepSummaryPeriod struct {
	Period        string  `json:"period"`
	Nights        int     `json:"nights"`
	AvgDurationHr float64 `json:"avg_duration_hr"`
	MinDurationHr float64 `json:"min_duration_hr"`
	MaxDurationHr float64 `json:"max_duration_hr"`
	metrics.SleepTiming
}

// GetSleepSummary returns aggregated sleep stats per period with circular bedtime/waketime
// averages computed in loc.
func (db *DB) GetSleepSummary(ctx context.Context, start, end time.Time, bucket string, userID int, loc *time.Location) ([]SleepSummaryPeriod, error) {
	trunc := truncInterval(bucket)

	aggRows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, date)::date AS period,
		        COUNT(*)::int AS nights,
		        AVG(duration_hours),
		        MIN(duration_hours),
		        MAX(duration_hours)
		 FROM sleep_sessions
		 WHERE date >= $2 AND date < $3 AND user_id = $4
		 GROUP BY period
		 ORDER BY period DESC`,
		trunc, start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sleep summary: %w", err)
	}
	defer aggRows.Close()

	periodMap := make(map[string]*SleepSummaryPeriod)
	var periodOrder []string

	for aggRows.Next() {
		var periodTime time.Time
		var sp SleepSummaryPeriod
		if err := aggRows.Scan(&periodTime, &sp.Nights,
			&sp.AvgDurationHr, &sp.MinDurationHr, &sp.MaxDurationHr); err != nil {
			return nil, fmt.Errorf("scanning sleep summary: %w", err)
		}
		sp.Period = periodTime.Format("2006-01-02")
		sp.AvgDurationHr = math.Round(sp.AvgDurationHr*100) / 100
		periodMap[sp.Period] = &sp
		periodOrder = append(periodOrder, sp.Period)
	}
	if err := aggRows.Err(); err != nil {
		return nil, err
	}

	timingRows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, date)::date AS period, start_time, end_time
		 FROM sleep_sessions
		 WHERE date >= $2 AND date < $3 AND user_id = $4
		 ORDER BY period, date`,
		trunc, start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sleep timing: %w", err)
	}
	defer timingRows.Close()

	sessionsByPeriod := make(map[string][]metrics.SleepSession)
	for timingRows.Next() {
		var period time.Time
		var s metrics.SleepSession
		if err := timingRows.Scan(&period, &s.StartTime, &s.EndTime); err != nil {
			return nil, fmt.Errorf("scanning sleep timing: %w", err)
		}
		key := period.Format("2006-01-02")
		sessionsByPeriod[key] = append(sessionsByPeriod[key], s)
	}
	if err := timingRows.Err(); err != nil {
		return nil, err
	}

	for key, sessions := range sessionsByPeriod {
		sp, ok := periodMap[key]
		if !ok {
			continue
		}
		if timing, ok := metrics.Timing(sessions, loc); ok {
			sp.SleepTiming = timing
		}
	}

	result := make([]SleepSummaryPeriod, 0, len(periodOrder))
	for _, key := range periodOrder {
		result = append(result, *periodMap[key])
	}
	return result, nil
}

// truncInterval converts bucket strings like "1 month" to the interval name
// expected by date_trunc.
func truncInterval(bucket string) string {
	switch bucket {
	case "1 week", "week":
		return "week"
	case "1 day", "day":
		return "day"
	default:
		return "month"
	}
}
