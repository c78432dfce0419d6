package demo

import (
	"time"

	"github.com/claude/pulseboard/internal/models"
)

func hoursAgo(now time.Time, h float64) time.Time {
	return now.Add(-time.Duration(h * float64(time.Hour))).UTC()
}

func stampAgo(now time.Time, h float64) models.Stamp {
	return models.TextStamp(hoursAgo(now, h).Format(time.RFC3339))
}

func scalar(now time.Time, h, v float64) models.RawPoint {
	return models.RawPoint{Timestamp: stampAgo(now, h), Value: models.NewNumber(v)}
}

func bp(now time.Time, h, sys, dia float64) models.RawPoint {
	return models.RawPoint{Timestamp: stampAgo(now, h), Systolic: models.NewNumber(sys), Diastolic: models.NewNumber(dia)}
}

// Payload returns the fixture readings as an ingest payload.
func Payload(now time.Time) *models.IngestPayload {
	p := &models.IngestPayload{
		UserEmail: Email,
		Metrics: map[string][]models.RawPoint{
			"heart_rate": {
				scalar(now, 22, 72),
				scalar(now, 18, 78),
				scalar(now, 14, 75),
				scalar(now, 10, 88),
				scalar(now, 6, 74),
				scalar(now, 2, 70),
			},
			"spo2": {
				scalar(now, 22, 98),
				scalar(now, 14, 97),
				scalar(now, 6, 96),
				scalar(now, 2, 98),
			},
			"blood_pressure": {
				bp(now, 20, 118, 78),
				bp(now, 10, 132, 86),
				bp(now, 3, 122, 80),
			},
			"stress": {
				scalar(now, 18, 2),
				scalar(now, 12, 3),
				scalar(now, 8, 4),
				scalar(now, 4, 2),
			},
			"steps":    {scalar(now, 1, 6400)},
			"distance": {scalar(now, 1, 4.3)},
			"calories": {scalar(now, 1, 520)},
		},
	}

	// One night per day for the last week: days ago, hours before that day's
	// "now" the session started and ended, and its duration.
	nights := []struct{ day, start, end, hours float64 }{
		{6, 8, 1, 7.0},
		{5, 8, 0.5, 7.5},
		{4, 7.5, 0.7, 6.8},
		{3, 8.2, 1.0, 7.2},
		{2, 7.8, 0.8, 7.0},
		{1, 8.1, 1.2, 6.9},
		{0, 8, 1, 7.0},
	}
	for _, n := range nights {
		base := n.day * 24
		p.SleepSessions = append(p.SleepSessions, models.SleepSessionPayload{
			Date:          hoursAgo(now, base).Format(time.DateOnly),
			StartTime:     stampAgo(now, base+n.start),
			EndTime:       stampAgo(now, base+n.end),
			DurationHours: models.NewNumber(n.hours),
		})
	}
	return p
}

// Workouts returns activity-tagged step readings from earlier days of the week,
// one payload per workout. Nothing lands on today or yesterday so the cards and
// day comparisons only see the untagged readings.
func Workouts(now time.Time) []*models.IngestPayload {
	workouts := []struct {
		activity string
		hours    []float64
	}{
		{"walking", []float64{48, 47.75, 47.5}},
		{"running", []float64{72.5, 72.25, 72}},
		{"walking", []float64{96, 95.75, 95.5, 95.25}},
		{"biking", []float64{192, 191.5}},
	}
	out := make([]*models.IngestPayload, 0, len(workouts))
	for _, w := range workouts {
		points := make([]models.RawPoint, 0, len(w.hours))
		for _, h := range w.hours {
			points = append(points, scalar(now, h, 900))
		}
		out = append(out, &models.IngestPayload{
			UserEmail:    Email,
			Metrics:      map[string][]models.RawPoint{"steps": points},
			ActivityType: w.activity,
		})
	}
	return out
}

// AnomalyReport returns the fixture anomaly report for the local day of now.
func AnomalyReport(now time.Time, loc *time.Location) *models.AnomalyReportPayload {
	if loc == nil {
		loc = time.UTC
	}
	window := func(h, anomaly, hr, spo2, sys, dia float64) models.AnomalyPointPayload {
		return models.AnomalyPointPayload{
			Timestamp:   stampAgo(now, h),
			IsAnomaly:   models.NewNumber(anomaly),
			HeartRate:   models.NewNumber(hr),
			SpO2:        models.NewNumber(spo2),
			SystolicBP:  models.NewNumber(sys),
			DiastolicBP: models.NewNumber(dia),
		}
	}
	return &models.AnomalyReportPayload{
		UserEmail:        Email,
		Date:             now.In(loc).Format(time.DateOnly),
		Status:           "alert",
		PercentAnomalies: models.NewNumber(18.4),
		DataConfidence:   "high",
		TopContributors:  []string{"Heart Rate", "Blood Pressure"},
		Note:             "Personalized anomalies detected using resting health metrics",
		Series: []models.AnomalyPointPayload{
			window(22, 0, 72, 98, 118, 78),
			window(18, 0, 78, 97, 120, 80),
			window(14, 1, 92, 96, 124, 82),
			window(10, 1, 88, 97, 138, 88),
			window(6, 0, 74, 98, 122, 80),
			window(2, 0, 70, 98, 120, 78),
		},
	}
}
