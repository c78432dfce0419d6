// Package demo serves a fixed day of sample readings, placed relative to the
// current time, through the same data source interface as the database.
package demo

import (
	"context"
	"time"

	"github.com/claude/pulseboard/internal/ingest"
	"github.com/claude/pulseboard/internal/models"
)

// Email is the identity signed in while demo mode is on.
const Email = "demo@pulseboard.local"

// UserID is the user every email resolves to in the fixture.
const UserID = 1

// Source is an in-memory data source holding the fixture.
type Source struct {
	metrics []models.HealthMetricRow
	sleep   []models.SleepSessionRow
	report  models.AnomalyReportRow
}

// New builds the fixture with readings placed relative to now. loc decides the
// calendar day the anomaly report belongs to.
func New(now time.Time, loc *time.Location) *Source {
	batch, _ := ingest.ConvertPayload(Payload(now), UserID, loc)
	report, _, _ := ingest.ConvertAnomalyReport(AnomalyReport(now, loc), UserID, loc)
	src := &Source{metrics: batch.Metrics, sleep: batch.Sleep, report: report}
	for _, w := range Workouts(now) {
		b, _ := ingest.ConvertPayload(w, UserID, loc)
		src.metrics = append(src.metrics, b.Metrics...)
	}
	return src
}

// UserIDByEmail resolves any email to the fixture user.
func (s *Source) UserIDByEmail(_ context.Context, _ string) (int, error) {
	return UserID, nil
}

// QueryMetricsRange returns fixture readings in [start, end).
func (s *Source) QueryMetricsRange(_ context.Context, start, end time.Time, _ int) ([]models.HealthMetricRow, error) {
	var out []models.HealthMetricRow
	for _, r := range s.metrics {
		if !r.Time.Before(start) && r.Time.Before(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

// QuerySleepSessions returns fixture sessions overlapping [start, end).
func (s *Source) QuerySleepSessions(_ context.Context, start, end time.Time, _ int) ([]models.SleepSessionRow, error) {
	var out []models.SleepSessionRow
	for _, r := range s.sleep {
		if r.StartTime.Before(end) && r.EndTime.After(start) {
			out = append(out, r)
		}
	}
	return out, nil
}

// QueryActivity returns activity-tagged fixture readings in [start, end).
func (s *Source) QueryActivity(_ context.Context, start, end time.Time, _ int) ([]models.HealthMetricRow, error) {
	var out []models.HealthMetricRow
	for _, r := range s.metrics {
		if r.ActivityType != "" && !r.Time.Before(start) && r.Time.Before(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetAnomalyReport returns the fixture report when date is its day.
func (s *Source) GetAnomalyReport(_ context.Context, _ int, date time.Time) (*models.AnomalyReportRow, error) {
	if !sameDay(s.report.Date, date) {
		return nil, nil
	}
	r := s.report
	return &r, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
