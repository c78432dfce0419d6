package ingest

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/claude/pulseboard/internal/metrics"
	"github.com/claude/pulseboard/internal/models"
)

// ErrInvalidPayload is wrapped by conversion failures caused by the payload itself.
var ErrInvalidPayload = errors.New("invalid payload")

// Batch holds storage rows converted from one payload.
type Batch struct {
	Metrics []models.HealthMetricRow
	Sleep   []models.SleepSessionRow
}

// ConvertPayload turns an ingest payload into storage rows. Points without a usable
// timestamp, or with nothing to store, are counted as dropped. Metric names outside
// the dashboard set are rejected by name.
func ConvertPayload(payload *models.IngestPayload, userID int, loc *time.Location) (Batch, *Result) {
	if loc == nil {
		loc = time.UTC
	}
	var batch Batch
	result := &Result{}

	names := make([]string, 0, len(payload.Metrics))
	for name := range payload.Metrics {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		raw := payload.Metrics[name]
		kind, ok := metrics.ParseKind(name)
		if !ok || kind == metrics.KindSleep {
			result.RejectedNames = append(result.RejectedNames, name)
			continue
		}
		result.PointsReceived += len(raw)

		points, dropped := metrics.ParsePoints(raw)
		result.PointsDropped += dropped
		for _, pt := range points {
			row, ok := metricRow(pt, kind, userID, payload.ActivityType)
			if !ok {
				result.PointsDropped++
				continue
			}
			batch.Metrics = append(batch.Metrics, row)
		}
	}

	result.SleepReceived = len(payload.SleepSessions)
	sessions, dropped := metrics.ParseSleepSessions(payload.SleepSessions)
	result.SleepDropped = dropped
	for _, s := range sessions {
		batch.Sleep = append(batch.Sleep, models.SleepSessionRow{
			UserID:        userID,
			Date:          sessionDate(s, loc),
			StartTime:     s.StartTime,
			EndTime:       s.EndTime,
			DurationHours: s.DurationHours,
		})
	}

	return batch, result
}

func metricRow(pt metrics.Point, kind metrics.Kind, userID int, activity string) (models.HealthMetricRow, bool) {
	row := models.HealthMetricRow{
		Time:         time.UnixMilli(pt.Epoch).UTC(),
		UserID:       userID,
		MetricName:   string(kind),
		ActivityType: activity,
	}
	if kind == metrics.KindBloodPressure {
		if !pt.IsBP() {
			return row, false
		}
		row.Systolic, row.Diastolic = pt.Systolic, pt.Diastolic
		return row, true
	}
	if pt.Value == nil {
		return row, false
	}
	row.Value = pt.Value
	return row, true
}

// sessionDate uses the session's own date when it parses, else the local day the
// session ended.
func sessionDate(s metrics.SleepSession, loc *time.Location) time.Time {
	if d, err := time.ParseInLocation(time.DateOnly, s.Date, time.UTC); err == nil {
		return d
	}
	end := s.EndTime.In(loc)
	return time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
}

// ConvertAnomalyReport turns a detector report into a storage row. The report date
// falls back to the local day of the first series window; a report with neither is
// invalid.
func ConvertAnomalyReport(payload *models.AnomalyReportPayload, userID int, loc *time.Location) (models.AnomalyReportRow, int, error) {
	if loc == nil {
		loc = time.UTC
	}
	series, dropped := metrics.ParseAnomalySeries(payload.Series)

	row := models.AnomalyReportRow{
		UserID:          userID,
		Status:          payload.Status,
		TotalRecords:    payload.TotalRecords,
		Anomalies:       payload.Anomalies,
		DataConfidence:  payload.DataConfidence,
		TopContributors: payload.TopContributors,
		Note:            payload.Note,
	}

	switch {
	case payload.Date != "":
		d, err := time.ParseInLocation(time.DateOnly, payload.Date, time.UTC)
		if err != nil {
			return row, dropped, fmt.Errorf("%w: date %q: %v", ErrInvalidPayload, payload.Date, err)
		}
		row.Date = d
	case len(series) > 0:
		first := time.UnixMilli(series[0].Epoch).In(loc)
		row.Date = time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return row, dropped, fmt.Errorf("%w: anomaly report needs a date or a series", ErrInvalidPayload)
	}

	digest := metrics.DigestAnomalies(series)
	if row.TotalRecords == 0 && len(series) > 0 {
		row.TotalRecords = digest.Total
		row.Anomalies = digest.Anomalies
	}
	if payload.PercentAnomalies.Finite() {
		row.PercentAnomalies = payload.PercentAnomalies.V
	} else if len(series) > 0 {
		row.PercentAnomalies = digest.Percent
	}
	if row.Status == "" {
		row.Status = metrics.StatusOK
		if row.PercentAnomalies > metrics.AlertPercent {
			row.Status = metrics.StatusAlert
		}
	}

	row.Series = make([]models.AnomalyPointRow, 0, len(series))
	for _, p := range series {
		row.Series = append(row.Series, models.AnomalyPointRow{
			Time:        time.UnixMilli(p.Epoch).UTC(),
			IsAnomaly:   p.IsAnomaly,
			HeartRate:   p.HeartRate,
			SpO2:        p.SpO2,
			SystolicBP:  p.SystolicBP,
			DiastolicBP: p.DiastolicBP,
		})
	}
	return row, dropped, nil
}
