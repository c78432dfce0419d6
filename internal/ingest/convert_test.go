package ingest

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/claude/pulseboard/internal/models"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

func decodePayload(t *testing.T, body string) *models.IngestPayload {
	t.Helper()
	var p models.IngestPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	return &p
}

// TestConvertPayloadScalarsAndBP verifies scalar and blood pressure readings become
// rows sorted by time and that unparseable readings are counted, not stored.
func TestConvertPayloadScalarsAndBP(t *testing.T) {
	p := decodePayload(t, `{
		"user_email": "a@b.c",
		"activity_type": "walking",
		"metrics": {
			"heart_rate": [
				{"timestamp": "2024-01-01T10:10:00Z", "value": 80},
				{"timestamp": "2024-01-01T10:00:00Z", "value": "72"},
				{"timestamp": "garbage", "value": 90}
			],
			"blood_pressure": [
				{"time": 1704103200000, "systolic": 120, "diastolic": 80},
				{"time": 1704103500000, "systolic": 130}
			]
		}
	}`)

	batch, res := ConvertPayload(p, 7, ist)

	if res.PointsReceived != 5 {
		t.Errorf("received = %d, want 5", res.PointsReceived)
	}
	if res.PointsDropped != 2 {
		t.Errorf("dropped = %d, want 2", res.PointsDropped)
	}
	if len(batch.Metrics) != 3 {
		t.Fatalf("rows = %d, want 3", len(batch.Metrics))
	}

	bp := batch.Metrics[0]
	if bp.MetricName != "blood_pressure" || *bp.Systolic != 120 || *bp.Diastolic != 80 || bp.Value != nil {
		t.Errorf("bp row = %+v", bp)
	}
	hr := batch.Metrics[1]
	if hr.MetricName != "heart_rate" || *hr.Value != 72 {
		t.Errorf("first hr row = %+v, want value 72", hr)
	}
	if !hr.Time.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("first hr time = %v", hr.Time)
	}
	for _, r := range batch.Metrics {
		if r.UserID != 7 || r.ActivityType != "walking" {
			t.Errorf("row user/activity = %d/%q", r.UserID, r.ActivityType)
		}
	}
}

// TestConvertPayloadRejectsUnknownMetrics verifies that names outside the dashboard
// metrics are reported and not counted as received points.
func TestConvertPayloadRejectsUnknownMetrics(t *testing.T) {
	p := decodePayload(t, `{
		"metrics": {
			"vo2_max": [{"timestamp": "2024-01-01T10:00:00Z", "value": 40}],
			"steps": [{"timestamp": "2024-01-01T10:00:00Z", "value": 500}]
		}
	}`)

	batch, res := ConvertPayload(p, 1, ist)
	if len(res.RejectedNames) != 1 || res.RejectedNames[0] != "vo2_max" {
		t.Errorf("rejected = %v, want [vo2_max]", res.RejectedNames)
	}
	if res.PointsReceived != 1 || len(batch.Metrics) != 1 {
		t.Errorf("received=%d rows=%d, want 1 and 1", res.PointsReceived, len(batch.Metrics))
	}
}

// TestConvertPayloadSleep verifies sleep sessions keep their date, derive a missing
// one from the local end day, and drop inverted intervals.
func TestConvertPayloadSleep(t *testing.T) {
	p := decodePayload(t, `{
		"sleep_sessions": [
			{"date": "2024-01-02", "start_time": "2024-01-01T17:30:00Z", "end_time": "2024-01-02T01:30:00Z", "duration_hours": 8},
			{"start_time": "2024-01-02T17:30:00Z", "end_time": "2024-01-02T19:00:00Z"},
			{"start_time": "2024-01-03T10:00:00Z", "end_time": "2024-01-03T09:00:00Z"}
		]
	}`)

	batch, res := ConvertPayload(p, 1, ist)
	if res.SleepReceived != 3 || res.SleepDropped != 1 {
		t.Errorf("sleep received/dropped = %d/%d, want 3/1", res.SleepReceived, res.SleepDropped)
	}
	if len(batch.Sleep) != 2 {
		t.Fatalf("sleep rows = %d, want 2", len(batch.Sleep))
	}
	if got := batch.Sleep[0].Date.Format(time.DateOnly); got != "2024-01-02" {
		t.Errorf("first date = %s", got)
	}
	// 19:00Z is 00:30 IST on Jan 3.
	if got := batch.Sleep[1].Date.Format(time.DateOnly); got != "2024-01-03" {
		t.Errorf("derived date = %s, want 2024-01-03", got)
	}
	if batch.Sleep[1].DurationHours != 1.5 {
		t.Errorf("derived duration = %v, want 1.5", batch.Sleep[1].DurationHours)
	}
}

// TestConvertAnomalyReport verifies the series is parsed and sorted and that missing
// totals and status are filled from the series.
func TestConvertAnomalyReport(t *testing.T) {
	var p models.AnomalyReportPayload
	body := `{
		"date": "2024-01-01",
		"series": [
			{"timestamp": "2024-01-01T10:10:00Z", "is_anomaly": 1, "heart_rate": 120},
			{"timestamp": "2024-01-01T10:00:00Z", "is_anomaly": 0, "heart_rate": 70},
			{"timestamp": "bad", "is_anomaly": 1}
		]
	}`
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatal(err)
	}

	row, dropped, err := ConvertAnomalyReport(&p, 3, ist)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if row.TotalRecords != 2 || row.Anomalies != 1 || row.PercentAnomalies != 50 {
		t.Errorf("totals = %d/%d/%v, want 2/1/50", row.TotalRecords, row.Anomalies, row.PercentAnomalies)
	}
	if row.Status != "alert" {
		t.Errorf("status = %q, want alert", row.Status)
	}
	if len(row.Series) != 2 || row.Series[0].IsAnomaly || !row.Series[1].IsAnomaly {
		t.Errorf("series = %+v", row.Series)
	}
}

// TestConvertAnomalyReportDates verifies the date fallback and the invalid cases.
func TestConvertAnomalyReportDates(t *testing.T) {
	fromSeries := &models.AnomalyReportPayload{
		Series: []models.AnomalyPointPayload{{Timestamp: models.TextStamp("2024-01-01T20:00:00Z")}},
	}
	row, _, err := ConvertAnomalyReport(fromSeries, 1, ist)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := row.Date.Format(time.DateOnly); got != "2024-01-02" {
		t.Errorf("date = %s, want 2024-01-02 (local day of first window)", got)
	}

	for name, p := range map[string]*models.AnomalyReportPayload{
		"no date or series": {},
		"bad date":          {Date: "01/02/2024"},
	} {
		if _, _, err := ConvertAnomalyReport(p, 1, ist); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("%s: err = %v, want ErrInvalidPayload", name, err)
		}
	}
}
