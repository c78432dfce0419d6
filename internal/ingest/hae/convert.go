package hae

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/claude/pulseboard/internal/models"
)

// SleepMetric is the HAE metric carrying sleep data.
const SleepMetric = "sleep_analysis"

// stageGap is the longest pause between stage segments of one night.
const stageGap = time.Hour

// metricNames maps HAE metric names onto catalog metric names.
var metricNames = map[string]string{
	"heart_rate":               "heart_rate",
	"blood_oxygen_saturation":  "spo2",
	"blood_pressure":           "blood_pressure",
	"step_count":               "steps",
	"active_energy":            "calories",
	"walking_running_distance": "distance",
}

var errNoDate = errors.New("missing date")

// Convert turns an HAE export into an ingest payload for email. Metrics with no
// catalog equivalent keep their HAE name so ingest reports them as rejected.
// skipped counts data points that could not be decoded.
func Convert(p *Payload, email string) (payload *models.IngestPayload, skipped int) {
	payload = &models.IngestPayload{
		UserEmail: email,
		Metrics:   map[string][]models.RawPoint{},
	}
	for _, m := range p.Data.Metrics {
		if m.Name == SleepMetric {
			sessions, bad := convertSleep(m.Data)
			payload.SleepSessions = append(payload.SleepSessions, sessions...)
			skipped += bad
			continue
		}
		name := m.Name
		if mapped, ok := metricNames[name]; ok {
			name = mapped
		}
		for _, raw := range m.Data {
			pt, err := convertPoint(m.Name, m.Units, raw)
			if err != nil {
				skipped++
				continue
			}
			payload.Metrics[name] = append(payload.Metrics[name], pt)
		}
	}
	return payload, skipped
}

func convertPoint(name, units string, raw json.RawMessage) (models.RawPoint, error) {
	switch DetectShape(name) {
	case ShapeMinAvgMax:
		var dp HeartRatePoint
		if err := json.Unmarshal(raw, &dp); err != nil {
			return models.RawPoint{}, fmt.Errorf("parsing min/avg/max: %w", err)
		}
		if dp.Date.IsZero() {
			return models.RawPoint{}, errNoDate
		}
		return models.RawPoint{Timestamp: stamp(dp.Date), Value: models.NewNumber(dp.Avg)}, nil

	case ShapeBloodPressure:
		var dp BloodPressurePoint
		if err := json.Unmarshal(raw, &dp); err != nil {
			return models.RawPoint{}, fmt.Errorf("parsing blood pressure: %w", err)
		}
		if dp.Date.IsZero() {
			return models.RawPoint{}, errNoDate
		}
		return models.RawPoint{
			Timestamp: stamp(dp.Date),
			Systolic:  models.NewNumber(dp.Systolic),
			Diastolic: models.NewNumber(dp.Diastolic),
		}, nil

	default:
		var dp QtyPoint
		if err := json.Unmarshal(raw, &dp); err != nil {
			return models.RawPoint{}, fmt.Errorf("parsing qty: %w", err)
		}
		if dp.Date.IsZero() {
			return models.RawPoint{}, errNoDate
		}
		return models.RawPoint{Timestamp: stamp(dp.Date), Value: models.NewNumber(toCatalogUnit(name, units, dp.Qty))}, nil
	}
}

// toCatalogUnit converts HAE quantities into the catalog's units: SpO2 in
// percent, energy in kcal, distance in km.
func toCatalogUnit(name, units string, v float64) float64 {
	units = strings.ToLower(units)
	switch name {
	case "blood_oxygen_saturation":
		if v <= 1 {
			return v * 100
		}
	case "active_energy":
		if units == "kj" {
			return v / 4.184
		}
	case "walking_running_distance":
		switch units {
		case "mi":
			return v * 1.609344
		case "m":
			return v / 1000
		}
	}
	return v
}

// convertSleep reads nightly summaries directly and folds per-stage segments
// into sessions, starting a new session after a pause longer than stageGap.
func convertSleep(data []json.RawMessage) (sessions []models.SleepSessionPayload, skipped int) {
	var stages []SleepStage
	for _, raw := range data {
		switch DetectSleepFormat(raw) {
		case SleepStagesFormat:
			var st SleepStage
			if err := json.Unmarshal(raw, &st); err != nil || st.StartDate.IsZero() || st.EndDate.Before(st.StartDate.Time) {
				skipped++
				continue
			}
			stages = append(stages, st)
		default:
			var dp SleepAggregated
			if err := json.Unmarshal(raw, &dp); err != nil || dp.SleepStart.IsZero() || dp.SleepEnd.IsZero() {
				skipped++
				continue
			}
			hours := dp.TotalSleep
			if hours <= 0 {
				hours = dp.Asleep
			}
			sessions = append(sessions, models.SleepSessionPayload{
				Date:          dp.Date,
				StartTime:     stamp(dp.SleepStart),
				EndTime:       stamp(dp.SleepEnd),
				DurationHours: models.NewNumber(hours),
			})
		}
	}
	return append(sessions, sessionsFromStages(stages)...), skipped
}

func sessionsFromStages(stages []SleepStage) []models.SleepSessionPayload {
	slices.SortFunc(stages, func(a, b SleepStage) int {
		return a.StartDate.Compare(b.StartDate.Time)
	})

	var out []models.SleepSessionPayload
	var start, end Time
	var asleep time.Duration
	flush := func() {
		if asleep > 0 {
			out = append(out, models.SleepSessionPayload{
				StartTime:     stamp(start),
				EndTime:       stamp(end),
				DurationHours: models.NewNumber(asleep.Hours()),
			})
		}
		asleep = 0
	}
	for i, st := range stages {
		if i == 0 || st.StartDate.Sub(end.Time) > stageGap {
			if i > 0 {
				flush()
			}
			start = st.StartDate
			end = st.EndDate
		}
		if st.EndDate.After(end.Time) {
			end = st.EndDate
		}
		if stage, _ := NormalizeStage(st.Value); isAsleep(stage) {
			asleep += st.EndDate.Sub(st.StartDate.Time)
		}
	}
	if len(stages) > 0 {
		flush()
	}
	return out
}

func stamp(t Time) models.Stamp {
	return models.TextStamp(t.Format(TimeLayout))
}
