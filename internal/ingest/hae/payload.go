package hae

import (
	"encoding/json"
	"fmt"
	"time"
)

// Time handles the Health Auto Export date format "2006-01-02 15:04:05 -0700" and
// the date-only form used in aggregated sleep data.
type Time struct {
	time.Time
}

// TimeLayout is the format Health Auto Export writes timestamps in.
const TimeLayout = "2006-01-02 15:04:05 -0700"

func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return t.Parse(s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimeLayout))
}

// Parse tries the full datetime layout first, then date-only.
func (t *Time) Parse(s string) error {
	parsed, err := time.Parse(TimeLayout, s)
	if err == nil {
		t.Time = parsed
		return nil
	}
	if parsed, err2 := time.Parse(time.DateOnly, s); err2 == nil {
		t.Time = parsed
		return nil
	}
	return fmt.Errorf("cannot parse HAE time %q: %w", s, err)
}

// Payload is the top-level REST API JSON structure.
type Payload struct {
	Data Data `json:"data"`
}

// Data holds the exported metrics. Workouts are not read.
type Data struct {
	Metrics []Metric `json:"metrics"`
}

// Metric is a single metric entry with name, units, and data points.
type Metric struct {
	Name  string            `json:"name"`
	Units string            `json:"units"`
	Data  []json.RawMessage `json:"data"`
}

// QtyPoint is a standard metric data point.
type QtyPoint struct {
	Date Time    `json:"date"`
	Qty  float64 `json:"qty"`
}

// HeartRatePoint has Min/Avg/Max fields (capitalized in HAE JSON).
type HeartRatePoint struct {
	Date Time    `json:"date"`
	Min  float64 `json:"Min"`
	Avg  float64 `json:"Avg"`
	Max  float64 `json:"Max"`
}

// BloodPressurePoint has systolic/diastolic fields.
type BloodPressurePoint struct {
	Date      Time    `json:"date"`
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
}

// SleepAggregated is a nightly sleep summary (Summarize Data: ON).
type SleepAggregated struct {
	Date       string  `json:"date"`
	TotalSleep float64 `json:"totalSleep"`
	Asleep     float64 `json:"asleep"`
	InBed      float64 `json:"inBed"`
	SleepStart Time    `json:"sleepStart"`
	SleepEnd   Time    `json:"sleepEnd"`
}

// SleepStage is an individual sleep stage segment (Summarize Data: OFF).
type SleepStage struct {
	StartDate Time    `json:"startDate"`
	EndDate   Time    `json:"endDate"`
	Qty       float64 `json:"qty"`
	Value     string  `json:"value"`
}
