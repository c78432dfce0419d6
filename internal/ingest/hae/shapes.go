package hae

import "encoding/json"

// Shape describes the data point structure of a metric.
type Shape int

const (
	ShapeQty           Shape = iota // {"qty": N}
	ShapeMinAvgMax                  // heart rate: {"Min": N, "Avg": N, "Max": N}
	ShapeBloodPressure              // {"systolic": N, "diastolic": N}
)

// DetectShape returns the data point shape for an HAE metric name.
func DetectShape(name string) Shape {
	switch name {
	case "heart_rate":
		return ShapeMinAvgMax
	case "blood_pressure":
		return ShapeBloodPressure
	default:
		return ShapeQty
	}
}

// SleepFormat tells nightly summaries apart from per-stage segments.
type SleepFormat int

const (
	SleepAggregatedFormat SleepFormat = iota // has "totalSleep"
	SleepStagesFormat                        // has "startDate"
)

// DetectSleepFormat inspects a raw sleep data point for its distinguishing keys.
func DetectSleepFormat(raw json.RawMessage) SleepFormat {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return SleepAggregatedFormat
	}
	if _, ok := keys["totalSleep"]; ok {
		return SleepAggregatedFormat
	}
	if _, ok := keys["startDate"]; ok {
		return SleepStagesFormat
	}
	return SleepAggregatedFormat
}
