package metrics

import "github.com/claude/pulseboard/internal/models"

// Point is a reading with a parsed epoch. A Point with no value and no
// systolic/diastolic pair is a gap break.
type Point struct {
	Epoch     int64    `json:"epoch"`
	Value     *float64 `json:"value"`
	Systolic  *float64 `json:"systolic,omitempty"`
	Diastolic *float64 `json:"diastolic,omitempty"`
}

// IsBP reports whether the point carries both blood pressure components.
func (p Point) IsBP() bool {
	return p.Systolic != nil && p.Diastolic != nil
}

// IsNull reports whether the point has nothing to plot.
func (p Point) IsNull() bool {
	return p.Value == nil && p.Systolic == nil && p.Diastolic == nil
}

// Raw converts the point back to its wire shape with a numeric timestamp.
func (p Point) Raw() models.RawPoint {
	return models.RawPoint{
		Timestamp: models.EpochStamp(p.Epoch),
		Value:     models.NumberFromPtr(p.Value),
		Systolic:  models.NumberFromPtr(p.Systolic),
		Diastolic: models.NumberFromPtr(p.Diastolic),
	}
}

// Kind names a dashboard metric. Values match the API's metric keys.
type Kind string

const (
	KindHeartRate     Kind = "heart_rate"
	KindSpO2          Kind = "spo2"
	KindBloodPressure Kind = "blood_pressure"
	KindSleep         Kind = "sleep"
	KindStress        Kind = "stress"
	KindSteps         Kind = "steps"
	KindCalories      Kind = "calories"
	KindDistance      Kind = "distance"
)

// Kinds lists every metric in card display order.
var Kinds = []Kind{
	KindHeartRate,
	KindSpO2,
	KindBloodPressure,
	KindSleep,
	KindStress,
	KindSteps,
	KindCalories,
	KindDistance,
}

var units = map[Kind]string{
	KindHeartRate:     "bpm",
	KindSpO2:          "%",
	KindBloodPressure: "mmHg",
	KindSleep:         "",
	KindStress:        "level",
	KindSteps:         "steps",
	KindCalories:      "kcal",
	KindDistance:      "km",
}

// ParseKind validates a metric name.
func ParseKind(name string) (Kind, bool) {
	k := Kind(name)
	_, ok := units[k]
	return k, ok
}

// Unit returns the display unit for the metric.
func (k Kind) Unit() string {
	return units[k]
}

// Title returns a human-readable metric name.
func (k Kind) Title() string {
	switch k {
	case KindHeartRate:
		return "Heart Rate"
	case KindSpO2:
		return "SpO₂"
	case KindBloodPressure:
		return "Blood Pressure"
	case KindSleep:
		return "Sleep"
	case KindStress:
		return "Stress"
	case KindSteps:
		return "Steps"
	case KindCalories:
		return "Calories"
	case KindDistance:
		return "Distance"
	}
	return string(k)
}
