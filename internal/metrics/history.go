package metrics

import "math"

// BPAverage holds component means rounded to two decimals.
type BPAverage struct {
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
}

// AverageMetrics is the range-level rollup returned alongside history: totals for
// cumulative metrics and means for sampled ones, each rounded to two decimals.
type AverageMetrics struct {
	HeartRate     *float64   `json:"heart_rate"`
	SpO2          *float64   `json:"spo2"`
	Stress        *float64   `json:"stress"`
	Steps         *float64   `json:"steps"`
	Calories      *float64   `json:"calories"`
	Distance      *float64   `json:"distance"`
	BloodPressure *BPAverage `json:"blood_pressure"`
}

// Rollup computes AverageMetrics from per-metric series.
func Rollup(series map[Kind][]Point) AverageMetrics {
	var am AverageMetrics
	am.HeartRate = meanOf(series[KindHeartRate])
	am.SpO2 = meanOf(series[KindSpO2])
	am.Stress = meanOf(series[KindStress])
	am.Steps = sumOf(series[KindSteps])
	am.Calories = sumOf(series[KindCalories])
	am.Distance = sumOf(series[KindDistance])

	var sys, dia float64
	n := 0
	for _, p := range series[KindBloodPressure] {
		if bpFinite(p) {
			sys += *p.Systolic
			dia += *p.Diastolic
			n++
		}
	}
	if n > 0 {
		am.BloodPressure = &BPAverage{
			Systolic:  round2(sys / float64(n)),
			Diastolic: round2(dia / float64(n)),
		}
	}
	return am
}

func meanOf(points []Point) *float64 {
	st, ok := Describe(points)
	if !ok {
		return nil
	}
	v := round2(st.Mean)
	return &v
}

func sumOf(points []Point) *float64 {
	st, ok := Describe(points)
	if !ok {
		return nil
	}
	v := round2(st.Sum)
	return &v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
