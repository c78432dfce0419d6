package metrics

import (
	"math"
	"strings"
	"testing"
)

func vals(vs ...float64) []Point {
	points := make([]Point, 0, len(vs))
	for i, v := range vs {
		points = append(points, Point{Epoch: base + int64(i)*minutes(5), Value: &v})
	}
	return points
}

func bpPoint(epoch int64, sys, dia float64) Point {
	return Point{Epoch: epoch, Systolic: &sys, Diastolic: &dia}
}

// TestDescribeOrderIndependent verifies median, min and max do not depend on input order.
func TestDescribeOrderIndependent(t *testing.T) {
	for _, points := range [][]Point{vals(70, 80), vals(80, 70)} {
		st, ok := Describe(points)
		if !ok {
			t.Fatal("expected stats")
		}
		if st.Median != 75 || st.Min != 70 || st.Max != 80 {
			t.Errorf("stats = %+v, want median 75 min 70 max 80", st)
		}
	}
}

// TestDescribeIgnoresNonFinite verifies NaN, Inf and absent values are skipped.
func TestDescribeIgnoresNonFinite(t *testing.T) {
	points := append(vals(math.NaN(), math.Inf(1), 10), Point{Epoch: base})
	st, ok := Describe(points)
	if !ok || st.Count != 1 || st.Sum != 10 {
		t.Errorf("Describe = %+v, %v; want one value of 10", st, ok)
	}
}

// TestSummarizeByKind verifies each reducer's primary value and formatting.
func TestSummarizeByKind(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		points  []Point
		primary string
		unit    string
	}{
		{"steps rounded sum", KindSteps, vals(1000.4, 2000.4), "3001", "steps"},
		{"calories rounded sum", KindCalories, vals(250.2, 270.1), "520", "kcal"},
		{"distance two decimals", KindDistance, vals(1.234, 2), "3.23", "km"},
		{"sleep hours", KindSleep, vals(7, 0.5), "7.5 hrs", ""},
		{"stress rounded mean", KindStress, vals(2, 3), "3", "level"},
		{"heart rate even median", KindHeartRate, vals(70, 80), "75", "bpm"},
		{"heart rate odd median", KindHeartRate, vals(90, 70, 72), "72", "bpm"},
		{"heart rate even median rounds", KindHeartRate, vals(70, 71), "71", "bpm"},
		{"spo2 minimum", KindSpO2, vals(98, 96, 97), "96", "%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.points, tt.kind, "Today")
			if got.Primary != tt.primary {
				t.Errorf("primary = %q, want %q", got.Primary, tt.primary)
			}
			if got.Unit != tt.unit {
				t.Errorf("unit = %q, want %q", got.Unit, tt.unit)
			}
			if !strings.Contains(got.Subtitle, "Today") {
				t.Errorf("subtitle %q does not name the period", got.Subtitle)
			}
		})
	}
}

// TestSummarizeSpO2Subtitle verifies the average is reported next to the minimum.
func TestSummarizeSpO2Subtitle(t *testing.T) {
	got := Summarize(vals(98, 96, 97), KindSpO2, "Yesterday")
	if !strings.Contains(got.Subtitle, "avg 97%") {
		t.Errorf("subtitle = %q, want it to contain %q", got.Subtitle, "avg 97%")
	}
}

// TestSummarizeEmpty verifies every kind degrades to the no-data sentinel.
func TestSummarizeEmpty(t *testing.T) {
	for _, kind := range Kinds {
		for _, points := range [][]Point{nil, {{Epoch: base}}, vals(math.NaN())} {
			got := Summarize(points, kind, "Today")
			if got.Primary != NoData {
				t.Errorf("%s: primary = %q, want %q", kind, got.Primary, NoData)
			}
			if got.Value != nil {
				t.Errorf("%s: value = %v, want nil", kind, *got.Value)
			}
		}
	}
}

// TestSummarizeBloodPressure verifies the latest pair is primary and the average
// rounds each component on its own (82.5 rounds to 83).
func TestSummarizeBloodPressure(t *testing.T) {
	points := []Point{
		bpPoint(base+minutes(60), 130, 85),
		bpPoint(base, 120, 80),
	}
	got := Summarize(points, KindBloodPressure, "Today")
	if got.Primary != "130/85" {
		t.Errorf("primary = %q, want %q", got.Primary, "130/85")
	}
	if !strings.Contains(got.Subtitle, "avg 125/83") {
		t.Errorf("subtitle = %q, want it to contain %q", got.Subtitle, "avg 125/83")
	}
	if got.Unit != "mmHg" {
		t.Errorf("unit = %q, want mmHg", got.Unit)
	}
}

// TestLatestBPSkipsIncompletePairs verifies a later point with a single component
// does not displace the latest complete reading.
func TestLatestBPSkipsIncompletePairs(t *testing.T) {
	sys := 140.0
	points := []Point{
		bpPoint(base, 118, 78),
		{Epoch: base + minutes(10), Systolic: &sys},
	}
	got, ok := LatestBP(points)
	if !ok || got.String() != "118/78" {
		t.Errorf("LatestBP = %v, %v; want 118/78", got, ok)
	}
}

// TestRollup verifies the history rollup: sums for cumulative metrics, means for
// sampled ones, nil when a metric has no data.
func TestRollup(t *testing.T) {
	am := Rollup(map[Kind][]Point{
		KindSteps:         vals(1000, 2500),
		KindHeartRate:     vals(70, 71, 73),
		KindBloodPressure: {bpPoint(base, 120, 80), bpPoint(base+1, 125, 81)},
	})
	if am.Steps == nil || *am.Steps != 3500 {
		t.Errorf("steps = %v, want 3500", am.Steps)
	}
	if am.HeartRate == nil || *am.HeartRate != 71.33 {
		t.Errorf("heart_rate = %v, want 71.33", am.HeartRate)
	}
	if am.BloodPressure == nil || am.BloodPressure.Systolic != 122.5 || am.BloodPressure.Diastolic != 80.5 {
		t.Errorf("blood_pressure = %+v, want 122.5/80.5", am.BloodPressure)
	}
	if am.SpO2 != nil || am.Distance != nil {
		t.Error("metrics without data should be nil")
	}
}
