package metrics

import (
	"math"
	"testing"
	"time"
)

// TestCircularMeanStd verifies that times near midnight average correctly
// across the 24→0 boundary instead of producing the naive 12:00 result.
func TestCircularMeanStd(t *testing.T) {
	tests := []struct {
		name     string
		hours    []float64
		wantMean float64
	}{
		{"same time", []float64{22.0, 22.0, 22.0}, 22.0},
		{"around midnight", []float64{23.0, 1.0}, 0.0},
		{"morning cluster", []float64{7.0, 7.5, 8.0}, 7.5},
		{"evening cluster", []float64{22.0, 22.5, 23.0}, 22.5},
		{"empty", []float64{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, std := CircularMeanStd(tt.hours)
			diff := math.Abs(mean - tt.wantMean)
			if diff > 12 {
				diff = 24 - diff
			}
			if diff > 0.1 {
				t.Errorf("CircularMeanStd(%v) mean = %.2f, want %.2f", tt.hours, mean, tt.wantMean)
			}
			if tt.name == "same time" && std > 0.01 {
				t.Errorf("expected std ≈ 0 for identical times, got %.4f", std)
			}
			if tt.name == "morning cluster" && std <= 0 {
				t.Errorf("expected std > 0 for varied times, got %.4f", std)
			}
		})
	}
}

// TestHoursToHHMM verifies the fractional hours → "HH:MM" formatting.
func TestHoursToHHMM(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0.0, "00:00"},
		{7.5, "07:30"},
		{22.75, "22:45"},
		{23.0, "23:00"},
		{24.0, "00:00"},
		{23.9999, "00:00"},
		{-1.0, "23:00"},
	}

	for _, tt := range tests {
		if got := HoursToHHMM(tt.hours); got != tt.want {
			t.Errorf("HoursToHHMM(%.4f) = %q, want %q", tt.hours, got, tt.want)
		}
	}
}

// TestTimingLocal checks bed and wake times are reported in the given zone.
func TestTimingLocal(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+30*60)
	sessions := []SleepSession{
		{StartTime: time.Date(2024, 1, 1, 17, 30, 0, 0, time.UTC), EndTime: time.Date(2024, 1, 2, 1, 30, 0, 0, time.UTC)},
		{StartTime: time.Date(2024, 1, 2, 17, 30, 0, 0, time.UTC), EndTime: time.Date(2024, 1, 3, 1, 30, 0, 0, time.UTC)},
	}
	got, ok := Timing(sessions, loc)
	if !ok {
		t.Fatal("Timing returned ok=false")
	}
	if got.AvgBedtime != "23:00" || got.AvgWaketime != "07:00" {
		t.Errorf("bed/wake = %s/%s, want 23:00/07:00", got.AvgBedtime, got.AvgWaketime)
	}
	if got.Nights != 2 || got.BedtimeStdHr != 0 {
		t.Errorf("nights=%d std=%v, want 2 and 0", got.Nights, got.BedtimeStdHr)
	}

	if _, ok := Timing(nil, loc); ok {
		t.Error("Timing(nil) ok = true, want false")
	}
}
