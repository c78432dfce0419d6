package metrics

import (
	"fmt"
	"math"
	"time"
)

// SleepTiming is the typical bedtime and waketime of a set of sleep sessions.
type SleepTiming struct {
	Nights        int     `json:"nights"`
	AvgBedtime    string  `json:"avg_bedtime"`
	AvgWaketime   string  `json:"avg_waketime"`
	BedtimeStdHr  float64 `json:"bedtime_consistency_stddev_hr"`
	WaketimeStdHr float64 `json:"waketime_consistency_stddev_hr"`
}

// Timing computes circular mean bed and wake times in loc. ok is false for no sessions.
func Timing(sessions []SleepSession, loc *time.Location) (SleepTiming, bool) {
	if len(sessions) == 0 {
		return SleepTiming{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	bed := make([]float64, 0, len(sessions))
	wake := make([]float64, 0, len(sessions))
	for _, s := range sessions {
		bed = append(bed, HourOfDay(s.StartTime.In(loc)))
		wake = append(wake, HourOfDay(s.EndTime.In(loc)))
	}
	avgBed, stdBed := CircularMeanStd(bed)
	avgWake, stdWake := CircularMeanStd(wake)
	return SleepTiming{
		Nights:        len(sessions),
		AvgBedtime:    HoursToHHMM(avgBed),
		AvgWaketime:   HoursToHHMM(avgWake),
		BedtimeStdHr:  round2(stdBed),
		WaketimeStdHr: round2(stdWake),
	}, true
}

// HourOfDay extracts the fractional hour of day from t in its own location.
func HourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60.0 + float64(t.Second())/3600.0
}

// CircularMeanStd computes the circular mean and standard deviation for times
// expressed as hours (0–24). 23:00 and 01:00 average to 00:00, not 12:00.
func CircularMeanStd(hours []float64) (mean, std float64) {
	if len(hours) == 0 {
		return 0, 0
	}

	var sinSum, cosSum float64
	for _, h := range hours {
		rad := h / 24.0 * 2 * math.Pi
		sinSum += math.Sin(rad)
		cosSum += math.Cos(rad)
	}

	n := float64(len(hours))
	sinAvg := sinSum / n
	cosAvg := cosSum / n

	meanRad := math.Atan2(sinAvg, cosAvg)
	if meanRad < 0 {
		meanRad += 2 * math.Pi
	}
	mean = meanRad / (2 * math.Pi) * 24.0

	r := math.Min(math.Sqrt(sinAvg*sinAvg+cosAvg*cosAvg), 1)
	if r > 0 {
		std = math.Sqrt(-2*math.Log(r)) / (2 * math.Pi) * 24.0
	}
	return mean, std
}

// HoursToHHMM formats fractional hours as "HH:MM", wrapping at 24.
func HoursToHHMM(h float64) string {
	h = math.Mod(h, 24)
	if h < 0 {
		h += 24
	}
	hours := int(h)
	minutes := int(math.Round((h - float64(hours)) * 60))
	if minutes == 60 {
		hours++
		minutes = 0
	}
	if hours >= 24 {
		hours -= 24
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}
