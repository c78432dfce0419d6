package metrics

import (
	"cmp"
	"math"
	"slices"

	"github.com/claude/pulseboard/internal/models"
)

// AnomalyPoint is one window of the anomaly series.
type AnomalyPoint struct {
	Epoch       int64    `json:"epoch"`
	IsAnomaly   bool     `json:"is_anomaly"`
	HeartRate   *float64 `json:"heart_rate"`
	SpO2        *float64 `json:"spo2"`
	SystolicBP  *float64 `json:"systolic_bp"`
	DiastolicBP *float64 `json:"diastolic_bp"`
}

// Run is a maximal stretch of consecutive anomalous windows.
type Run struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// DetectRuns scans an epoch-sorted series and returns its anomalous runs in order.
// A run ends at the last anomalous point before the first normal one.
func DetectRuns(series []AnomalyPoint) []Run {
	runs := []Run{}
	inRun := false
	var start int64
	for i, p := range series {
		switch {
		case p.IsAnomaly && !inRun:
			inRun = true
			start = p.Epoch
		case !p.IsAnomaly && inRun:
			inRun = false
			runs = append(runs, Run{Start: start, End: series[i-1].Epoch})
		}
	}
	if inRun {
		runs = append(runs, Run{Start: start, End: series[len(series)-1].Epoch})
	}
	return runs
}

// ParseAnomalySeries parses and sorts the detector's series. Windows whose
// timestamp cannot be parsed are dropped. is_anomaly is true only when it equals 1.
func ParseAnomalySeries(raw []models.AnomalyPointPayload) (series []AnomalyPoint, dropped int) {
	series = make([]AnomalyPoint, 0, len(raw))
	for _, r := range raw {
		epoch, ok := ParseEpoch(r.Timestamp)
		if !ok {
			dropped++
			continue
		}
		series = append(series, AnomalyPoint{
			Epoch:       epoch,
			IsAnomaly:   r.IsAnomaly.Finite() && r.IsAnomaly.V == 1,
			HeartRate:   r.HeartRate.Ptr(),
			SpO2:        r.SpO2.Ptr(),
			SystolicBP:  r.SystolicBP.Ptr(),
			DiastolicBP: r.DiastolicBP.Ptr(),
		})
	}
	slices.SortStableFunc(series, func(a, b AnomalyPoint) int {
		return cmp.Compare(a.Epoch, b.Epoch)
	})
	return series, dropped
}

// AlertPercent is the anomaly share above which a day is flagged.
const AlertPercent = 20.0

// Anomaly statuses.
const (
	StatusAlert = "alert"
	StatusOK    = "ok"
)

// Digest summarizes how much of a day was anomalous.
type Digest struct {
	Total     int     `json:"total_records"`
	Anomalies int     `json:"anomalies"`
	Percent   float64 `json:"percent_anomalies"`
	Status    string  `json:"status"`
	Donut     []Slice `json:"donut"`
}

// Slice is one segment of the anomaly-rate donut.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// DigestAnomalies counts anomalous windows. Percent is rounded to two decimals and
// the day is an alert when it exceeds AlertPercent.
func DigestAnomalies(series []AnomalyPoint) Digest {
	d := Digest{Total: len(series), Status: StatusOK}
	for _, p := range series {
		if p.IsAnomaly {
			d.Anomalies++
		}
	}
	if d.Total > 0 {
		d.Percent = math.Round(float64(d.Anomalies)/float64(d.Total)*100*100) / 100
	}
	if d.Percent > AlertPercent {
		d.Status = StatusAlert
	}
	d.Donut = DonutSlices(d.Percent)
	return d
}

// DonutSlices splits 100% into anomalous and normal shares, clamping the input.
func DonutSlices(percent float64) []Slice {
	if !isFinite(percent) {
		percent = 0
	}
	p := math.Max(0, math.Min(100, percent))
	return []Slice{
		{Name: "Anomalies", Value: p},
		{Name: "Normal", Value: 100 - p},
	}
}
