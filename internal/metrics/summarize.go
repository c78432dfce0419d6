package metrics

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// NoData is the primary value shown when a period has no usable readings.
const NoData = "--"

// Summary is the content of one metric card.
type Summary struct {
	Metric   Kind     `json:"metric"`
	Title    string   `json:"title"`
	Primary  string   `json:"primary"`
	Value    *float64 `json:"value,omitempty"`
	Unit     string   `json:"unit"`
	Subtitle string   `json:"subtitle"`
}

// Stats describes the finite values of a series.
type Stats struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Values returns the finite scalar values of the points in order.
func Values(points []Point) []float64 {
	vals := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Value != nil && isFinite(*p.Value) {
			vals = append(vals, *p.Value)
		}
	}
	return vals
}

// Describe computes summary statistics over the finite scalar values. ok is false
// when there are none.
func Describe(points []Point) (Stats, bool) {
	return describeValues(Values(points))
}

func describeValues(vals []float64) (Stats, bool) {
	if len(vals) == 0 {
		return Stats{}, false
	}
	sorted := slices.Clone(vals)
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	s := Stats{
		Count: len(sorted),
		Sum:   sum,
		Mean:  sum / float64(len(sorted)),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		s.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		s.Median = sorted[mid]
	}
	return s, true
}

// Summarize reduces a period's readings to a card. Blood pressure uses the
// systolic/diastolic pairs; every other metric uses scalar values.
func Summarize(points []Point, kind Kind, periodLabel string) Summary {
	sum := Summary{
		Metric:  kind,
		Title:   kind.Title(),
		Primary: NoData,
		Unit:    kind.Unit(),
	}

	if kind == KindBloodPressure {
		summarizeBP(&sum, points, periodLabel)
		return sum
	}

	st, ok := Describe(points)
	if !ok {
		return sum
	}

	switch kind {
	case KindSteps, KindCalories:
		v := math.Round(st.Sum)
		sum.setValue(v, formatInt(v))
		sum.Subtitle = fmt.Sprintf("Total · %s", periodLabel)
	case KindDistance:
		sum.setValue(st.Sum, strconv.FormatFloat(st.Sum, 'f', 2, 64))
		sum.Subtitle = fmt.Sprintf("Total · %s", periodLabel)
	case KindSleep:
		sum.setValue(st.Sum, strconv.FormatFloat(st.Sum, 'f', 1, 64)+" hrs")
		sum.Unit = ""
		sum.Subtitle = fmt.Sprintf("Total sleep · %s", periodLabel)
	case KindStress:
		v := math.Round(st.Mean)
		sum.setValue(v, formatInt(v))
		sum.Subtitle = fmt.Sprintf("Average · %s", periodLabel)
	case KindHeartRate:
		v := math.Round(st.Median)
		sum.setValue(v, formatInt(v))
		sum.Subtitle = fmt.Sprintf("Median of %d readings · %s", st.Count, periodLabel)
	case KindSpO2:
		sum.setValue(st.Min, formatNumber(st.Min))
		sum.Subtitle = fmt.Sprintf("Lowest · avg %s%% · %s", formatInt(math.Round(st.Mean)), periodLabel)
	default:
		sum.setValue(st.Mean, formatNumber(st.Mean))
		sum.Subtitle = fmt.Sprintf("Average · %s", periodLabel)
	}
	return sum
}

// BPReading is a systolic/diastolic pair.
type BPReading struct {
	Epoch     int64   `json:"epoch"`
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
}

// String formats the reading as "S/D" with whole numbers.
func (r BPReading) String() string {
	return formatInt(math.Round(r.Systolic)) + "/" + formatInt(math.Round(r.Diastolic))
}

// LatestBP returns the pair with the greatest epoch. Among equal epochs the later
// input wins.
func LatestBP(points []Point) (BPReading, bool) {
	var latest BPReading
	found := false
	for _, p := range points {
		if !bpFinite(p) {
			continue
		}
		if !found || p.Epoch >= latest.Epoch {
			latest = BPReading{Epoch: p.Epoch, Systolic: *p.Systolic, Diastolic: *p.Diastolic}
			found = true
		}
	}
	return latest, found
}

// AverageBP averages each component over the complete pairs and rounds each
// component independently.
func AverageBP(points []Point) (BPReading, bool) {
	var sys, dia float64
	n := 0
	for _, p := range points {
		if !bpFinite(p) {
			continue
		}
		sys += *p.Systolic
		dia += *p.Diastolic
		n++
	}
	if n == 0 {
		return BPReading{}, false
	}
	return BPReading{
		Systolic:  math.Round(sys / float64(n)),
		Diastolic: math.Round(dia / float64(n)),
	}, true
}

func summarizeBP(sum *Summary, points []Point, periodLabel string) {
	latest, ok := LatestBP(points)
	if !ok {
		return
	}
	sum.Primary = latest.String()
	avg, _ := AverageBP(points)
	sum.Subtitle = fmt.Sprintf("Latest · avg %s · %s", avg, periodLabel)
}

func (s *Summary) setValue(v float64, primary string) {
	s.Value = &v
	s.Primary = primary
}

func bpFinite(p Point) bool {
	return p.Systolic != nil && p.Diastolic != nil && isFinite(*p.Systolic) && isFinite(*p.Diastolic)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatInt(v float64) string {
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// formatNumber prints whole numbers without decimals and anything else with one.
func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return formatInt(v)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
