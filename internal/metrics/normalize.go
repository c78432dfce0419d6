package metrics

import (
	"cmp"
	"slices"
	"time"

	"github.com/claude/pulseboard/internal/models"
)

// DefaultGapThreshold is the largest distance between two plotted readings that a
// line is drawn across.
const DefaultGapThreshold = 60 * time.Minute

// DefaultMaxTicks caps the number of x-axis ticks.
const DefaultMaxTicks = 5

// Normalized is a chart-ready series.
type Normalized struct {
	Series       []Point `json:"series"`
	IsBP         bool    `json:"is_bp"`
	HasValue     bool    `json:"has_value"`
	HasSystolic  bool    `json:"has_systolic"`
	HasDiastolic bool    `json:"has_diastolic"`
	Ticks        []int64 `json:"ticks"`
	// Dropped counts input points discarded for a missing or unparseable timestamp.
	Dropped int `json:"dropped"`
}

type normalizeOptions struct {
	gap      time.Duration
	maxTicks int
}

// Option adjusts Normalize.
type Option func(*normalizeOptions)

// WithGapThreshold sets the gap above which a line break is inserted.
func WithGapThreshold(d time.Duration) Option {
	return func(o *normalizeOptions) {
		if d > 0 {
			o.gap = d
		}
	}
}

// WithMaxTicks sets the tick cap.
func WithMaxTicks(n int) Option {
	return func(o *normalizeOptions) {
		if n > 0 {
			o.maxTicks = n
		}
	}
}

// Normalize turns raw readings into a time-sorted series with gap breaks and axis ticks.
// Points without a usable timestamp are dropped and counted, never reported as errors.
func Normalize(raw []models.RawPoint, opts ...Option) Normalized {
	o := normalizeOptions{gap: DefaultGapThreshold, maxTicks: DefaultMaxTicks}
	for _, opt := range opts {
		opt(&o)
	}

	out := Normalized{Series: []Point{}, Ticks: []int64{}}
	points, dropped := ParsePoints(raw)
	out.Dropped = dropped
	if len(points) == 0 {
		return out
	}

	for _, p := range points {
		if p.Value != nil {
			out.HasValue = true
		}
		if p.Systolic != nil {
			out.HasSystolic = true
		}
		if p.Diastolic != nil {
			out.HasDiastolic = true
		}
		if p.IsBP() {
			out.IsBP = true
		}
	}

	if out.IsBP {
		out.Series = points
	} else {
		out.Series = insertGapBreaks(points, o.gap.Milliseconds())
	}
	out.Ticks = BuildTicks(points[0].Epoch, points[len(points)-1].Epoch, o.maxTicks)
	return out
}

// ParsePoints converts raw readings to Points sorted by epoch. Input order is kept
// for equal epochs.
func ParsePoints(raw []models.RawPoint) (points []Point, dropped int) {
	points = make([]Point, 0, len(raw))
	for _, r := range raw {
		stamp, ok := r.When()
		if !ok {
			dropped++
			continue
		}
		epoch, ok := ParseEpoch(stamp)
		if !ok {
			dropped++
			continue
		}
		points = append(points, Point{
			Epoch:     epoch,
			Value:     r.Value.Ptr(),
			Systolic:  r.Systolic.Ptr(),
			Diastolic: r.Diastolic.Ptr(),
		})
	}
	slices.SortStableFunc(points, func(a, b Point) int {
		return cmp.Compare(a.Epoch, b.Epoch)
	})
	return points, dropped
}

// insertGapBreaks adds a null point one millisecond after any plotted reading whose
// successor is further away than gapMs. Existing null points already break the
// line, so no break is added next to one.
func insertGapBreaks(points []Point, gapMs int64) []Point {
	out := make([]Point, 0, len(points))
	for i, cur := range points {
		out = append(out, cur)
		if i+1 == len(points) {
			break
		}
		next := points[i+1]
		if cur.IsNull() || next.IsNull() {
			continue
		}
		if next.Epoch-cur.Epoch > gapMs {
			out = append(out, Point{Epoch: cur.Epoch + 1})
		}
	}
	return out
}
