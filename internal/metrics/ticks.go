package metrics

const msPerHour = int64(60 * 60 * 1000)

// TickStepHours picks the tick spacing for a time range given in milliseconds.
func TickStepHours(rangeMs int64) int64 {
	switch {
	case rangeMs <= 3*msPerHour:
		return 1
	case rangeMs <= 12*msPerHour:
		return 2
	case rangeMs <= 24*msPerHour:
		return 4
	default:
		return 12
	}
}

// BuildTicks returns hour-aligned axis ticks covering [minEpoch, maxEpoch]. When more
// than maxTicks would be produced, every k-th tick is kept so spacing stays even.
func BuildTicks(minEpoch, maxEpoch int64, maxTicks int) []int64 {
	if maxEpoch < minEpoch {
		minEpoch, maxEpoch = maxEpoch, minEpoch
	}
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}
	step := TickStepHours(maxEpoch-minEpoch) * msPerHour
	start := floorHour(minEpoch)
	end := ceilHour(maxEpoch)

	n := (end-start)/step + 1
	skip := int64(1)
	if n > int64(maxTicks) {
		skip = (n + int64(maxTicks) - 1) / int64(maxTicks)
	}

	ticks := make([]int64, 0, min(n, int64(maxTicks)))
	for i := int64(0); i < n; i += skip {
		ticks = append(ticks, start+i*step)
	}
	return ticks
}

func floorHour(ms int64) int64 {
	q := ms / msPerHour
	if ms%msPerHour != 0 && ms < 0 {
		q--
	}
	return q * msPerHour
}

func ceilHour(ms int64) int64 {
	q := ms / msPerHour
	if ms%msPerHour != 0 && ms > 0 {
		q++
	}
	return q * msPerHour
}
