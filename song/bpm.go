package song

import (
	"math"
	"sort"
)

// deriveBPM estimates tempo as 60000 divided by the median interval between
// distinct press onsets, rounded to two decimals. This is the one fixed
// fallback strategy; it is never applied when the source declares a tempo.
func deriveBPM(notes []Note) float64 {
	var onsets []int64
	for _, n := range notes {
		if n.Action != Press {
			continue
		}
		if len(onsets) == 0 || onsets[len(onsets)-1] != n.OffsetMillis {
			onsets = append(onsets, n.OffsetMillis)
		}
	}
	if len(onsets) < 2 {
		return DefaultBPM
	}

	intervals := make([]float64, 0, len(onsets)-1)
	for i := 1; i < len(onsets); i++ {
		intervals = append(intervals, float64(onsets[i]-onsets[i-1]))
	}
	sort.Float64s(intervals)

	var median float64
	mid := len(intervals) / 2
	if len(intervals)%2 == 1 {
		median = intervals[mid]
	} else {
		median = (intervals[mid-1] + intervals[mid]) / 2
	}
	if median <= 0 {
		return DefaultBPM
	}
	return math.Round(60000/median*100) / 100
}
