package midifile

import "sort"

// tempoChange is one set-tempo event at an absolute tick.
type tempoChange struct {
	tick         int64
	usPerQuarter float64
}

const defaultUsPerQuarter = 500000 // 120 bpm, the midi default

type tempoMap []tempoChange

// newTempoMap orders the changes and guarantees coverage from tick 0.
func newTempoMap(changes []tempoChange) tempoMap {
	if len(changes) == 0 {
		return tempoMap{{tick: 0, usPerQuarter: defaultUsPerQuarter}}
	}
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].tick < changes[j].tick })
	if changes[0].tick > 0 {
		changes = append([]tempoChange{{tick: 0, usPerQuarter: defaultUsPerQuarter}}, changes...)
	}
	return tempoMap(changes)
}

// msAt converts an absolute tick to milliseconds, accumulating piecewise
// over the tempo segments.
func (tm tempoMap) msAt(tick int64, division float64) float64 {
	total := 0.0
	for i, ch := range tm {
		if tick <= ch.tick {
			break
		}
		segEnd := tick
		if i+1 < len(tm) && tm[i+1].tick < segEnd {
			segEnd = tm[i+1].tick
		}
		dticks := segEnd - ch.tick
		if dticks > 0 {
			total += float64(dticks) * (ch.usPerQuarter / division) / 1000.0
		}
	}
	return total
}

// bpm reports the tempo at the start of the piece.
func (tm tempoMap) bpm() float64 {
	return 60e6 / tm[0].usPerQuarter
}
