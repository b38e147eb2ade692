// Package song holds the immutable in-memory representation of a song:
// an ordered sequence of timed key press/release notes plus name, BPM and
// duration metadata.
package song

// Action is what a note does to its key.
type Action string

const (
	Press   Action = "press"
	Release Action = "release"
)

// Note is a single timed key event, offset in milliseconds from song start.
type Note struct {
	OffsetMillis int64  `json:"t" msgpack:"t"`
	Key          string `json:"key" msgpack:"key"`
	Action       Action `json:"action" msgpack:"action"`
}

// Song is immutable once built: New validates the notes and computes the
// derived fields. Callers must not modify Notes.
type Song struct {
	Name           string
	BPM            float64
	DurationMillis int64 // offset of the final release
	Notes          []Note
}

// DefaultBPM is used when a song carries no tempo and none can be derived.
const DefaultBPM = 120

// New builds a Song from already-ordered notes. Notes must be sorted by
// offset (releases before presses on equal offsets are fine) and every press
// must be closed by exactly one later release of the same key with no second
// press in between. A non-positive bpm is replaced by the derived tempo.
func New(name string, bpm float64, notes []Note) (*Song, error) {
	if err := validate(notes); err != nil {
		return nil, err
	}
	owned := make([]Note, len(notes))
	copy(owned, notes)

	if bpm <= 0 {
		bpm = deriveBPM(owned)
	}
	return &Song{
		Name:           name,
		BPM:            bpm,
		DurationMillis: owned[len(owned)-1].OffsetMillis,
		Notes:          owned,
	}, nil
}

func validate(notes []Note) error {
	if len(notes) == 0 {
		return &ParseError{Kind: EmptySong, Index: -1, Msg: "song has no notes"}
	}

	open := make(map[string]int) // key -> index of the open press
	prev := int64(0)

	for i, n := range notes {
		if n.OffsetMillis < 0 || n.OffsetMillis < prev {
			return &ParseError{Kind: NonMonotonicTime, Index: i,
				Msg: "offset regresses"}
		}
		prev = n.OffsetMillis

		switch n.Action {
		case Press:
			if _, held := open[n.Key]; held {
				return &ParseError{Kind: UnterminatedNote, Index: i,
					Msg: "key pressed while already held"}
			}
			open[n.Key] = i
		case Release:
			if _, held := open[n.Key]; !held {
				return &ParseError{Kind: OrphanRelease, Index: i,
					Msg: "release without a matching press"}
			}
			delete(open, n.Key)
		default:
			return &ParseError{Kind: UnknownAction, Index: i,
				Msg: "unknown action " + string(n.Action)}
		}
	}

	if len(open) > 0 {
		first := -1
		for _, idx := range open {
			if first == -1 || idx < first {
				first = idx
			}
		}
		return &ParseError{Kind: UnterminatedNote, Index: first,
			Msg: "press never released"}
	}
	return nil
}
