package song

import "fmt"

// ParseErrorKind classifies why a song document was rejected.
type ParseErrorKind int

const (
	BadDocument ParseErrorKind = iota
	NonMonotonicTime
	UnterminatedNote
	OrphanRelease
	UnknownAction
	EmptySong
	BadTimeFormat
)

func (k ParseErrorKind) String() string {
	switch k {
	case BadDocument:
		return "bad document"
	case NonMonotonicTime:
		return "non-monotonic time"
	case UnterminatedNote:
		return "unterminated note"
	case OrphanRelease:
		return "orphan release"
	case UnknownAction:
		return "unknown action"
	case EmptySong:
		return "empty song"
	case BadTimeFormat:
		return "bad time format"
	}
	return "parse error"
}

// ParseError rejects one song document; other documents are unaffected.
// Index is the offending note position, or -1 when the failure is not tied
// to a note.
type ParseError struct {
	Path  string
	Kind  ParseErrorKind
	Index int
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	where := e.Path
	if where == "" {
		where = "song"
	}
	if e.Index >= 0 {
		return fmt.Sprintf("%s: %s at note %d: %s", where, e.Kind, e.Index, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", where, e.Kind, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }
