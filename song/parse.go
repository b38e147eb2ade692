package song

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// document is the on-disk song shape. Duration is never stored, it is
// derived on load.
type document struct {
	Name  string  `json:"name"`
	BPM   float64 `json:"bpm,omitempty"`
	Notes []Note  `json:"notes"`
}

// Parse reads a song document and returns the validated Song.
func Parse(r io.Reader) (*Song, error) {
	var doc document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Kind: BadDocument, Index: -1,
			Msg: "invalid json: " + err.Error(), Err: err}
	}
	return New(doc.Name, doc.BPM, doc.Notes)
}

// ParseFile parses the song document at path. The path is recorded on any
// ParseError so per-file failures can be reported without aborting a batch.
func ParseFile(path string) (*Song, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Kind: BadDocument, Index: -1,
			Msg: err.Error(), Err: err}
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	if s.Name == "" {
		s.Name = Stem(path)
	}
	return s, nil
}

// Encode writes s back out in the document format.
func Encode(w io.Writer, s *Song) error {
	doc := document{Name: s.Name, BPM: s.BPM, Notes: s.Notes}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Stem returns the file name without directory or extension, used as the
// fallback song name.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
