package song

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// cacheEntry pins a compiled song to one version of its source file.
type cacheEntry struct {
	Path      string  `msgpack:"path"`
	Size      int64   `msgpack:"size"`
	MTimeNano int64   `msgpack:"mtime"`
	Name      string  `msgpack:"name"`
	BPM       float64 `msgpack:"bpm"`
	Notes     []Note  `msgpack:"notes"`
}

// Cache stores compiled songs so repeated playback of the same source skips
// the import pipeline. An entry goes stale when the source path, size or
// mtime changes; stale and corrupt entries read as misses, never errors.
type Cache struct {
	dir string
}

func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Get returns the cached song for source, or a miss.
func (c *Cache) Get(source string) (*Song, bool) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, false
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, false
	}
	raw, err := os.ReadFile(c.entryPath(abs))
	if err != nil {
		return nil, false
	}

	var e cacheEntry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return nil, false
	}
	if e.Path != abs || e.Size != st.Size() || e.MTimeNano != st.ModTime().UnixNano() {
		return nil, false
	}

	s, err := New(e.Name, e.BPM, e.Notes)
	if err != nil {
		return nil, false
	}
	return s, true
}

// Put records the compiled song for source. The entry is written to a temp
// file and renamed so a crash mid-write cannot leave a corrupt entry.
func (c *Cache) Put(source string, s *Song) error {
	abs, err := filepath.Abs(source)
	if err != nil {
		return err
	}
	st, err := os.Stat(abs)
	if err != nil {
		return err
	}

	e := cacheEntry{
		Path:      abs,
		Size:      st.Size(),
		MTimeNano: st.ModTime().UnixNano(),
		Name:      s.Name,
		BPM:       s.BPM,
		Notes:     s.Notes,
	}
	raw, err := msgpack.Marshal(&e)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.entryPath(abs))
}

func (c *Cache) entryPath(abs string) string {
	h := fnv.New64a()
	h.Write([]byte(abs))
	return filepath.Join(c.dir, fmt.Sprintf("%s-%x.song", sanitizeFilename(Stem(abs)), h.Sum64()))
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.ReplaceAll(name, ":", "-")
	name = strings.ReplaceAll(name, "*", "")
	name = strings.ReplaceAll(name, "?", "")
	name = strings.ReplaceAll(name, "\"", "")
	name = strings.ReplaceAll(name, "<", "")
	name = strings.ReplaceAll(name, ">", "")
	name = strings.ReplaceAll(name, "|", "")
	return name
}
