package song

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheFixture(t *testing.T) (*Cache, string, *Song) {
	t.Helper()
	dir := t.TempDir()

	source := filepath.Join(dir, "tune.mid")
	require.NoError(t, os.WriteFile(source, []byte("not really midi"), 0644))

	s, err := New("tune", 100, []Note{
		{OffsetMillis: 0, Key: "q", Action: Press},
		{OffsetMillis: 250, Key: "q", Action: Release},
	})
	require.NoError(t, err)

	return NewCache(filepath.Join(dir, "cache")), source, s
}

func TestCacheMissWhenEmpty(t *testing.T) {
	c, source, _ := cacheFixture(t)
	_, ok := c.Get(source)
	assert.False(t, ok)
}

func TestCachePutGet(t *testing.T) {
	c, source, s := cacheFixture(t)
	require.NoError(t, c.Put(source, s))

	got, ok := c.Get(source)
	require.True(t, ok)
	assert.Equal(t, s.Name, got.Name)
	assert.Equal(t, s.BPM, got.BPM)
	assert.Equal(t, s.Notes, got.Notes)
	assert.Equal(t, s.DurationMillis, got.DurationMillis)
}

func TestCacheStaleAfterSourceChange(t *testing.T) {
	c, source, s := cacheFixture(t)
	require.NoError(t, c.Put(source, s))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(source, past, past))

	_, ok := c.Get(source)
	assert.False(t, ok)
}

func TestCacheCorruptEntryIsMiss(t *testing.T) {
	c, source, s := cacheFixture(t)
	require.NoError(t, c.Put(source, s))

	abs, err := filepath.Abs(source)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(c.entryPath(abs), []byte("garbage"), 0644))

	_, ok := c.Get(source)
	assert.False(t, ok)
}

func TestCacheGoneSourceIsMiss(t *testing.T) {
	c, source, s := cacheFixture(t)
	require.NoError(t, c.Put(source, s))
	require.NoError(t, os.Remove(source))

	_, ok := c.Get(source)
	assert.False(t, ok)
}
