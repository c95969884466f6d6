package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBytes(t *testing.T) {
	a := HashBytes([]byte("hello"))
	b := HashBytes([]byte("hello"))
	c := HashBytes([]byte("world"))

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestStoreLoad(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "cache"), 24, true)
	require.NoError(t, err)

	in := map[string]int{"src/a.ts": 4, "src/b.ts": 1}
	key := Key("churn", "/repo")
	require.NoError(t, c.Store(key, "abc123", in))

	var out map[string]int
	require.True(t, c.Load(key, "abc123", &out))
	assert.Equal(t, in, out)

	// a different hash is a miss
	var miss map[string]int
	assert.False(t, c.Load(key, "def456", &miss))
}

func TestLoadMissing(t *testing.T) {
	c, err := New(t.TempDir(), 24, true)
	require.NoError(t, err)

	var v int
	assert.False(t, c.Load("nope", "", &v))
}

func TestDisabledCache(t *testing.T) {
	c, err := New("", 24, false)
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	require.NoError(t, c.Store("k", "h", 1))
	var v int
	assert.False(t, c.Load("k", "h", &v))
	require.NoError(t, c.Clear())

	assert.False(t, Disabled().Enabled())
	var nilCache *Cache
	assert.False(t, nilCache.Enabled())
}

func TestClearAndStats(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "cache"), 24, true)
	require.NoError(t, err)

	require.NoError(t, c.Store("a", "", 1))
	require.NoError(t, c.Store("b", "", 2))

	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Positive(t, stats.TotalSize)

	require.NoError(t, c.Clear())
	stats, err = c.GetStats()
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
}

func TestKey(t *testing.T) {
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
}
