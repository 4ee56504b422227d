package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_NormalisesValue(t *testing.T) {
	a := Key("search", "  Fact Check   the moon ")
	b := Key("search", "fact check the moon")
	assert.Equal(t, a, b)
	assert.Contains(t, a, "satyamitra:v1:search:")
	assert.NotEqual(t, a, Key("page", "fact check the moon"))
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	require.NoError(t, c.Set("k", []byte("v"), 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	key := Key("search", "q")

	require.NoError(t, c.Set(key, []byte("results"), 0))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("results"), got)

	require.NoError(t, c.Set(key, []byte("stale"), time.Nanosecond))
	time.Sleep(time.Millisecond)
	_, ok = c.Get(key)
	assert.False(t, ok)

	assert.NoError(t, c.Delete(key), "deleting a missing entry is not an error")
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Minute)
	require.NoError(t, disk.Set("k", []byte("from-disk"), 0))

	c := NewLayeredCache(time.Minute, dir, time.Minute)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("from-disk"), got)

	mem, ok := c.memory.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("from-disk"), mem)

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestNew_SelectsLayer(t *testing.T) {
	_, isMemory := New(time.Minute, "").(*MemoryCache)
	assert.True(t, isMemory)

	_, isLayered := New(time.Minute, t.TempDir()).(*LayeredCache)
	assert.True(t, isLayered)
}
