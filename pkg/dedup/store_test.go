package dedup

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "7/1234", Key(7, 1234))
	// Same media id under different creators must not collide.
	assert.NotEqual(t, Key(1, 100), Key(2, 100))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	assert.False(t, store.Contains("1/100"))

	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.Record("1/100", first))
	assert.True(t, store.Contains("1/100"))

	// Re-recording keeps the original timestamp.
	require.NoError(t, store.Record("1/100", first.Add(time.Hour)))

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, first, records["1/100"])
}

func TestBitcaskStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen")

	store, err := OpenBitcask(path)
	require.NoError(t, err)

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.Record("1/100", ts))
	require.NoError(t, store.Record("2/200", ts.Add(time.Minute)))
	assert.True(t, store.Contains("1/100"))
	assert.False(t, store.Contains("1/999"))

	// Idempotent re-record.
	require.NoError(t, store.Record("1/100", ts.Add(time.Hour)))

	require.NoError(t, store.Close())

	// Records survive reopening.
	store, err = OpenBitcask(path)
	require.NoError(t, err)
	defer store.Close()

	assert.True(t, store.Contains("1/100"))
	assert.True(t, store.Contains("2/200"))

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ts, records["1/100"].UTC())
}

func TestOpenBitcaskCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state", "seen")

	store, err := OpenBitcask(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record("1/1", time.Now()))
	assert.True(t, store.Contains("1/1"))
}
