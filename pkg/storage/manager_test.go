package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	return m
}

func TestPathFor(t *testing.T) {
	m := newTestManager(t)

	path := m.PathFor("creator", 1234, "jpg")
	assert.Equal(t, filepath.Join(m.Root(), "creator", "1234.jpg"), path)

	// Handles with separators cannot escape the root.
	path = m.PathFor("../evil", 1, "jpg")
	assert.True(t, strings.HasPrefix(path, m.Root()+string(filepath.Separator)))
}

func TestSave(t *testing.T) {
	t.Run("writes atomically", func(t *testing.T) {
		m := newTestManager(t)
		dest := m.PathFor("creator", 1, "jpg")

		n, err := m.Save(strings.NewReader("hello"), dest, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))

		// No temp file left behind.
		_, err = os.Stat(dest + partSuffix)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("rejects short writes", func(t *testing.T) {
		m := newTestManager(t)
		dest := m.PathFor("creator", 2, "jpg")

		_, err := m.Save(strings.NewReader("short"), dest, 100)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSizeMismatch)

		// Neither the final file nor the temp survived.
		assert.False(t, m.Exists(dest))
		_, err = os.Stat(dest + partSuffix)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("unknown size skips verification", func(t *testing.T) {
		m := newTestManager(t)
		dest := m.PathFor("creator", 3, "jpg")

		n, err := m.Save(strings.NewReader("whatever"), dest, -1)
		require.NoError(t, err)
		assert.Equal(t, int64(8), n)
		assert.True(t, m.Exists(dest))
	})

	t.Run("failed reader leaves nothing behind", func(t *testing.T) {
		m := newTestManager(t)
		dest := m.PathFor("creator", 4, "jpg")

		_, err := m.Save(&failingReader{}, dest, -1)
		require.Error(t, err)
		assert.False(t, m.Exists(dest))
		_, err = os.Stat(dest + partSuffix)
		assert.True(t, os.IsNotExist(err))
	})
}

type failingReader struct{}

func (r *failingReader) Read(p []byte) (int, error) {
	return 0, assert.AnError
}

func TestExists(t *testing.T) {
	m := newTestManager(t)
	dest := m.PathFor("creator", 1, "jpg")

	assert.False(t, m.Exists(dest))

	_, err := m.Save(strings.NewReader("x"), dest, 1)
	require.NoError(t, err)
	assert.True(t, m.Exists(dest))

	// Directories do not count as completed files.
	assert.False(t, m.Exists(filepath.Join(m.Root(), "creator")))
}

func TestSweepPartials(t *testing.T) {
	m := newTestManager(t)

	dir := filepath.Join(m.Root(), "creator")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.jpg"), []byte("done"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.jpg.part"), []byte("half"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3.mp4.part"), []byte("half"), 0644))

	// State directory contents are left alone.
	require.NoError(t, os.MkdirAll(m.StateDir(), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(m.StateDir(), "db.part"), []byte("db"), 0644))

	removed, err := m.SweepPartials()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.FileExists(t, filepath.Join(dir, "1.jpg"))
	assert.NoFileExists(t, filepath.Join(dir, "2.jpg.part"))
	assert.NoFileExists(t, filepath.Join(dir, "3.mp4.part"))
	assert.FileExists(t, filepath.Join(m.StateDir(), "db.part"))
}

func TestSanitizeHandle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"creator", "creator"},
		{"a/b", "a_b"},
		{"", "_"},
		{".", "_"},
		{"..", "_"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeHandle(tt.in), "sanitizeHandle(%q)", tt.in)
	}
}
