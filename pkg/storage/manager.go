package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// partSuffix marks in-progress downloads. A file only ever appears at its
// final name after a complete, verified write.
const partSuffix = ".part"

// ErrSizeMismatch is returned when a download ends short of the size the
// server declared.
var ErrSizeMismatch = fmt.Errorf("downloaded size does not match content length")

// Manager handles the on-disk layout for downloaded media:
// {root}/{creator_handle}/{media_id}.{ext}, with dedup state under
// {root}/.state.
type Manager struct {
	root string
}

// NewManager creates a storage manager rooted at root
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download root: %w", err)
	}
	return &Manager{root: root}, nil
}

// Root returns the download root directory
func (m *Manager) Root() string {
	return m.root
}

// StateDir returns the directory holding the dedup database.
func (m *Manager) StateDir() string {
	return filepath.Join(m.root, ".state")
}

// PathFor returns the final destination path for a media item.
func (m *Manager) PathFor(creatorHandle string, mediaID int64, ext string) string {
	return filepath.Join(m.root, sanitizeHandle(creatorHandle), fmt.Sprintf("%d.%s", mediaID, ext))
}

// Save streams r to dest through a .part temporary and renames it into
// place once the write is complete. When expectedSize is non-negative the
// byte count is verified before the rename; a short write leaves only the
// .part artifact, never a truncated file at the final name.
func (m *Manager) Save(r io.Reader, dest string, expectedSize int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, fmt.Errorf("failed to create destination directory: %w", err)
	}

	tempPath := dest + partSuffix
	out, err := os.Create(tempPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, copyErr := io.Copy(out, r)
	closeErr := out.Close()

	if copyErr != nil {
		os.Remove(tempPath)
		return written, fmt.Errorf("failed to write media data: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return written, fmt.Errorf("failed to close temporary file: %w", closeErr)
	}

	if expectedSize >= 0 && written != expectedSize {
		os.Remove(tempPath)
		return written, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, written, expectedSize)
	}

	if err := os.Rename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return written, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return written, nil
}

// Exists reports whether a completed file is present at dest.
func (m *Manager) Exists(dest string) bool {
	info, err := os.Stat(dest)
	return err == nil && !info.IsDir()
}

// SweepPartials removes stale .part files left behind by an interrupted
// run. Returns the number of files removed.
func (m *Manager) SweepPartials() (int, error) {
	removed := 0
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// The state directory is not ours to sweep.
			if path == m.StateDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), partSuffix) {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove stale partial %s: %w", path, err)
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, err
	}
	return removed, nil
}

// sanitizeHandle strips path separators from a creator handle before it is
// used as a directory name.
func sanitizeHandle(handle string) string {
	handle = strings.ReplaceAll(handle, "/", "_")
	handle = strings.ReplaceAll(handle, string(filepath.Separator), "_")
	if handle == "" || handle == "." || handle == ".." {
		return "_"
	}
	return handle
}
