package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultPath is the snapshot location used when none is configured.
const DefaultPath = "database.json"

// File is a Persistence backed by a single JSON file.
type File struct {
	path string
}

// NewFile returns a File persisting to path, or DefaultPath if path is empty.
func NewFile(path string) *File {
	if path == "" {
		path = DefaultPath
	}
	return &File{path: path}
}

// Path returns the snapshot file location.
func (f *File) Path() string { return f.path }

// Save encodes img and atomically replaces the snapshot file with it.
func (f *File) Save(img Image) error {
	img.Version = CurrentVersion
	data, err := json.Marshal(img)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	if err := writeAtomic(f.path, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: write %q: %w", f.path, err)
	}
	return nil
}

// Load reads and decodes the snapshot file. Every failure wraps ErrAbsent;
// callers can still tell a missing file apart with errors.Is(err, os.ErrNotExist).
func (f *File) Load() (Image, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return Image{}, fmt.Errorf("%w: read %q: %w", ErrAbsent, f.path, err)
	}
	var img Image
	if err := json.Unmarshal(data, &img); err != nil {
		return Image{}, fmt.Errorf("%w: parse %q: %w", ErrAbsent, f.path, err)
	}
	if err := img.check(); err != nil {
		return Image{}, err
	}
	return img, nil
}

// writeAtomic writes data to a temp file next to path, syncs it, and renames
// it over path. The temp file is removed if any step fails.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	syncDir(dir)
	return nil
}

// syncDir flushes the directory entry for a rename. Not every platform
// supports fsync on directories, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}

// Memory is a Persistence that keeps the last saved image in memory.
// FailWith makes subsequent saves return the given error.
type Memory struct {
	mu    sync.Mutex
	img   *Image
	fail  error
	saves int
}

// Save stores a deep copy of img unless a failure has been injected.
func (m *Memory) Save(img Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	cp := Capture(img.Restore())
	m.img = &cp
	m.saves++
	return nil
}

// Load returns the last saved image, or ErrAbsent if nothing was saved.
func (m *Memory) Load() (Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.img == nil {
		return Image{}, ErrAbsent
	}
	return Capture(m.img.Restore()), nil
}

// FailWith sets the error returned by future saves; nil clears it.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

// Saves returns the number of successful saves.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

var _ Persistence = (*File)(nil)
var _ Persistence = (*Memory)(nil)

// IsMissing reports whether err came from a snapshot file that does not exist.
func IsMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
