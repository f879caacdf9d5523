package snapshot

import (
	"errors"
	"fmt"

	"github.com/taskvault/taskvault/internal/store"
)

// CurrentVersion is the format version written by Save.
const CurrentVersion = 1

// ErrAbsent reports that no usable image could be loaded: the snapshot is
// missing, unreadable, malformed, or written by a newer format.
var ErrAbsent = errors.New("snapshot: absent")

// Image is the serialisable form of a whole store.
type Image struct {
	Version int                   `json:"version,omitempty"`
	Tasks   map[uint64]store.Task `json:"tasks"`
	Users   map[uint64]store.User `json:"users"`
}

// Persistence saves and loads store images.
type Persistence interface {
	Save(img Image) error
	Load() (Image, error)
}

// Capture copies the contents of s into a new Image.
func Capture(s *store.Store) Image {
	img := Image{
		Version: CurrentVersion,
		Tasks:   make(map[uint64]store.Task),
		Users:   make(map[uint64]store.User),
	}
	for _, t := range s.Tasks() {
		img.Tasks[t.ID] = t
	}
	for _, u := range s.Users() {
		img.Users[u.ID] = u
	}
	return img
}

// Restore builds a Store from img. Entries are re-keyed by their own ID so a
// hand-edited file with a mismatched map key cannot produce duplicates.
func (img Image) Restore() *store.Store {
	s := store.New()
	for _, t := range img.Tasks {
		s.UpsertTask(t)
	}
	for _, u := range img.Users {
		s.UpsertUser(u)
	}
	return s
}

// check normalises a decoded image and rejects versions this build cannot read.
func (img *Image) check() error {
	if img.Version == 0 {
		img.Version = CurrentVersion
	}
	if img.Version > CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrAbsent, img.Version)
	}
	if img.Tasks == nil {
		img.Tasks = make(map[uint64]store.Task)
	}
	if img.Users == nil {
		img.Users = make(map[uint64]store.User)
	}
	return nil
}
