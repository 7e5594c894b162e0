package clientstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stickygoals/internal/models"
)

// Snapshot is everything the client keeps between runs.
type Snapshot struct {
	Goals               []CachedGoal          `json:"goals"`
	Journal             []models.JournalEntry `json:"journal"`
	Widgets             []Widget              `json:"widgets"`
	Pinned              []string              `json:"pinned"`
	Suggestions         map[string][]string   `json:"suggestions,omitempty"` // goal id -> pending steps
	AcceptedSuggestions int                   `json:"acceptedSuggestions"`
	SavedAt             time.Time             `json:"savedAt"`
}

type CachedGoal struct {
	ID         string             `json:"id"`
	Text       string             `json:"text"`
	CreatedAt  time.Time          `json:"createdAt"`
	Milestones []models.Milestone `json:"milestones"`
}

type Cache interface {
	Load() (*Snapshot, error)
	Save(*Snapshot) error
	Clear() error
}

// FileCache stores the snapshot as one JSON file, replaced atomically on
// every save.
type FileCache struct {
	path string
}

func NewFileCache(path string) *FileCache { return &FileCache{path: path} }

func (f *FileCache) Path() string { return f.path }

// Load returns an empty snapshot when no cache file exists yet.
func (f *FileCache) Load() (*Snapshot, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("read cache %s: %w", f.path, err)
	}
	return &s, nil
}

func (f *FileCache) Save(s *Snapshot) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".goals-cache-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileCache) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryCache keeps the snapshot in process; used in tests.
type MemoryCache struct {
	snap *Snapshot
}

func (m *MemoryCache) Load() (*Snapshot, error) {
	if m.snap == nil {
		return &Snapshot{}, nil
	}
	b, _ := json.Marshal(m.snap)
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryCache) Save(s *Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	var cp Snapshot
	if err := json.Unmarshal(b, &cp); err != nil {
		return err
	}
	m.snap = &cp
	return nil
}

func (m *MemoryCache) Clear() error {
	m.snap = nil
	return nil
}
