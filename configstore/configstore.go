// Package configstore persists configuration snapshots as versioned JSON
// files and can diff or roll back between versions.
package configstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors.
var (
	ErrVersionNotFound = errors.New("version not found")
	ErrEmptyStore      = errors.New("store has no versions")
)

// Version is one stored configuration snapshot.
type Version struct {
	ID        string                 `json:"id"`
	Seq       uint64                 `json:"seq"`
	CreatedAt time.Time              `json:"created_at"`
	Config    map[string]interface{} `json:"config"`
}

// Store writes one JSON file per version under a base directory.
// File names embed the sequence number so ordering survives restarts.
type Store struct {
	mu  sync.Mutex
	dir string
	seq uint64

	nowFunc func() time.Time
}

// NewStore opens (or creates) a store rooted at dir and recovers the
// last sequence number from the files already present.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := &Store{dir: dir, nowFunc: time.Now}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var seq uint64
		if _, err := fmt.Sscanf(e.Name(), "%d-", &seq); err != nil {
			continue
		}
		if seq > s.seq {
			s.seq = seq
		}
	}
	return s, nil
}

// Save persists cfg as the new head version and returns it.
func (s *Store) Save(cfg map[string]interface{}) (*Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(cfg)
}

// save writes a version file. Caller holds s.mu.
func (s *Store) save(cfg map[string]interface{}) (*Version, error) {
	s.seq++
	v := &Version{
		ID:        uuid.New().String(),
		Seq:       s.seq,
		CreatedAt: s.nowFunc().UTC(),
		Config:    cfg,
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.seq--
		return nil, fmt.Errorf("failed to encode version: %w", err)
	}
	if err := os.WriteFile(s.path(v), data, 0644); err != nil {
		s.seq--
		return nil, fmt.Errorf("failed to write version: %w", err)
	}
	return v, nil
}

func (s *Store) path(v *Version) string {
	return filepath.Join(s.dir, fmt.Sprintf("%06d-%s.json", v.Seq, v.ID))
}

// Get returns the version with the given ID.
// Returns ErrVersionNotFound if no such version exists.
func (s *Store) Get(id string) (*Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", id, ErrVersionNotFound)
}

// List returns all versions ordered by sequence number, oldest first.
func (s *Store) List() ([]*Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Current returns the head version.
// Returns ErrEmptyStore when nothing has been saved.
func (s *Store) Current() (*Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.load()
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ErrEmptyStore
	}
	return versions[len(versions)-1], nil
}

// Rollback re-saves the configuration of the given version as a new head
// version, so history is never rewritten.
func (s *Store) Rollback(id string) (*Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		if v.ID == id {
			return s.save(v.Config)
		}
	}
	return nil, fmt.Errorf("%s: %w", id, ErrVersionNotFound)
}

// load reads every version file. Caller holds s.mu.
func (s *Store) load() ([]*Version, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}

	var versions []*Version
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read version %s: %w", e.Name(), err)
		}
		var v Version
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to decode version %s: %w", e.Name(), err)
		}
		versions = append(versions, &v)
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Seq < versions[j].Seq
	})
	return versions, nil
}
