package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/dpup/downhole/internal/lib/drillhole"
)

// Store provides thread-safe in-memory storage of processed holes keyed by hole ID.
// Holes are immutable, so readers share them without copying.
type Store struct {
	entries map[string]*Entry
	mutex   sync.RWMutex
}

// Entry represents a stored hole with metadata
type Entry struct {
	Hole      *drillhole.Hole
	CreatedAt time.Time
	// Source names the input the hole was built from
	Source string
}

// NewStore creates a new in-memory hole store
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*Entry),
	}
}

// Set stores a hole, replacing any existing hole with the same ID
func (s *Store) Set(hole *drillhole.Hole, source string) {
	entry := &Entry{
		Hole:      hole,
		CreatedAt: time.Now(),
		Source:    source,
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries[hole.ID()] = entry
}

// Get retrieves a hole by ID
func (s *Store) Get(id string) (*drillhole.Hole, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, exists := s.entries[id]
	if !exists {
		return nil, false
	}
	return entry.Hole, true
}

// GetWithMetadata retrieves a hole and its store metadata
func (s *Store) GetWithMetadata(id string) (Entry, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, exists := s.entries[id]
	if !exists {
		return Entry{}, false
	}
	return *entry, true
}

// Delete removes a hole from the store
func (s *Store) Delete(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.entries, id)
}

// Clear removes all holes from the store
func (s *Store) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = make(map[string]*Entry)
}

// Keys returns all hole IDs in sorted order
func (s *Store) Keys() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Holes returns all stored holes sorted by hole ID, the order exports expect
func (s *Store) Holes() []*drillhole.Hole {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	holes := make([]*drillhole.Hole, 0, len(s.entries))
	for _, entry := range s.entries {
		holes = append(holes, entry.Hole)
	}
	sort.Slice(holes, func(i, j int) bool {
		return holes[i].ID() < holes[j].ID()
	})
	return holes
}

// Len returns the number of stored holes
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries)
}

// Stats returns store statistics
func (s *Store) Stats() StoreStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := StoreStats{
		TotalHoles: len(s.entries),
	}

	for _, entry := range s.entries {
		stats.TotalStations += entry.Hole.Stations().Len()
		stats.TotalDepth += entry.Hole.TotalDepth()

		// Update oldest/newest
		if stats.OldestEntry.IsZero() || entry.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.CreatedAt
		}
		if entry.CreatedAt.After(stats.NewestEntry) {
			stats.NewestEntry = entry.CreatedAt
		}
	}

	return stats
}

// StoreStats provides store usage statistics
type StoreStats struct {
	TotalHoles    int
	TotalStations int
	TotalDepth    float64
	OldestEntry   time.Time
	NewestEntry   time.Time
}
