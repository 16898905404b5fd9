package metadata

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store, mainly for tests. Err, when set, is
// returned from every Lookup.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Metadata
	Err     error
	calls   int
}

// NewMemoryStore returns a store seeded with records.
func NewMemoryStore(records map[string]Metadata) *MemoryStore {
	s := &MemoryStore{records: make(map[string]Metadata, len(records))}
	for k, v := range records {
		s.records[k] = v
	}
	return s
}

func (s *MemoryStore) Lookup(_ context.Context, logID string) (Metadata, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.Err != nil {
		return Metadata{}, false, s.Err
	}
	m, ok := s.records[logID]
	return m, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, logID string, m Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[logID] = m
	return nil
}

func (s *MemoryStore) PutAll(_ context.Context, records map[string]Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range records {
		s.records[k] = v
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, logID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, logID)
	return nil
}

func (s *MemoryStore) IDs(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedIDs(s.records), nil
}

// Calls returns how many lookups reached the store.
func (s *MemoryStore) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

func (s *MemoryStore) Close() error { return nil }
