package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// Store implements ports.RecordingStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[domain.RequestID][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[domain.RequestID][]byte),
	}
}

// Save persists the recording in memory. Recordings are kept encoded so
// callers can't mutate stored state through shared slices.
func (s *Store) Save(ctx context.Context, rec *domain.Recording) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recording: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.RequestID] = data
	return nil
}

// Load retrieves the recording from memory.
func (s *Store) Load(ctx context.Context, id domain.RequestID) (*domain.Recording, error) {
	s.mu.RLock()
	data, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrRecordingNotFound
	}

	var rec domain.Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recording: %w", err)
	}
	return &rec, nil
}

// Delete removes the recording.
func (s *Store) Delete(ctx context.Context, id domain.RequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored recording ids.
func (s *Store) List(ctx context.Context) ([]domain.RequestID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]domain.RequestID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
