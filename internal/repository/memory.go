package repository

import (
	"encoding/json"
	"nectopoint-client/internal/models"
	"sync"
)

// MemorySessionStore keeps the snapshot in process memory. The snapshot is
// stored serialized so callers never share state with the cache.
type MemorySessionStore struct {
	mu      sync.RWMutex
	payload []byte
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Load() (*models.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.payload == nil {
		return nil, nil
	}
	var snapshot models.SessionSnapshot
	if err := json.Unmarshal(s.payload, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *MemorySessionStore) Save(snapshot *models.SessionSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.payload = payload
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Clear() error {
	s.mu.Lock()
	s.payload = nil
	s.mu.Unlock()
	return nil
}

type MemoryReadStateRepository struct {
	mu   sync.RWMutex
	read map[int64]bool
}

func NewMemoryReadStateRepository() *MemoryReadStateRepository {
	return &MemoryReadStateRepository{read: make(map[int64]bool)}
}

func (r *MemoryReadStateRepository) IsRead(ticketID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read[ticketID], nil
}

func (r *MemoryReadStateRepository) MarkRead(ticketIDs ...int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ticketIDs {
		r.read[id] = true
	}
	return nil
}

func (r *MemoryReadStateRepository) ReadSet(ticketIDs []int64) (map[int64]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[int64]bool, len(ticketIDs))
	for _, id := range ticketIDs {
		if r.read[id] {
			result[id] = true
		}
	}
	return result, nil
}

func (r *MemoryReadStateRepository) Clear() error {
	r.mu.Lock()
	r.read = make(map[int64]bool)
	r.mu.Unlock()
	return nil
}
