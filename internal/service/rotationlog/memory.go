package rotationlog

import (
	"context"
	"sync"

	"github.com/kapu/duty-rotation-bot/internal/domain"
)

// MemoryStore keeps logs in process memory. Stored values are clones, so a
// caller mutating its log does not change what is stored until Save.
type MemoryStore struct {
	mu    sync.Mutex
	logs  map[string]*domain.RotationLog
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[string]*domain.RotationLog)}
}

func (s *MemoryStore) Load(_ context.Context, groupID string) (*domain.RotationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.logs[groupID]
	if !ok {
		log = domain.NewRotationLog()
		s.logs[groupID] = log
		s.saves++
	}
	return log.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, groupID string, log *domain.RotationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[groupID] = log.Clone()
	s.saves++
	return nil
}

// Saves counts writes, including the implicit one on first Load.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Peek returns a copy of the stored log without creating one.
func (s *MemoryStore) Peek(groupID string) (*domain.RotationLog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.logs[groupID]
	if !ok {
		return nil, false
	}
	return log.Clone(), true
}

func (s *MemoryStore) Close() error {
	return nil
}
