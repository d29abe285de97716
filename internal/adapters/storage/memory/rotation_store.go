package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/guideon/internal/domain"
)

type rotationKey struct {
	user domain.UserID
	key  domain.RotationKey
}

// RotationStore keeps rotation cursors in process memory.
type RotationStore struct {
	mu      sync.RWMutex
	cursors map[rotationKey]domain.RotationCursor
}

func NewRotationStore() *RotationStore {
	return &RotationStore{
		cursors: make(map[rotationKey]domain.RotationCursor),
	}
}

func (s *RotationStore) GetCursor(_ context.Context, userID domain.UserID, key domain.RotationKey) (*domain.RotationCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cur, ok := s.cursors[rotationKey{user: userID, key: key}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cur.Order = append([]string(nil), cur.Order...)
	return &cur, nil
}

func (s *RotationStore) SaveCursor(_ context.Context, userID domain.UserID, cursor *domain.RotationCursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *cursor
	c.Order = append([]string(nil), cursor.Order...)
	s.cursors[rotationKey{user: userID, key: cursor.Key}] = c
	return nil
}
