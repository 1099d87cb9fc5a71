package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
)

// MemoryRepository keeps sessions in process memory. Records are lost on
// restart. Expired records linger until DeleteExpired runs.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]models.Session
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]models.Session), now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.ID] = *s
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, id string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	if !ok || s.Expired(r.now()) {
		return nil, common.ErrorNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) Touch(_ context.Context, id string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok || s.Expired(r.now()) {
		return common.ErrorNotFound
	}
	s.Expires = expires
	r.items[id] = s
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	var n int64
	for id, s := range r.items {
		if s.Expired(now) {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored records, expired ones included.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
