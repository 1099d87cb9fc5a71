package filestore

import (
	"context"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
)

// UserRepository implements users.Repository on a Store.
type UserRepository struct {
	s *Store
}

func (r *UserRepository) Get(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UserRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == user.Username {
			return nil, common.ErrorConflict
		}
	}

	created := *user
	created.ID = r.s.nextUserID
	r.s.users[created.ID] = created
	if err := r.s.saveUsersLocked(); err != nil {
		delete(r.s.users, created.ID)
		return nil, err
	}
	r.s.nextUserID++
	return &created, nil
}
