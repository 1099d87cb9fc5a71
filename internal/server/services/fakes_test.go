package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/articles"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/users"
)

// --- hasher ---

// plainHasher stores "<plain>.salt" so tests stay fast.
type plainHasher struct{ hashErr error }

func (h plainHasher) Hash(plain string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return plain + ".salt", nil
}

func (h plainHasher) Verify(plain, digest string) bool {
	stored, _, ok := strings.Cut(digest, ".")
	return ok && stored == plain
}

// countingHasher wraps plainHasher and counts calls.
type countingHasher struct {
	plainHasher
	hashes   int
	verifies int
}

func (h *countingHasher) Hash(plain string) (string, error) {
	h.hashes++
	return h.plainHasher.Hash(plain)
}

func (h *countingHasher) Verify(plain, digest string) bool {
	h.verifies++
	return h.plainHasher.Verify(plain, digest)
}

// --- users ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[int64]models.User
	nextID int64

	getErr    error
	createErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[int64]models.User{}, nextID: 1}
}

func (f *fakeUsersRepo) Get(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (f *fakeUsersRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, u := range f.byID {
		if u.Username == user.Username {
			return nil, common.ErrorConflict
		}
	}
	u := *user
	u.ID = f.nextID
	f.nextID++
	f.byID[u.ID] = u
	return &u, nil
}

var _ users.Repository = (*fakeUsersRepo)(nil)

// --- articles ---

type fakeArticlesRepo struct {
	mu     sync.Mutex
	items  map[int64]models.Article
	nextID int64
	clock  time.Time

	listErr   error
	createErr error
	deleteErr error

	createCalls int
	updateCalls int
}

func newFakeArticlesRepo() *fakeArticlesRepo {
	return &fakeArticlesRepo{items: map[int64]models.Article{}, nextID: 1, clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeArticlesRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeArticlesRepo) List(ctx context.Context) ([]*models.Article, error) {
	return f.Latest(ctx, -1)
}

func (f *fakeArticlesRepo) Latest(_ context.Context, limit int) ([]*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Article, 0, len(f.items))
	for _, a := range f.items {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeArticlesRepo) Get(_ context.Context, id int64) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (f *fakeArticlesRepo) Create(_ context.Context, article *models.Article) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	a := *article
	a.ID = f.nextID
	f.nextID++
	a.CreatedAt = f.tick()
	a.UpdatedAt = a.CreatedAt
	f.items[a.ID] = a
	return &a, nil
}

func (f *fakeArticlesRepo) Update(_ context.Context, id int64, patch models.ArticlePatch) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	prev, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	a := patch.Apply(prev)
	a.UpdatedAt = models.NextUpdatedAt(prev.UpdatedAt, f.tick())
	f.items[id] = a
	return &a, nil
}

func (f *fakeArticlesRepo) Delete(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	_, ok := f.items[id]
	delete(f.items, id)
	return ok, nil
}

var _ articles.Repository = (*fakeArticlesRepo)(nil)

// --- repository manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	a *fakeArticlesRepo
	s sessions.Repository

	txCalls int
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), a: newFakeArticlesRepo(), s: sessions.NewMemoryRepository()}
}

func (m *fakeRepoManager) Users() users.Repository             { return m.u }
func (m *fakeRepoManager) Articles() articles.Repository       { return m.a }
func (m *fakeRepoManager) Sessions() sessions.Repository       { return m.s }
func (m *fakeRepoManager) RunMigrations(context.Context) error { return nil }
func (m *fakeRepoManager) Ping(context.Context) error          { return nil }
func (m *fakeRepoManager) Close() error                        { return nil }

func (m *fakeRepoManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos repomanager.Repositories) error) error {
	m.txCalls++
	return fn(ctx, m)
}

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)
