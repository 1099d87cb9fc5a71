package repomanager

import (
	"context"

	"github.com/dmitrijs2005/agrocms/internal/server/repositories/articles"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/filestore"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/users"
)

// FileRepositoryManager serves users and articles from JSON files and keeps
// sessions in memory.
type FileRepositoryManager struct {
	store    *filestore.Store
	sessions *sessions.MemoryRepository
}

func NewFileRepositoryManager(dir string) (*FileRepositoryManager, error) {
	store, err := filestore.Open(dir)
	if err != nil {
		return nil, err
	}
	return &FileRepositoryManager{store: store, sessions: sessions.NewMemoryRepository()}, nil
}

func (m *FileRepositoryManager) Users() users.Repository       { return m.store.Users() }
func (m *FileRepositoryManager) Articles() articles.Repository { return m.store.Articles() }
func (m *FileRepositoryManager) Sessions() sessions.Repository { return m.sessions }

// RunMigrations is a no-op: the files carry no schema.
func (m *FileRepositoryManager) RunMigrations(context.Context) error { return nil }

// WithTx calls fn directly. Each file write is atomic on its own, but a
// failure midway through fn does not undo earlier writes.
func (m *FileRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return fn(ctx, m)
}

func (m *FileRepositoryManager) Ping(context.Context) error { return nil }
func (m *FileRepositoryManager) Close() error               { return nil }
