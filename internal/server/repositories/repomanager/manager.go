// Package repomanager is the storage gateway: it hands out the user, article
// and session repositories of one backing (Postgres or JSON files) and owns
// that backing's lifecycle.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/agrocms/internal/server/repositories/articles"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/users"
)

// Repositories is the set of repositories usable inside a transaction.
type Repositories interface {
	Users() users.Repository
	Articles() articles.Repository
}

type RepositoryManager interface {
	Repositories

	// Sessions returns the backing's native session store.
	Sessions() sessions.Repository

	RunMigrations(ctx context.Context) error

	// WithTx runs fn against repositories that share one unit of work.
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	Ping(ctx context.Context) error
	Close() error
}
