// Package sessions stores login sessions. Three backings are provided:
// a Postgres table, an in-process map and Redis.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/agrocms/internal/server/models"
)

// Repository persists sessions keyed by an opaque id. Find never returns an
// expired session; it reports common.ErrorNotFound instead.
type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	Find(ctx context.Context, id string) (*models.Session, error)

	// Touch moves the expiry of a live session to expires.
	Touch(ctx context.Context, id string, expires time.Time) error

	// Delete is idempotent.
	Delete(ctx context.Context, id string) error

	// DeleteExpired purges stale records and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
