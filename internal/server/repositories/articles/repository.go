// Package articles declares the article storage contract and its Postgres
// implementation.
package articles

import (
	"context"

	"github.com/dmitrijs2005/agrocms/internal/server/models"
)

// Repository stores articles. Listings are ordered by createdAt descending,
// newest first, with id descending as a tiebreak.
type Repository interface {
	List(ctx context.Context) ([]*models.Article, error)
	Latest(ctx context.Context, limit int) ([]*models.Article, error)

	// Get returns the article or common.ErrorNotFound.
	Get(ctx context.Context, id int64) (*models.Article, error)

	// Create assigns an id and stamps createdAt and updatedAt with the same instant.
	Create(ctx context.Context, article *models.Article) (*models.Article, error)

	// Update merges patch into the stored article and moves updatedAt
	// strictly forward. Returns common.ErrorNotFound if id is absent.
	Update(ctx context.Context, id int64, patch models.ArticlePatch) (*models.Article, error)

	// Delete reports whether a record existed and was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}
