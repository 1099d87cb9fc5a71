// Package users declares the user storage contract and its Postgres implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/agrocms/internal/server/models"
)

// Repository stores user accounts.
type Repository interface {
	// Get returns the user with id or common.ErrorNotFound.
	Get(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername returns the user with the exact (case-sensitive) name
	// or common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Create assigns an id and stores user as given, including IsAdmin.
	// A taken username yields common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
}
