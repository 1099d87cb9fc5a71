package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/dbx"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
)

const articleColumns = `id, title, subtitle, description, content, image_url, author_id, created_at, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX. Every method is
// a single SQL statement.
type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles
		ORDER BY created_at DESC, id DESC`
	return r.selectMany(ctx, query)
}

func (r *PostgresRepository) Latest(ctx context.Context, limit int) ([]*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles
		ORDER BY created_at DESC, id DESC
		LIMIT $1`
	return r.selectMany(ctx, query, limit)
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles
		WHERE id = $1`
	a, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, article *models.Article) (*models.Article, error) {
	query := `
		INSERT INTO articles (title, subtitle, description, content, image_url, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id
	`
	created := *article
	created.CreatedAt = r.now().UTC().Truncate(time.Microsecond)
	created.UpdatedAt = created.CreatedAt

	err := r.db.QueryRowContext(ctx, query,
		created.Title, created.Subtitle, created.Description, created.Content,
		created.ImageURL, created.AuthorID, created.CreatedAt,
	).Scan(&created.ID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("unknown author %v: %w", created.AuthorID, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, patch models.ArticlePatch) (*models.Article, error) {
	query := `
		UPDATE articles SET
			title = COALESCE($2, title),
			subtitle = COALESCE($3, subtitle),
			description = COALESCE($4, description),
			content = CASE WHEN $5::boolean THEN NULLIF($6::text, '') ELSE content END,
			image_url = COALESCE($7, image_url),
			updated_at = GREATEST($8, updated_at + interval '1 microsecond')
		WHERE id = $1
		RETURNING ` + articleColumns

	// $6 is empty for an explicit null, which NULLIF turns into NULL.
	a, err := scanArticle(r.db.QueryRowContext(ctx, query,
		id, patch.Title.Ptr(), patch.Subtitle.Ptr(), patch.Description.Ptr(),
		patch.Content.Set, patch.Content.Value,
		patch.ImageURL.Ptr(), r.now().UTC().Truncate(time.Microsecond),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select articles: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(s scanner) (*models.Article, error) {
	var (
		a        models.Article
		content  sql.NullString
		authorID sql.NullInt64
	)
	if err := s.Scan(&a.ID, &a.Title, &a.Subtitle, &a.Description, &content,
		&a.ImageURL, &authorID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if content.Valid {
		a.Content = &content.String
	}
	if authorID.Valid {
		a.AuthorID = &authorID.Int64
	}
	return &a, nil
}
