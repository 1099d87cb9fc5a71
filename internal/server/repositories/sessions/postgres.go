package sessions

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

type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (sid, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (sid) DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at
	`
	if _, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.Expires.UTC()); err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("unknown user %d: %w", s.UserID, common.ErrorNotFound)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT sid, user_id, expires_at FROM sessions
		WHERE sid = $1 AND expires_at > $2
	`
	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, id, r.now().UTC()).Scan(&s.ID, &s.UserID, &s.Expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Touch(ctx context.Context, id string, expires time.Time) error {
	query := `UPDATE sessions SET expires_at = $2 WHERE sid = $1 AND expires_at > $3`
	res, err := r.db.ExecContext(ctx, query, id, expires.UTC(), r.now().UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE sid = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
