// Package dbx holds the small database abstractions shared by the Postgres
// repositories: the DBTX handle satisfied by *sql.DB and *sql.Tx, a
// transaction helper, and Postgres error classification.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DBTX is the subset of database/sql the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxStarter opens transactions. *sql.DB and *sql.Conn satisfy it.
type TxStarter interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTx runs fn as one unit of work, e.g. seeding an admin and the sample
// articles together. fn's error is returned as is, joined with the rollback
// error when the rollback also fails. A panic in fn rolls back and is
// re-raised.
func WithTx(ctx context.Context, db TxStarter, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	finished := false
	defer func() {
		if !finished {
			// fn panicked; the panic keeps unwinding after this.
			_ = tx.Rollback()
		}
	}()

	fnErr := fn(ctx, tx)
	finished = true
	if fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(fnErr, fmt.Errorf("rollback tx: %w", rbErr))
		}
		return fnErr
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
