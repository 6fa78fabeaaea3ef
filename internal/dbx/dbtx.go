// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// and helpers to run functions inside a transaction.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface. In-memory repositories
// accept and ignore it (it may be nil).
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is a unit of work executed with a transactional handle.
type TxFunc func(ctx context.Context, tx DBTX) error

// TxRunner runs a unit of work atomically.
type TxRunner interface {
	RunInTx(ctx context.Context, fn TxFunc) error
}

// SQLTxRunner runs units of work in database/sql transactions.
type SQLTxRunner struct {
	DB   *sql.DB
	Opts *sql.TxOptions
}

// RunInTx implements TxRunner on top of WithTx.
func (r SQLTxRunner) RunInTx(ctx context.Context, fn TxFunc) error {
	return WithTx(ctx, r.DB, r.Opts, fn)
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "DELETE FROM prescriptions WHERE patient_id = $1", id)
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
