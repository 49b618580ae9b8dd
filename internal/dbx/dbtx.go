// Package dbx holds the small DB plumbing the repositories share: the DBTX
// interface that lets a repository run against either *sql.DB or *sql.Tx,
// and WithTx for the few flows that span repositories (consuming a passcode
// challenge and creating its session must happen in one transaction).
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql the repositories need. Both *sql.DB
// and *sql.Tx satisfy it, so the same repository code serves plain calls
// and transactional ones.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Services pair it with the repository manager to group writes, e.g. deleting
// an OTP row and inserting the session it earned atomically:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := rm.OTPTokens(tx).Delete(ctx, accountID); err != nil {
//	        return err
//	    }
//	    return rm.Sessions(tx).Create(ctx, session)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
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
