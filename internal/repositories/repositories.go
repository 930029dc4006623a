package repositories

import (
	"database/sql"
	"fmt"
)

// scanner is the subset of [sql.Row] and [sql.Rows] used by the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// requireAffected returns notFound when result touched no rows.
func requireAffected(result sql.Result, notFound error, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}
