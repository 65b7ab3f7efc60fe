// Package db holds small database/sql helpers shared by the persistence
// layer.
package db

import (
	"database/sql"
)

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error.
func WithTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// NullStringValue returns the string value, or "" when NULL.
func NullStringValue(n sql.NullString) string {
	if !n.Valid {
		return ""
	}
	return n.String
}
