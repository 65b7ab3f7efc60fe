package db

import (
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if _, err := sqlDB.Exec(`CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	return sqlDB
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	sqlDB := setupTestDB(t)

	err := WithTx(sqlDB, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO kv (k, v) VALUES ('a', 'b')`)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	var count int
	if err := sqlDB.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	sqlDB := setupTestDB(t)
	wantErr := errors.New("boom")

	err := WithTx(sqlDB, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO kv (k, v) VALUES ('a', 'b')`); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("WithTx error = %v, want %v", err, wantErr)
	}

	var count int
	if err := sqlDB.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 after rollback", count)
	}
}

func TestNullStringValue(t *testing.T) {
	if got := NullStringValue(sql.NullString{String: "x", Valid: true}); got != "x" {
		t.Errorf("NullStringValue = %q, want \"x\"", got)
	}
	if got := NullStringValue(sql.NullString{}); got != "" {
		t.Errorf("NullStringValue = %q, want empty", got)
	}
}
