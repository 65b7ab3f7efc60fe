// Package persist stores the conversation mapping in a single SQLite file
// under the user's private data directory. The file is rewritten as a full
// snapshot inside one transaction on every save, and restored once at
// engine construction. Persistence failures are never fatal: a missing or
// corrupt file loads as an empty mapping, and the store degrades to
// memory-only if the file cannot be recreated.
package persist

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lumenlauncher/lumen/internal/db"
	"github.com/lumenlauncher/lumen/internal/logging"
	"github.com/lumenlauncher/lumen/internal/notification"
)

const (
	appName      = "lumen"
	dataFileName = "conversations.db"
)

// Store persists the conversation mapping. A Store with no underlying
// database (unrecoverable open failure) is valid and acts as memory-only.
type Store struct {
	sqlDB *sql.DB
}

var logger = logging.Component("persist")

// DefaultPath returns the conversation file path in the XDG data directory.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dataFileName))
}

// Open opens (or creates) the conversation file at path. A corrupt file is
// removed and recreated once; if that also fails the store runs
// memory-only. Open never fails on bad data, only on programmer error.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("persistence disabled")
			return &Store{}, nil
		}
	}

	sqlDB, err := open(path)
	if err != nil && path != ":memory:" {
		// Corrupt or unreadable file: start over with a fresh one.
		logger.Warn().Err(err).Str("path", path).Msg("conversation file unusable, recreating")
		_ = os.Remove(path)
		sqlDB, err = open(path)
	}
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("persistence disabled")
		return &Store{}, nil
	}

	return &Store{sqlDB: sqlDB}, nil
}

func open(path string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

func initSchema(sqlDB *sql.DB) error {
	_, err := sqlDB.Exec(`
		CREATE TABLE IF NOT EXISTS conversations (
			app_id TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			conversation_title TEXT,
			sender TEXT,
			message TEXT,
			post_time INTEGER NOT NULL,
			category TEXT,
			PRIMARY KEY (app_id, conversation_id)
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_post_time
			ON conversations(app_id, post_time DESC);
	`)
	return err
}

// Load reads the full conversation mapping. Any failure yields an empty
// mapping; the engine must start with zero conversations rather than crash.
func (s *Store) Load() map[string][]notification.ConversationRecord {
	mapping := make(map[string][]notification.ConversationRecord)
	if s.sqlDB == nil {
		return mapping
	}

	rows, err := s.sqlDB.Query(`
		SELECT app_id, conversation_id, conversation_title, sender, message, post_time, category
		FROM conversations
		ORDER BY app_id, post_time DESC
	`)
	if err != nil {
		logger.Warn().Err(err).Msg("loading conversations failed, starting empty")
		return mapping
	}
	defer rows.Close()

	for rows.Next() {
		var appID string
		var rec notification.ConversationRecord
		var title, sender, message, category sql.NullString

		if err := rows.Scan(&appID, &rec.ConversationID, &title, &sender, &message, &rec.Timestamp, &category); err != nil {
			logger.Warn().Err(err).Msg("loading conversations failed, starting empty")
			return make(map[string][]notification.ConversationRecord)
		}

		rec.ConversationTitle = db.NullStringValue(title)
		rec.Sender = db.NullStringValue(sender)
		rec.Message = db.NullStringValue(message)
		rec.Category = db.NullStringValue(category)
		mapping[appID] = append(mapping[appID], rec)
	}
	if err := rows.Err(); err != nil {
		logger.Warn().Err(err).Msg("loading conversations failed, starting empty")
		return make(map[string][]notification.ConversationRecord)
	}

	return mapping
}

// Save replaces the stored snapshot with mapping. The delete-and-reinsert
// runs in one transaction so readers never observe a partial snapshot.
func (s *Store) Save(mapping map[string][]notification.ConversationRecord) error {
	if s.sqlDB == nil {
		return nil
	}

	return db.WithTx(s.sqlDB, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM conversations`); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO conversations
				(app_id, conversation_id, conversation_title, sender, message, post_time, category)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for appID, records := range mapping {
			for _, rec := range records {
				_, err := stmt.Exec(appID, rec.ConversationID, rec.ConversationTitle,
					rec.Sender, rec.Message, rec.Timestamp, rec.Category)
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
