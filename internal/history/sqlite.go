package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// OpenDB opens (or creates) a SQLite database at the given path, ensuring
// that the parent directory exists. Requires the sqlite_fts5 build tag so
// the text-search index is available.
func OpenDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open db at %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db at %s: %w", path, err)
	}

	return db, nil
}

// NewStore returns a store of the requested schema variant backed by db.
func NewStore(db *sql.DB, variant Variant) (Store, error) {
	switch variant {
	case VariantTurns:
		return &TurnStore{db: db}, nil
	case VariantMessages:
		return &MessageStore{db: db}, nil
	default:
		return nil, fmt.Errorf("unknown schema variant: %q", variant)
	}
}
