// ABOUTME: SQLite backend for the WordPress mirror using modernc.org/sqlite
// ABOUTME: Serves local mirror files and the test suite; same queries as MySQL

package wpdb

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens a WordPress-shaped SQLite mirror at the given path.
// Useful for local development against a dumped mirror and for tests.
func OpenSQLite(path, tablePrefix string, queryTimeout time.Duration) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: opening sqlite mirror: %v", ErrUnavailable, err)
	}

	return newSQLStore(db, tablePrefix, queryTimeout), nil
}

// CreateMirrorSchema creates the subset of the WordPress schema this service
// reads, on an empty SQLite database. Only tests and local tooling call this;
// the production mirror is populated by replication, never by this service.
func CreateMirrorSchema(store Store, tablePrefix string) error {
	s, ok := store.(*sqlStore)
	if !ok {
		return fmt.Errorf("mirror schema requires a SQL-backed store")
	}
	if tablePrefix == "" {
		tablePrefix = "wp_"
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]susers (
			ID INTEGER PRIMARY KEY,
			user_login TEXT NOT NULL UNIQUE,
			user_nicename TEXT NOT NULL,
			display_name TEXT NOT NULL,
			user_email TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS %[1]susermeta (
			umeta_id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			meta_key TEXT NOT NULL,
			meta_value TEXT
		);

		CREATE TABLE IF NOT EXISTS %[1]soptions (
			option_id INTEGER PRIMARY KEY AUTOINCREMENT,
			option_name TEXT NOT NULL UNIQUE,
			option_value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS %[1]sh5p_libraries (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			major_version INTEGER NOT NULL,
			minor_version INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS %[1]sh5p_contents (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			parameters TEXT NOT NULL,
			embed_type TEXT NOT NULL,
			library_id INTEGER NOT NULL
		);`,
		tablePrefix,
	)

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("creating mirror schema: %w", err)
	}
	return nil
}

// Exec runs a raw statement against a SQL-backed store. Test fixtures use it
// to seed mirror rows.
func Exec(store Store, query string, args ...interface{}) error {
	s, ok := store.(*sqlStore)
	if !ok {
		return fmt.Errorf("exec requires a SQL-backed store")
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}
