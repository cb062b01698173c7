// ABOUTME: MySQL backend for the WordPress mirror using go-sql-driver/mysql
// ABOUTME: This is the production path; the host schema lives in MySQL/MariaDB

package wpdb

import (
	"fmt"
	"log/slog"
	"time"

	"database/sql"

	_ "github.com/go-sql-driver/mysql"
)

// OpenMySQL opens a pooled connection to the WordPress MySQL database.
// The DSN follows go-sql-driver syntax, e.g.
// "wp:secret@tcp(db:3306)/wordpress?parseTime=true". The connection is
// verified with a ping so misconfiguration fails at startup, not on the
// first authenticated request.
func OpenMySQL(dsn, tablePrefix string, queryTimeout time.Duration) (Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql: %w", err)
	}

	// Read-mostly workload with short queries; keep the pool small.
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: pinging mysql: %v", ErrUnavailable, err)
	}

	slog.Default().Info("connected to WordPress database", "driver", "mysql", "table_prefix", tablePrefix)
	return newSQLStore(db, tablePrefix, queryTimeout), nil
}
