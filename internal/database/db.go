package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// InMemoryDSN keeps the history log in-process only; it disappears with the
// process, which is exactly the lifetime the sent-message log wants.
const InMemoryDSN = ":memory:"

// Open opens sqlite with sensible defaults. A single connection keeps an
// in-memory database alive for the whole process.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		dsn = InMemoryDSN
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", dsn))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return db, nil
}

// Now returns UTC time truncated to seconds (consistent with SQLite default).
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
