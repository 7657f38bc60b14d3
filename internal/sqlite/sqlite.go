// Package sqlite opens SQLite databases through the pure Go
// modernc.org/sqlite driver. Use Open instead of sql.Open directly so the
// driver name stays in one place.
package sqlite

import (
	"database/sql"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const driverName = "sqlite"

// Open opens a SQLite database.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// OpenReadOnly opens a SQLite database in read-only mode. The retrieval
// pipeline only ever introspects and compiles queries, so read-only is the
// right mode for the question-answering path.
func OpenReadOnly(path string) (*sql.DB, error) {
	return Open("file:" + path + "?mode=ro")
}

// OpenMemory opens a private in-memory database. The pool is capped at one
// connection because each new connection would otherwise see its own empty
// memory database.
func OpenMemory() (*sql.DB, error) {
	db, err := Open(":memory:")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	return db, nil
}
