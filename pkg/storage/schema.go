package storage

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY,
		expression TEXT NOT NULL,
		reading TEXT,
		source TEXT NOT NULL,
		speaker TEXT,
		display TEXT,
		file TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_expression_source ON entries (expression, source)`,
}

// CreateSchema creates the entries table and its lookup index in db.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// CreateDatabase creates (or opens) a writable index at path and ensures the
// schema exists.
func CreateDatabase(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warnf("failed to close %s: %v", path, err)
		}
	}()

	return CreateSchema(ctx, db)
}
