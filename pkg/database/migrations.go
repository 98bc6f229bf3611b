package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
)

// CreateGINIndexes creates full-text search GIN indexes for PostgreSQL.
// These indexes enable efficient full-text search on finding titles and
// hunt module source documents.
func CreateGINIndexes(ctx context.Context, driver *sql.Driver) error {
	db := driver.DB()

	// GIN index for finding title full-text search
	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_findings_title_gin
		ON findings USING gin(to_tsvector('english', title))`)
	if err != nil {
		return fmt.Errorf("failed to create findings title GIN index: %w", err)
	}

	// GIN index for hunt module source full-text search
	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_hunt_modules_raw_source_gin
		ON hunt_modules USING gin(to_tsvector('english', raw_source))`)
	if err != nil {
		return fmt.Errorf("failed to create hunt_modules raw_source GIN index: %w", err)
	}

	return nil
}
