package database

import (
	"context"
	"database/sql"
	"fmt"
)

const versionQuery = `SELECT COALESCE(MAX(version_id), 0) FROM goose_db_version WHERE is_applied`

// SchemaVersion returns the newest applied migration version.
func SchemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	var version int64
	if err := db.QueryRowContext(ctx, versionQuery).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// CheckSchema fails when the database is behind the migrations in this binary.
func CheckSchema(ctx context.Context, db *sql.DB) error {
	want, err := LatestVersion()
	if err != nil {
		return err
	}
	got, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	if got < want {
		return fmt.Errorf("schema version %d is behind expected %d", got, want)
	}
	return nil
}
