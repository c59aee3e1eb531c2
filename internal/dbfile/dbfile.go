package dbfile

import (
	"context"
	"database/sql"
	"fmt"

	// Register the CGO-free SQLite driver under the name "sqlite".
	_ "modernc.org/sqlite"
)

// SharedDBName is the database file DynamoDB Local creates in its working
// directory when started with -sharedDb.
const SharedDBName = "shared-local-instance.db"

// TableNames opens the SQLite database at dbPath read-only and returns the
// names of all tables, sorted by SQLite's default sqlite_master order.
//
// The emulator must not be running against the file while it is inspected;
// callers use this between a stop and a restart.
func TableNames(ctx context.Context, dbPath string) (names []string, retErr error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("close database: %w", closeErr)
		}
	}()

	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("query tables in %s: %w", dbPath, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables in %s: %w", dbPath, err)
	}
	return names, nil
}
