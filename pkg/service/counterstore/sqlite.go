package counterstore

import (
	"context"
	"database/sql"
	"strings"

	// Registers the "sqlite" driver.
	_ "modernc.org/sqlite"
)

// Ensure SQLiteAdapter implements the Counter interface.
var _ Counter = (*SQLiteAdapter)(nil)

// SQLiteAdapter is a Counter backed by a SQLite database file.
type SQLiteAdapter struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at path and initialises
// the counter table.
func OpenSQLite(ctx context.Context, path string) (*SQLiteAdapter, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, unavailable(err, "unable to open SQLite database %q", path)
	}
	// A single writer connection keeps ":memory:" databases shared and avoids
	// SQLITE_BUSY between connections of the same process.
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+CollectionName+` (
			name  TEXT PRIMARY KEY,
			count INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, unavailable(err, "unable to create table %s", CollectionName)
	}
	return &SQLiteAdapter{db: db}, nil
}

func sqliteDSN(path string) string {
	if path == ":memory:" || strings.Contains(path, "_pragma=busy_timeout") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)"
}

// IncrementAndGet increments the counter with the given name in a single
// upsert statement.
func (s *SQLiteAdapter) IncrementAndGet(ctx context.Context, name string) (int64, error) {
	if err := validName(name); err != nil {
		return 0, err
	}
	var count int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO `+CollectionName+` (name, count) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET count = count + 1
		RETURNING count
	`, name).Scan(&count)
	if err != nil {
		return 0, unavailable(err, "failed to increment counter %q in SQLite", name)
	}
	return count, nil
}

// Get gets the current value of a counter.
func (s *SQLiteAdapter) Get(ctx context.Context, name string) (int64, error) {
	if err := validName(name); err != nil {
		return 0, err
	}
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT count FROM `+CollectionName+` WHERE name = ?`, name,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable(err, "failed to get counter %q from SQLite", name)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *SQLiteAdapter) Close(_ context.Context) error {
	return unavailable(s.db.Close(), "failed to close SQLite database")
}
