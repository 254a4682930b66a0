package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DumpSQLite writes a consistent copy of a SQLite database into dir using
// VACUUM INTO and returns the path of the new file. The caller owns the file.
func DumpSQLite(ctx context.Context, d *sql.DB, dir string, now time.Time) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("db: dump dir: %w", err)
	}
	path := filepath.Join(dir, DumpFileName(now))
	// VACUUM INTO refuses to overwrite an existing file.
	_ = os.Remove(path)

	// VACUUM does not accept bound parameters for the target file.
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	if _, err := d.ExecContext(ctx, "VACUUM INTO "+quoted); err != nil {
		return "", fmt.Errorf("db: vacuum into: %w", err)
	}
	return path, nil
}

// DumpFileName is the attachment name for a dump taken at t.
func DumpFileName(t time.Time) string {
	return t.Format("20060102-1504") + ".sqlite3"
}
