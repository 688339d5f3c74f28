// Package migrations holds the postgres schema as embedded SQL files.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/go-extras/go-kit/must"
)

//go:embed sql/*.sql
var files embed.FS

// FS returns the embedded migration files, rooted at the sql directory.
func FS() fs.FS {
	return must.Must(fs.Sub(files, "sql"))
}

// Files lists the migration files for direction ("up" or "down") in the
// order they must run.
func Files(fsys fs.FS, direction string) ([]string, error) {
	names, err := fs.Glob(fsys, "*."+direction+".sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	if direction == "down" {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}
	return names, nil
}

// Apply runs every migration file for direction against db. Statements in a
// file run in one transaction.
func Apply(ctx context.Context, db *sql.DB, fsys fs.FS, direction string) ([]string, error) {
	names, err := Files(fsys, direction)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	for _, name := range names {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(body)) == "" {
			continue
		}
		if err := execFile(ctx, db, string(body)); err != nil {
			return nil, fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return names, nil
}

func execFile(ctx context.Context, db *sql.DB, body string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, body); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
