// Package sqlite implements the file-backed SQLite provisioning
// backend. It uses modernc.org/sqlite (pure Go, no CGO) with WAL mode
// and a busy timeout. Each alias gets one database file under the
// data directory; snapshots use VACUUM INTO so they are consistent
// even with WAL enabled.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flemzord/dbset/internal/provision"

	_ "modernc.org/sqlite" // SQLite driver registration
)

func init() {
	provision.RegisterBackend(provision.BackendInfo{
		Driver: "sqlite",
		New:    func() provision.Backend { return &Backend{} },
	})
}

const defaultBusyTimeout = 5000 // milliseconds

// Compile-time interface guard.
var _ provision.Backend = (*Backend)(nil)

// Backend provisions file-backed SQLite databases.
type Backend struct{}

func dbPath(p provision.Params) string {
	return filepath.Join(p.DataDir, p.Alias+".db")
}

func snapshotPath(p provision.Params) string {
	return filepath.Join(p.DataDir, p.Alias+".snapshot")
}

// Create removes any leftover database for the alias and opens a
// fresh one. The connection is limited to a single conn so the
// PRAGMAs apply consistently (SQLite serialises writes anyway).
func (b *Backend) Create(ctx context.Context, p provision.Params) (*sql.DB, error) {
	if err := b.Drop(ctx, p); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(p.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("sqlite: create directory %s: %w", p.DataDir, err)
	}

	path := dbPath(p)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}

	if p.SchemaPath != "" {
		schema, err := os.ReadFile(p.SchemaPath)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: reading schema %s: %w", p.SchemaPath, err)
		}
		if _, err := db.ExecContext(ctx, string(schema)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: applying schema to %s: %w", p.Alias, err)
		}
	}

	return db, nil
}

// Drop removes the database file together with its WAL sidecars and
// any snapshot. An absent database is not an error.
func (b *Backend) Drop(_ context.Context, p provision.Params) error {
	path := dbPath(p)
	for _, f := range []string{path, path + "-wal", path + "-shm", snapshotPath(p)} {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("sqlite: removing %s: %w", f, err)
		}
	}
	return nil
}

// Snapshot writes a consistent copy of the database next to it using
// VACUUM INTO, replacing any previous snapshot.
func (b *Backend) Snapshot(ctx context.Context, p provision.Params) error {
	snap := snapshotPath(p)
	if err := os.Remove(snap); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("sqlite: removing old snapshot %s: %w", snap, err)
	}

	db, err := sql.Open("sqlite", dbPath(p))
	if err != nil {
		return fmt.Errorf("sqlite: open %s: %w", dbPath(p), err)
	}
	defer db.Close()

	quoted := strings.ReplaceAll(snap, "'", "''")
	if _, err := db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		return fmt.Errorf("sqlite: snapshot %s: %w", p.Alias, err)
	}
	return nil
}

// Restore replaces the database file with the last snapshot. Existing
// connections keep the old content; callers reopen connections after
// a restore.
func (b *Backend) Restore(_ context.Context, p provision.Params) error {
	snap, err := os.ReadFile(snapshotPath(p))
	if err != nil {
		return fmt.Errorf("sqlite: reading snapshot for %s: %w", p.Alias, err)
	}

	path := dbPath(p)
	for _, f := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("sqlite: removing %s: %w", f, err)
		}
	}
	if err := os.WriteFile(path, snap, 0o600); err != nil {
		return fmt.Errorf("sqlite: restoring %s: %w", p.Alias, err)
	}
	return nil
}
