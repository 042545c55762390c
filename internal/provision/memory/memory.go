// Package memory implements an in-process provisioning backend
// backed by in-memory SQLite databases. Nothing touches disk, which
// makes it the driver of choice for unit tests and dry runs.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/flemzord/dbset/internal/provision"

	_ "modernc.org/sqlite" // SQLite driver registration
)

func init() {
	provision.RegisterBackend(provision.BackendInfo{
		Driver: "memory",
		New:    func() provision.Backend { return &Backend{} },
	})
}

// Compile-time interface guard.
var _ provision.Backend = (*Backend)(nil)

// Backend provisions in-memory SQLite databases. Content lives only
// as long as the connection returned by Create; Drop is a no-op and
// snapshots are not supported.
type Backend struct{}

// Create opens a fresh in-memory database. Each call yields an
// independent database, so drop-and-recreate semantics hold trivially.
func (b *Backend) Create(ctx context.Context, p provision.Params) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("memory: open %s: %w", p.Alias, err)
	}

	// The database exists per connection; more than one conn would
	// see different databases.
	db.SetMaxOpenConns(1)

	if p.SchemaPath != "" {
		schema, err := os.ReadFile(p.SchemaPath)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("memory: reading schema %s: %w", p.SchemaPath, err)
		}
		if _, err := db.ExecContext(ctx, string(schema)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("memory: applying schema to %s: %w", p.Alias, err)
		}
	}

	return db, nil
}

// Drop is a no-op: the database vanishes with its connection.
func (b *Backend) Drop(context.Context, provision.Params) error { return nil }

// Snapshot is unsupported for in-memory databases.
func (b *Backend) Snapshot(_ context.Context, p provision.Params) error {
	return fmt.Errorf("memory: %s: serialized databases need a file-backed driver", p.Alias)
}

// Restore is unsupported for in-memory databases.
func (b *Backend) Restore(_ context.Context, p provision.Params) error {
	return fmt.Errorf("memory: %s: serialized databases need a file-backed driver", p.Alias)
}
