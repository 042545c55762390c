// Package provision creates and destroys sets of test databases
// according to a creation plan: databases come up in dependency
// order, mirrors are routed to their target's live connection, and
// teardown walks the exact reverse of creation.
package provision

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"
)

// Params carries per-alias settings into a backend call.
type Params struct {
	// Alias is the database's logical name.
	Alias string

	// DataDir is the directory file-backed databases live in.
	DataDir string

	// SchemaPath optionally names a SQL file applied after creation.
	SchemaPath string
}

// Backend provisions physical databases for one driver.
type Backend interface {
	// Create drops any leftover database for the alias and creates a
	// fresh one, returning a live connection. Idempotent: a crashed
	// previous run leaves nothing that Create cannot replace.
	Create(ctx context.Context, p Params) (*sql.DB, error)

	// Drop destroys the database for the alias. Dropping an absent
	// database is not an error.
	Drop(ctx context.Context, p Params) error

	// Snapshot captures the database's current content so Restore can
	// bring it back. Used for aliases marked serialized.
	Snapshot(ctx context.Context, p Params) error

	// Restore replaces the database's content with the last snapshot.
	Restore(ctx context.Context, p Params) error
}

// BackendInfo describes a registered backend.
type BackendInfo struct {
	// Driver is the name used in configuration (e.g. "sqlite").
	Driver string

	// New returns a fresh backend instance.
	New func() Backend
}

var (
	backends   = make(map[string]BackendInfo)
	backendsMu sync.RWMutex
)

// RegisterBackend registers a backend by driver name. It panics on a
// duplicate or invalid registration. Intended to be called from
// init() functions.
func RegisterBackend(info BackendInfo) {
	if info.Driver == "" {
		panic("backend driver must not be empty")
	}
	if info.New == nil {
		panic(fmt.Sprintf("backend %s: New function must not be nil", info.Driver))
	}

	backendsMu.Lock()
	defer backendsMu.Unlock()

	if _, exists := backends[info.Driver]; exists {
		panic(fmt.Sprintf("backend already registered: %s", info.Driver))
	}
	backends[info.Driver] = info
}

// GetBackend returns the BackendInfo for a driver, or false if not
// registered.
func GetBackend(driver string) (BackendInfo, bool) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	info, ok := backends[driver]
	return info, ok
}

// Backends returns all registered backends sorted by driver name.
func Backends() []BackendInfo {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	result := make([]BackendInfo, 0, len(backends))
	for _, info := range backends {
		result = append(result, info)
	}
	slices.SortFunc(result, func(a, b BackendInfo) int {
		return cmp.Compare(a.Driver, b.Driver)
	})
	return result
}
