// Package conn routes live database connections by alias. Mirror
// aliases hold no connection of their own; they redirect to their
// target's connection, so a test exercising a "replica" touches the
// same physical database as its primary.
package conn

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Sentinel errors for connection routing.
var (
	// ErrUnknownAlias indicates no connection or redirect is
	// registered under the requested alias.
	ErrUnknownAlias = errors.New("conn: unknown alias")

	// ErrNoTarget indicates a redirect was requested to an alias that
	// holds no live connection.
	ErrNoTarget = errors.New("conn: redirect target has no connection")
)

// Registry maps aliases to live connections and mirror redirects.
// Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	conns     map[string]*sql.DB
	redirects map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:     make(map[string]*sql.DB),
		redirects: make(map[string]string),
	}
}

// Put registers the live connection for an alias, replacing any
// previous one.
func (r *Registry) Put(alias string, db *sql.DB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[alias] = db
}

// Redirect routes all lookups for mirror to the target's connection.
// The target must already hold a live connection; redirects never
// chain.
func (r *Registry) Redirect(mirror, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[target]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrNoTarget, mirror, target)
	}
	r.redirects[mirror] = target
	return nil
}

// Get returns the connection for an alias, following a mirror
// redirect when present.
func (r *Registry) Get(alias string) (*sql.DB, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.redirects[alias]; ok {
		alias = target
	}
	db, ok := r.conns[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlias, alias)
	}
	return db, nil
}

// Release removes an alias. For a mirror this only drops the
// redirect; the target's connection stays open. For a physical alias
// the connection is closed.
func (r *Registry) Release(alias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.redirects[alias]; ok {
		delete(r.redirects, alias)
		return nil
	}
	db, ok := r.conns[alias]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAlias, alias)
	}
	delete(r.conns, alias)
	return db.Close()
}

// Aliases returns all registered aliases (connections and redirects),
// sorted.
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.conns)+len(r.redirects))
	for alias := range r.conns {
		out = append(out, alias)
	}
	for alias := range r.redirects {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// Close releases every redirect and closes every physical connection.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for alias := range r.redirects {
		delete(r.redirects, alias)
	}
	for alias, db := range r.conns {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("conn: closing %s: %w", alias, err))
		}
		delete(r.conns, alias)
	}
	return errors.Join(errs...)
}
