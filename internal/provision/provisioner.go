package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/dbset/internal/conn"
	"github.com/flemzord/dbset/internal/events"
	"github.com/flemzord/dbset/internal/plan"
	"github.com/flemzord/dbset/internal/worker"
)

// Database describes one alias for the engine. It mirrors the
// configuration shape without depending on the config package.
type Database struct {
	Driver     string
	DependsOn  []string
	Mirror     string
	Serialized bool
	SchemaPath string
}

// Options configures an Engine.
type Options struct {
	// DataDir is where file-backed databases live.
	DataDir string

	// Workers bounds parallel creation steps. Defaults to 1.
	Workers int

	// Plan holds planning policy.
	Plan plan.Options

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Bus, when set, receives lifecycle events.
	Bus *events.Bus
}

// State tracks one alias through its lifecycle.
type State string

// Alias lifecycle states.
const (
	StatePending  State = "pending"
	StateCreated  State = "created"
	StateMirrored State = "mirrored"
	StateDropped  State = "dropped"
	StateFailed   State = "failed"
)

// AliasStatus is a point-in-time view of one alias.
type AliasStatus struct {
	Alias  string `json:"alias"`
	Driver string `json:"driver,omitempty"`
	Mirror string `json:"mirror,omitempty"`
	State  State  `json:"state"`
	Error  string `json:"error,omitempty"`
}

// Engine provisions and tears down a database set.
type Engine struct {
	databases map[string]Database
	opts      Options
	conns     *conn.Registry
	tracer    trace.Tracer

	mu     sync.Mutex
	states map[string]*AliasStatus
	plan   *plan.Plan
}

// New creates an Engine for the given database set.
func New(databases map[string]Database, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	states := make(map[string]*AliasStatus, len(databases))
	for alias, db := range databases {
		states[alias] = &AliasStatus{
			Alias:  alias,
			Driver: db.Driver,
			Mirror: db.Mirror,
			State:  StatePending,
		}
	}

	return &Engine{
		databases: databases,
		opts:      opts,
		conns:     conn.NewRegistry(),
		tracer:    otel.Tracer("dbset/provision"),
		states:    states,
	}
}

// Conns returns the connection registry populated by Up.
func (e *Engine) Conns() *conn.Registry { return e.conns }

// Plan builds the creation plan without touching any database.
func (e *Engine) Plan() (*plan.Plan, error) {
	specs := make(map[string]plan.Spec, len(e.databases))
	for alias, db := range e.databases {
		specs[alias] = plan.Spec{
			DependsOn:  db.DependsOn,
			Mirror:     db.Mirror,
			Serialized: db.Serialized,
		}
	}
	return plan.Build(specs, e.opts.Plan)
}

// Status returns the current state of every alias, sorted by alias.
func (e *Engine) Status() []AliasStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]AliasStatus, 0, len(e.states))
	for _, st := range e.states {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

func (e *Engine) setState(alias string, state State, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[alias]
	if !ok {
		return
	}
	st.State = state
	st.Error = ""
	if err != nil {
		st.Error = err.Error()
	}
}

func (e *Engine) publish(t events.Type, alias string, err error) {
	if e.opts.Bus == nil {
		return
	}
	ev := events.Event{Type: t, Alias: alias}
	if err != nil {
		ev.Error = err.Error()
	}
	e.opts.Bus.Publish(ev)
}

// Up builds the plan and creates every physical database in
// dependency order, then routes mirrors to their targets. Planning
// defects abort before any database is touched.
func (e *Engine) Up(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "provision.up")
	defer span.End()

	e.publish(events.TypePlanning, "", nil)
	pl, err := e.Plan()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "planning failed")
		e.publish(events.TypeFailed, "", err)
		return err
	}

	steps := make([]worker.Step, 0, len(pl.Order))
	for _, alias := range pl.Order {
		steps = append(steps, worker.Step{Alias: alias, DependsOn: pl.Deps[alias]})
	}

	e.opts.Logger.Info("provisioning database set",
		"databases", len(pl.Order),
		"mirrors", len(pl.Mirrors),
		"workers", e.opts.Workers,
	)

	if err := worker.Run(ctx, steps, e.opts.Workers, e.create); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provisioning failed")
		return err
	}

	// Mirrors route to connections that now all exist.
	mirrors := make([]string, 0, len(pl.Mirrors))
	for mirror := range pl.Mirrors {
		mirrors = append(mirrors, mirror)
	}
	sort.Strings(mirrors)
	for _, mirror := range mirrors {
		target := pl.Mirrors[mirror]
		if err := e.conns.Redirect(mirror, target); err != nil {
			span.RecordError(err)
			e.setState(mirror, StateFailed, err)
			e.publish(events.TypeFailed, mirror, err)
			return err
		}
		e.setState(mirror, StateMirrored, nil)
		e.publish(events.TypeMirrored, mirror, nil)
		e.opts.Logger.Info("mirror routed", "alias", mirror, "target", target)
	}

	e.mu.Lock()
	e.plan = pl
	e.mu.Unlock()
	return nil
}

// create provisions a single alias. Called from the worker pool.
func (e *Engine) create(ctx context.Context, alias string) error {
	db := e.databases[alias]
	ctx, span := e.tracer.Start(ctx, "db.create", trace.WithAttributes(
		attribute.String("alias", alias),
		attribute.String("driver", db.Driver),
	))
	defer span.End()

	info, ok := GetBackend(db.Driver)
	if !ok {
		err := fmt.Errorf("provision: database %q: unknown driver %q", alias, db.Driver)
		e.setState(alias, StateFailed, err)
		e.publish(events.TypeFailed, alias, err)
		return err
	}
	backend := info.New()
	params := Params{Alias: alias, DataDir: e.opts.DataDir, SchemaPath: db.SchemaPath}

	start := time.Now()
	sqlDB, err := backend.Create(ctx, params)
	stepDuration.WithLabelValues(db.Driver, "create").Observe(time.Since(start).Seconds())
	if err != nil {
		failuresTotal.WithLabelValues(db.Driver, "create").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		e.setState(alias, StateFailed, err)
		e.publish(events.TypeFailed, alias, err)
		return err
	}

	if db.Serialized {
		if err := backend.Snapshot(ctx, params); err != nil {
			failuresTotal.WithLabelValues(db.Driver, "snapshot").Inc()
			span.RecordError(err)
			_ = sqlDB.Close()
			e.setState(alias, StateFailed, err)
			e.publish(events.TypeFailed, alias, err)
			return err
		}
		e.publish(events.TypeSnapshot, alias, nil)
	}

	e.conns.Put(alias, sqlDB)
	createdTotal.WithLabelValues(db.Driver).Inc()
	e.setState(alias, StateCreated, nil)
	e.publish(events.TypeCreated, alias, nil)
	e.opts.Logger.Info("database created", "alias", alias, "driver", db.Driver)
	return nil
}

// Down destroys the set in exactly the reverse of the creation
// order. Mirror redirects are released first; nothing physical was
// created for them. Teardown is best-effort: one failed drop does not
// stop the rest, and all failures are joined.
func (e *Engine) Down(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "provision.down")
	defer span.End()

	e.mu.Lock()
	pl := e.plan
	e.mu.Unlock()
	if pl == nil {
		// Down in a fresh process: rebuild the plan from config.
		var err error
		pl, err = e.Plan()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "planning failed")
			return err
		}
	}

	mirrors := make([]string, 0, len(pl.Mirrors))
	for mirror := range pl.Mirrors {
		mirrors = append(mirrors, mirror)
	}
	sort.Strings(mirrors)
	for _, mirror := range mirrors {
		if err := e.conns.Release(mirror); err != nil && !errors.Is(err, conn.ErrUnknownAlias) {
			e.opts.Logger.Error("mirror release failed", "alias", mirror, "error", err)
		}
		e.setState(mirror, StateDropped, nil)
		e.publish(events.TypeReleased, mirror, nil)
	}

	var errs []error
	for _, alias := range pl.TeardownOrder() {
		db := e.databases[alias]
		if err := e.drop(ctx, alias, db); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "teardown incomplete")
		return err
	}
	return nil
}

func (e *Engine) drop(ctx context.Context, alias string, db Database) error {
	ctx, span := e.tracer.Start(ctx, "db.drop", trace.WithAttributes(
		attribute.String("alias", alias),
		attribute.String("driver", db.Driver),
	))
	defer span.End()

	if err := e.conns.Release(alias); err != nil && !errors.Is(err, conn.ErrUnknownAlias) {
		e.opts.Logger.Error("connection close failed", "alias", alias, "error", err)
	}

	info, ok := GetBackend(db.Driver)
	if !ok {
		return fmt.Errorf("provision: database %q: unknown driver %q", alias, db.Driver)
	}
	params := Params{Alias: alias, DataDir: e.opts.DataDir, SchemaPath: db.SchemaPath}

	start := time.Now()
	err := info.New().Drop(ctx, params)
	stepDuration.WithLabelValues(db.Driver, "drop").Observe(time.Since(start).Seconds())
	if err != nil {
		failuresTotal.WithLabelValues(db.Driver, "drop").Inc()
		span.RecordError(err)
		e.setState(alias, StateFailed, err)
		e.publish(events.TypeFailed, alias, err)
		return fmt.Errorf("provision: dropping %s: %w", alias, err)
	}

	droppedTotal.WithLabelValues(db.Driver).Inc()
	e.setState(alias, StateDropped, nil)
	e.publish(events.TypeDropped, alias, nil)
	e.opts.Logger.Info("database dropped", "alias", alias, "driver", db.Driver)
	return nil
}
