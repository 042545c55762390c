// Package core manages the lifecycle of the daemon's components:
// start in registration order, stop in reverse with a timeout. The
// same symmetry the provisioner applies to databases, applied to the
// process.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 30 * time.Second

// Starter is implemented by components that need to start background
// work (goroutines, listeners).
type Starter interface {
	Start() error
}

// Stopper is implemented by components that need to clean up
// resources. Called during shutdown in reverse order of Start().
type Stopper interface {
	Stop(ctx context.Context) error
}

type component struct {
	name    string
	value   any
	started bool
}

// App manages an ordered set of components.
type App struct {
	components []component
	logger     *slog.Logger
}

// NewApp creates an empty App.
func NewApp(logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{logger: logger.With("component", "core")}
}

// Append registers a component. Order of registration is start order.
func (a *App) Append(name string, value any) {
	a.components = append(a.components, component{name: name, value: value})
}

// Start starts every component implementing Starter, in order. If one
// fails, already-started components are stopped in reverse order.
func (a *App) Start() error {
	for i := range a.components {
		c := &a.components[i]
		s, ok := c.value.(Starter)
		if !ok {
			continue
		}
		a.logger.Info("starting component", "name", c.name)
		if err := s.Start(); err != nil {
			a.logger.Error("component start failed", "name", c.name, "error", err)
			a.stopFrom(i - 1)
			return fmt.Errorf("starting %s: %w", c.name, err)
		}
		c.started = true
	}
	a.logger.Info("all components started")
	return nil
}

// Stop stops all started components in reverse order with a timeout.
func (a *App) Stop() {
	a.stopFrom(len(a.components) - 1)
}

func (a *App) stopFrom(fromIndex int) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i := fromIndex; i >= 0; i-- {
		c := &a.components[i]
		if !c.started {
			continue
		}
		if s, ok := c.value.(Stopper); ok {
			a.logger.Info("stopping component", "name", c.name)
			if err := s.Stop(ctx); err != nil {
				a.logger.Error("component stop error", "name", c.name, "error", err)
			}
		}
		c.started = false
	}
}

// Run starts all components and blocks until SIGINT or SIGTERM, then
// stops them.
func (a *App) Run() error {
	if err := a.Start(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	s := <-sig
	a.logger.Info("shutdown signal received", "signal", s.String())

	a.Stop()
	return nil
}
