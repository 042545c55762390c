// Package gateway exposes the daemon's HTTP surface: health, status,
// the creation plan, prometheus metrics, and a websocket feed of
// provisioning events. It is a leaf component — nothing imports it.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/flemzord/dbset/internal/events"
	"github.com/flemzord/dbset/internal/provision"
)

const shutdownTimeout = 10 * time.Second

// Config holds the gateway's settings.
type Config struct {
	// Listen is the address to bind, e.g. "127.0.0.1:8537".
	Listen string

	// AuthToken protects non-public endpoints with bearer auth. When
	// empty only /health is mounted.
	AuthToken string
}

// Gateway serves the HTTP surface for a provisioning engine.
type Gateway struct {
	config    Config
	logger    *slog.Logger
	engine    *provision.Engine
	bus       *events.Bus
	server    *http.Server
	startedAt time.Time

	mu   sync.Mutex
	addr string
}

// New creates a Gateway. The bus may be nil, in which case the
// websocket feed is not mounted.
func New(cfg Config, engine *provision.Engine, bus *events.Bus, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config: cfg,
		logger: logger,
		engine: engine,
		bus:    bus,
	}
}

// Addr returns the bound address once Start has succeeded. Useful
// when Listen was ":0".
func (g *Gateway) Addr() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addr
}

// Start binds the listener and serves in the background.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	mux := g.buildRouter()
	g.server = &http.Server{
		Addr:         g.config.Listen,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Listen)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}
	g.mu.Lock()
	g.addr = ln.Addr().String()
	g.mu.Unlock()

	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return g.server.Shutdown(shutdownCtx)
}
