package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public — no auth required.
	r.Get("/health", g.handleHealth())

	// Everything else requires auth when a token is configured.
	r.Group(func(r chi.Router) {
		if g.config.AuthToken != "" {
			r.Use(authMiddleware(g.config.AuthToken))
		}
		r.Get("/status", g.handleStatus())
		r.Get("/plan", g.handlePlan())
		r.Handle("/metrics", promhttp.Handler())
		if g.bus != nil {
			r.Get("/ws/events", g.handleEvents())
		}
	})

	return r
}
