package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/flemzord/dbset/internal/plan"
	"github.com/flemzord/dbset/internal/provision"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Databases int    `json:"databases"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status:    "ok",
			Databases: len(g.engine.Status()),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime    time.Duration           `json:"uptime_seconds"`
	Databases []provision.AliasStatus `json:"databases"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			Uptime:    time.Since(g.startedAt).Truncate(time.Second),
			Databases: g.engine.Status(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// PlanResponse is the JSON response for GET /plan.
type PlanResponse struct {
	Order    []string          `json:"order"`
	Teardown []string          `json:"teardown"`
	Mirrors  map[string]string `json:"mirrors,omitempty"`
}

// handlePlan returns an http.HandlerFunc for GET /plan. Planning is
// pure, so this recomputes from configuration on every request.
func (g *Gateway) handlePlan() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		pl, err := g.engine.Plan()
		if err != nil {
			status := http.StatusInternalServerError
			var cfgErr *plan.ConfigError
			if errors.As(err, &cfgErr) {
				status = http.StatusUnprocessableEntity
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		resp := PlanResponse{
			Order:    pl.Order,
			Teardown: pl.TeardownOrder(),
			Mirrors:  pl.Mirrors,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
