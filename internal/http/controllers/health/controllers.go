// Package health contiene /healthz y /readyz.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/schooldir/internal/http/helpers"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
)

// Checker es un componente que puede estar caído (store, cache).
type Checker interface {
	Ping(ctx context.Context) error
}

// Controller maneja los health checks.
type Controller struct {
	checks  map[string]Checker
	version string
}

func NewController(version string, checks map[string]Checker) *Controller {
	return &Controller{checks: checks, version: version}
}

type readyResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components"`
}

// Healthz: el proceso responde.
func (c *Controller) Healthz(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz pinguea cada componente con timeout corto. 503 si alguno falla.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := readyResponse{Status: "ready", Version: c.version, Components: map[string]string{}}
	status := http.StatusOK
	for name, chk := range c.checks {
		if err := chk.Ping(ctx); err != nil {
			logger.From(ctx).Warn("readiness check failed", logger.Component(name), logger.Err(err))
			resp.Components[name] = "down"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = "up"
	}
	helpers.WriteJSON(w, status, resp)
}
