package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger is anything that can report its own reachability.
type Pinger func(ctx context.Context) error

// HealthHandler answers liveness and readiness probes.  Checks are keyed
// by dependency name; optional dependencies are simply not registered.
type HealthHandler struct {
	Checks map[string]Pinger
}

// Health is a liveness probe: the process is up and serving.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready pings every registered dependency and answers 503 listing the ones
// that failed.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	failed := echo.Map{}
	for name, ping := range h.Checks {
		if err := ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "failed": failed})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
}
