package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is anything that can report its own reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness and the reachability of the database and,
// when configured, Redis.
type HealthHandler struct {
	DB    Pinger
	Redis func(ctx context.Context) error
}

// Health answers 503 only when the database is unreachable.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := echo.Map{}
	healthy := true
	if h.DB != nil {
		checks["database"] = "ok"
		if err := h.DB.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
	}
	if h.Redis != nil {
		checks["redis"] = "ok"
		if err := h.Redis(ctx); err != nil {
			// the in-memory session store keeps bookings working without it
			checks["redis"] = err.Error()
		}
	} else {
		checks["redis"] = "disabled"
	}

	code := http.StatusOK
	status := "ok"
	if !healthy {
		code, status = http.StatusServiceUnavailable, "degraded"
	}
	return c.JSON(code, echo.Map{"status": status, "checks": checks})
}
