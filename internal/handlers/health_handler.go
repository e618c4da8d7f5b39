package handlers

import (
	"context"
	"net/http"
	"time"

	"finance-ledger/internal/errors"

	"github.com/labstack/echo/v4"
)

// HealthChecker is satisfied by *database.DB
type HealthChecker interface {
	HealthCheck() error
}

// Pinger is satisfied by every cache.Cache
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheckHandler handles the liveness and readiness endpoints
type HealthCheckHandler struct {
	db    HealthChecker
	cache Pinger
}

func NewHealthCheckHandler(db HealthChecker, cache Pinger) *HealthCheckHandler {
	return &HealthCheckHandler{db: db, cache: cache}
}

// HealthCheck reports that the process is serving.
//
// GET /health
func (h *HealthCheckHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready checks the database and the cache. A cache outage degrades the
// service but does not make it unready.
//
// GET /health/ready
func (h *HealthCheckHandler) Ready(c echo.Context) error {
	if err := h.db.HealthCheck(); err != nil {
		return SendError(c, errors.SystemServiceUnavailable, errors.WithDetails("Database connection failed"))
	}

	cacheStatus := "up"
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "down"
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "up",
		"cache":    cacheStatus,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
