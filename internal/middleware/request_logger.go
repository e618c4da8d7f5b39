package middleware

import (
	"strconv"
	"time"

	"finance-ledger/internal/handlers"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request and counts error responses in
// api_errors_total. Returned errors are rendered here so the status is known.
func RequestLogger(logger logrus.FieldLogger, metrics services.MetricsRecorderInterface) echo.MiddlewareFunc {
	log := logging.WithComponent(logger, "http")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			entry := log.WithFields(logrus.Fields{
				"trace_id":   GetTraceID(c),
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"route":      c.Path(),
				"status":     status,
				"latency_ms": time.Since(start).Milliseconds(),
				"ip":         clientIP(c),
			})

			if status < 400 {
				entry.Info("request completed")
				return nil
			}

			code, _ := c.Get(handlers.ErrorCodeContextKey).(string)
			if code == "" {
				code = "UNKNOWN"
			}
			metrics.IncrementCounter(services.MetricAPIError, map[string]string{
				"code":     code,
				"endpoint": c.Path(),
				"status":   strconv.Itoa(status),
			})

			entry.WithField("error_code", code).Warn("request completed with error")
			return nil
		}
	}
}
