package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"finance-ledger/internal/errors"
	"finance-ledger/internal/handlers"
	"finance-ledger/internal/logging"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// PanicRecovery recovers from panics and returns a SYSTEM_001 response
func PanicRecovery(logger logrus.FieldLogger) echo.MiddlewareFunc {
	log := logging.WithComponent(logger, "recovery")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				traceID := GetTraceID(c)
				if traceID == "" {
					traceID = "unknown"
				}

				log.WithFields(logrus.Fields{
					"trace_id":    traceID,
					"panic":       fmt.Sprintf("%v", r),
					"stack_trace": string(debug.Stack()),
					"path":        c.Request().URL.Path,
					"method":      c.Request().Method,
				}).Error("panic recovered")

				errorResponse := errors.NewErrorResponse(errors.SystemInternalError, traceID)
				c.Set(handlers.ErrorCodeContextKey, errorResponse.Error.Code)

				if err := c.JSON(http.StatusInternalServerError, errorResponse); err != nil {
					log.WithField("trace_id", traceID).WithError(err).Error("failed to send panic recovery response")
				}
			}()

			return next(c)
		}
	}
}
