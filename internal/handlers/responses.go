package handlers

import (
	"net/http"

	"finance-ledger/internal/errors"
	"finance-ledger/internal/logging"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Handlers report failures through SendError (4xx, business errors) and
// SendSystemError (5xx). SendSystemError logs the internal error and returns
// only the generic message to the client.

const (
	// TraceIDContextKey is the context key for storing the trace ID
	TraceIDContextKey = "trace_id"
	// ErrorCodeContextKey holds the code of the error response sent, for
	// the request logger
	ErrorCodeContextKey = "error_code"
)

// ErrorResponse is an alias for the standardized error response type
type ErrorResponse = errors.ErrorResponse

func getTraceID(c echo.Context) string {
	if traceID, ok := c.Get(TraceIDContextKey).(string); ok && traceID != "" {
		return traceID
	}
	return logging.TraceIDFromContext(c.Request().Context())
}

// SendError sends a standardized error response with trace ID from context
func SendError(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	errorResponse := errors.NewErrorResponse(code, getTraceID(c), opts...)
	c.Set(ErrorCodeContextKey, errorResponse.Error.Code)
	return c.JSON(errorResponse.GetHTTPStatus(), errorResponse)
}

// SendSystemError logs err and sends a 500 carrying code's message. Without a
// code the generic SYSTEM_001 response is sent.
func SendSystemError(c echo.Context, logger logrus.FieldLogger, err error, code ...errors.ErrorCode) error {
	traceID := getTraceID(c)

	errorResponse, _ := errors.WrapSystemError(err, traceID)
	if len(code) > 0 {
		errorResponse = errors.NewErrorResponse(code[0], traceID)
	}

	c.Set(ErrorCodeContextKey, errorResponse.Error.Code)

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"trace_id":   traceID,
			"error_code": errorResponse.Error.Code,
			"path":       c.Request().URL.Path,
			"method":     c.Request().Method,
		}).WithError(err).Error("request failed")
	}

	return c.JSON(http.StatusInternalServerError, errorResponse)
}
