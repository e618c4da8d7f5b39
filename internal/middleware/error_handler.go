package middleware

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"

	"finance-ledger/internal/errors"
	"finance-ledger/internal/handlers"
	"finance-ledger/internal/logging"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// NewHTTPErrorHandler returns an echo error handler that formats every
// returned error as a standardized error response and logs it. Internal
// errors are replaced by the generic SYSTEM_001 message.
func NewHTTPErrorHandler(logger logrus.FieldLogger) echo.HTTPErrorHandler {
	log := logging.WithComponent(logger, "http")

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		traceID := GetTraceID(c)
		if traceID == "" {
			traceID = "unknown"
		}

		var (
			errorResponse  *errors.ErrorResponse
			httpStatus     int
			echoErr        *echo.HTTPError
			validationErrs validator.ValidationErrors
		)

		switch {
		case stderrors.As(err, &echoErr):
			errorResponse = errors.NewErrorResponse(
				mapHTTPStatusToErrorCode(echoErr.Code),
				traceID,
				errors.WithMessage(fmt.Sprintf("%v", echoErr.Message)),
			)
			httpStatus = echoErr.Code
		case stderrors.As(err, &validationErrs):
			fieldErrors := make(map[string]string, len(validationErrs))
			for _, fieldErr := range validationErrs {
				fieldErrors[fieldErr.Field()] = formatValidationError(fieldErr)
			}
			errorResponse = errors.NewValidationError(fieldErrors, traceID)
			httpStatus = http.StatusBadRequest
		default:
			errorResponse, _ = errors.WrapSystemError(err, traceID)
			httpStatus = errorResponse.GetHTTPStatus()
		}

		entry := log.WithFields(logrus.Fields{
			"trace_id":   traceID,
			"error_code": errorResponse.Error.Code,
			"status":     httpStatus,
			"path":       c.Request().URL.Path,
			"method":     c.Request().Method,
		}).WithError(err)
		if httpStatus >= http.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Warn("request rejected")
		}

		c.Set(handlers.ErrorCodeContextKey, errorResponse.Error.Code)

		if sendErr := c.JSON(httpStatus, errorResponse); sendErr != nil {
			log.WithField("trace_id", traceID).WithError(sendErr).Error("failed to send error response")
		}
	}
}

func mapHTTPStatusToErrorCode(status int) errors.ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusUnprocessableEntity,
		http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return errors.ValidationGeneral
	case http.StatusUnauthorized:
		return errors.AuthMissingToken
	case http.StatusForbidden:
		return errors.AuthInsufficientPermission
	case http.StatusNotFound:
		return errors.SystemRouteNotFound
	case http.StatusTooManyRequests:
		return errors.SystemRateLimitExceeded
	case http.StatusServiceUnavailable:
		return errors.SystemServiceUnavailable
	default:
		return errors.SystemInternalError
	}
}

// formatValidationError converts a validator.FieldError to a human-readable message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "positive_amount":
		return "must be greater than 0 with at most 2 decimal places"
	case "transaction_type":
		return "must be deposit or withdrawal"
	case "ledger_date":
		return "must be a date (YYYY-MM-DD) or an RFC3339 timestamp"
	default:
		return fmt.Sprintf("failed validation for '%s'", fe.Tag())
	}
}
