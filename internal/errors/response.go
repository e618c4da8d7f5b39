package errors

import (
	"fmt"
	"net/http"
	"sort"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	TraceID string   `json:"trace_id"`
}

// ErrorOption customises a response built by NewErrorResponse.
type ErrorOption func(*ErrorResponse)

func WithDetails(details ...string) ErrorOption {
	return func(er *ErrorResponse) {
		er.Error.Details = details
	}
}

// WithMessage replaces the default message of the code.
func WithMessage(message string) ErrorOption {
	return func(er *ErrorResponse) {
		er.Error.Message = message
	}
}

// NewErrorResponse builds a response carrying code, its default message and
// traceID. Later options override earlier ones.
func NewErrorResponse(code ErrorCode, traceID string, opts ...ErrorOption) *ErrorResponse {
	response := &ErrorResponse{
		Error: ErrorDetail{
			Code:    string(code),
			Message: GetErrorMessage(code),
			TraceID: traceID,
		},
	}
	for _, opt := range opts {
		opt(response)
	}
	return response
}

// NewValidationError renders field failures as sorted "field: message"
// details under VALIDATION_001.
func NewValidationError(fieldErrors map[string]string, traceID string) *ErrorResponse {
	details := make([]string, 0, len(fieldErrors))
	for field, message := range fieldErrors {
		details = append(details, fmt.Sprintf("%s: %s", field, message))
	}
	sort.Strings(details)

	return NewErrorResponse(ValidationGeneral, traceID, WithDetails(details...))
}

// WrapSystemError hides err behind the generic SYSTEM_001 response. err is
// handed back untouched for server-side logging.
func WrapSystemError(err error, traceID string) (*ErrorResponse, error) {
	return NewErrorResponse(SystemInternalError, traceID), err
}

var statusByCode = map[ErrorCode]int{
	AuthInvalidCredentials:     http.StatusUnauthorized,
	AuthMissingToken:           http.StatusUnauthorized,
	AuthInvalidToken:           http.StatusUnauthorized,
	AuthInvalidTokenFormat:     http.StatusUnauthorized,
	AuthInvalidRefreshToken:    http.StatusUnauthorized,
	AuthAccountLocked:          http.StatusUnauthorized,
	AuthInsufficientPermission: http.StatusForbidden,

	ValidationGeneral:         http.StatusBadRequest,
	ValidationRequiredField:   http.StatusBadRequest,
	ValidationInvalidFormat:   http.StatusBadRequest,
	ValidationCredentials:     http.StatusBadRequest,
	ValidationInvalidEmail:    http.StatusBadRequest,
	ValidationInvalidDate:     http.StatusBadRequest,
	ValidationInvalidRange:    http.StatusBadRequest,
	ValidationInvalidType:     http.StatusBadRequest,
	ValidationInvalidID:       http.StatusBadRequest,
	ValidationInvalidCategory: http.StatusBadRequest,

	UserNotFound:      http.StatusNotFound,
	UserAlreadyExists: http.StatusBadRequest,

	AccountNotFound:       http.StatusNotFound,
	AccountInvalidBalance: http.StatusBadRequest,

	CategoryNotFound:      http.StatusNotFound,
	CategoryAlreadyExists: http.StatusBadRequest,

	TransactionNotFound:      http.StatusNotFound,
	TransactionInvalidAmount: http.StatusBadRequest,
	TransactionInvalidType:   http.StatusBadRequest,

	SystemRateLimitExceeded:  http.StatusTooManyRequests,
	SystemServiceUnavailable: http.StatusServiceUnavailable,
	SystemRouteNotFound:      http.StatusNotFound,
}

// GetHTTPStatus maps a code to its HTTP status. Codes without an entry are
// operation failures and map to 500.
func GetHTTPStatus(code ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (er *ErrorResponse) GetHTTPStatus() int {
	return GetHTTPStatus(ErrorCode(er.Error.Code))
}
