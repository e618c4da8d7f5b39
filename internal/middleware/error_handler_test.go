package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apierrors "finance-ledger/internal/errors"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

type ErrorHandlerTestSuite struct {
	suite.Suite
	echo    *echo.Echo
	handler echo.HTTPErrorHandler
}

func (s *ErrorHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.handler = NewHTTPErrorHandler(logging.Discard())
	s.echo.HTTPErrorHandler = s.handler
}

func TestErrorHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorHandlerTestSuite))
}

func (s *ErrorHandlerTestSuite) newContext(traceID string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	if traceID != "" {
		c.Set(TraceIDContextKey, traceID)
	}
	return c, rec
}

func (s *ErrorHandlerTestSuite) decode(rec *httptest.ResponseRecorder) apierrors.ErrorDetail {
	var body apierrors.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func (s *ErrorHandlerTestSuite) TestEchoHTTPError() {
	c, rec := s.newContext("test-trace-id")

	s.handler(echo.NewHTTPError(http.StatusNotFound, "Resource not found"), c)

	s.Equal(http.StatusNotFound, rec.Code)
	body := s.decode(rec)
	s.Equal("test-trace-id", body.TraceID)
	s.Equal("Resource not found", body.Message)
	s.Equal(string(apierrors.SystemRouteNotFound), body.Code)
	s.Equal(string(apierrors.SystemRouteNotFound), c.Get("error_code"))
}

func (s *ErrorHandlerTestSuite) TestGenericErrorHidesInternals() {
	c, rec := s.newContext("test-trace-id")

	s.handler(errors.New("pq: connection refused"), c)

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Contains(rec.Header().Get("Content-Type"), "application/json")
	s.NotContains(rec.Body.String(), "connection refused")
	body := s.decode(rec)
	s.Equal("SYSTEM_001", body.Code)
	s.Equal("test-trace-id", body.TraceID)
}

func (s *ErrorHandlerTestSuite) TestNoTraceID() {
	c, rec := s.newContext("")

	s.handler(errors.New("test error"), c)

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("unknown", s.decode(rec).TraceID)
}

func (s *ErrorHandlerTestSuite) TestCommittedResponseIsLeftAlone() {
	c, rec := s.newContext("")
	_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})

	s.handler(errors.New("test error"), c)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "ok")
}

func (s *ErrorHandlerTestSuite) TestValidationErrors() {
	type payload struct {
		Email string `json:"email" validate:"required,email"`
		Date  string `json:"date" validate:"omitempty,ledger_date"`
	}

	err := validation.NewValidator().Struct(payload{Date: "yesterday"})
	s.Require().Error(err)

	c, rec := s.newContext("trace")
	s.handler(err, c)

	s.Equal(http.StatusBadRequest, rec.Code)
	body := s.decode(rec)
	s.Equal("VALIDATION_001", body.Code)
	s.ElementsMatch([]string{
		"email: is required",
		"date: must be a date (YYYY-MM-DD) or an RFC3339 timestamp",
	}, body.Details)
}

func (s *ErrorHandlerTestSuite) TestMapHTTPStatusToErrorCode() {
	testCases := []struct {
		status       int
		expectedCode apierrors.ErrorCode
	}{
		{http.StatusBadRequest, apierrors.ValidationGeneral},
		{http.StatusUnauthorized, apierrors.AuthMissingToken},
		{http.StatusForbidden, apierrors.AuthInsufficientPermission},
		{http.StatusNotFound, apierrors.SystemRouteNotFound},
		{http.StatusMethodNotAllowed, apierrors.ValidationGeneral},
		{http.StatusTooManyRequests, apierrors.SystemRateLimitExceeded},
		{http.StatusInternalServerError, apierrors.SystemInternalError},
		{http.StatusServiceUnavailable, apierrors.SystemServiceUnavailable},
		{999, apierrors.SystemInternalError},
	}

	for _, tc := range testCases {
		s.Run(http.StatusText(tc.status), func() {
			c, rec := s.newContext("test-trace-id")

			s.handler(echo.NewHTTPError(tc.status), c)

			s.Equal(tc.status, rec.Code)
			s.Equal(string(tc.expectedCode), s.decode(rec).Code)
		})
	}
}
