package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"

	"finance-ledger/internal/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newRequest builds a context for target. body is JSON encoded unless it is
// a string, which is sent as is.
func newRequest(e *echo.Echo, method, target string, body any) (echo.Context, *httptest.ResponseRecorder) {
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, _ := json.Marshal(v)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(TraceIDContextKey, "test-trace")
	return c, rec
}

func authenticate(c echo.Context, userID uuid.UUID, admin bool) {
	c.Set(ContextKeyUserID, userID)
	c.Set(ContextKeyIsAdmin, admin)
}

func withParam(c echo.Context, name, value string) {
	c.SetParamNames(name)
	c.SetParamValues(value)
}

func decodeError(rec *httptest.ResponseRecorder) errors.ErrorDetail {
	var body errors.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body.Error
}

func decodeJSON(rec *httptest.ResponseRecorder, out any) error {
	return json.Unmarshal(rec.Body.Bytes(), out)
}

