package validation

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerRequest struct {
	Amount string `json:"amount" validate:"required,positive_amount"`
	Type   string `json:"type" validate:"required,transaction_type"`
	Date   string `json:"date" validate:"omitempty,ledger_date"`
}

func TestValidator_LedgerRules(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		req       ledgerRequest
		wantField string
	}{
		{"valid deposit", ledgerRequest{Amount: "10.50", Type: "deposit", Date: "2024-03-01"}, ""},
		{"valid withdrawal without date", ledgerRequest{Amount: "1", Type: "withdrawal"}, ""},
		{"rfc3339 date", ledgerRequest{Amount: "1", Type: "deposit", Date: "2024-03-01T10:00:00Z"}, ""},
		{"zero amount", ledgerRequest{Amount: "0", Type: "deposit"}, "amount"},
		{"negative amount", ledgerRequest{Amount: "-5", Type: "deposit"}, "amount"},
		{"three decimals", ledgerRequest{Amount: "1.005", Type: "deposit"}, "amount"},
		{"not a number", ledgerRequest{Amount: "ten", Type: "deposit"}, "amount"},
		{"transfer is not a ledger type", ledgerRequest{Amount: "1", Type: "transfer"}, "type"},
		{"bad date", ledgerRequest{Amount: "1", Type: "deposit", Date: "03/01/2024"}, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.wantField, verrs[0].Field())
		})
	}
}

type decimalRequest struct {
	Amount decimal.Decimal  `json:"amount" validate:"positive_amount"`
	Refund *decimal.Decimal `json:"refund" validate:"omitempty,positive_amount"`
	Type   *string          `json:"type" validate:"omitempty,transaction_type"`
}

func TestValidator_DecimalAmounts(t *testing.T) {
	v := NewValidator()
	dec := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	str := func(s string) *string { return &s }

	tests := []struct {
		name      string
		req       decimalRequest
		wantField string
	}{
		{"positive amount", decimalRequest{Amount: *dec("42.50")}, ""},
		{"absent optional fields", decimalRequest{Amount: *dec("1"), Refund: nil, Type: nil}, ""},
		{"mixed case type", decimalRequest{Amount: *dec("1"), Type: str(" Deposit ")}, ""},
		{"missing amount decodes to zero", decimalRequest{}, "amount"},
		{"negative amount", decimalRequest{Amount: *dec("-3")}, "amount"},
		{"sub-cent amount", decimalRequest{Amount: *dec("0.001")}, "amount"},
		{"zero optional amount", decimalRequest{Amount: *dec("1"), Refund: dec("0")}, "refund"},
		{"unknown optional type", decimalRequest{Amount: *dec("1"), Type: str("transfer")}, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.wantField, verrs[0].Field())
			assert.Contains(t, []string{"positive_amount", "transaction_type"}, verrs[0].Tag())
		})
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	assert.Same(t, GetValidator(), GetValidator())
	assert.NotNil(t, GetValidator().GetValidate())
}

func TestParseDate(t *testing.T) {
	d, dateOnly, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.True(t, dateOnly)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	d, dateOnly, err = ParseDate("2024-02-29T15:04:05+02:00")
	require.NoError(t, err)
	assert.False(t, dateOnly)
	assert.Equal(t, time.Date(2024, 2, 29, 13, 4, 5, 0, time.UTC), d)

	for _, bad := range []string{"", "  ", "2024-13-01", "yesterday", "2024/01/01"} {
		_, _, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantStart  *time.Time
		wantEnd    *time.Time
		wantErr    error
	}{
		{name: "no bounds"},
		{
			name:      "date-only end covers the whole day",
			start:     "2024-01-01",
			end:       "2024-01-31",
			wantStart: ptr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			wantEnd:   ptr(time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC)),
		},
		{
			name:      "same day is allowed",
			start:     "2024-01-15",
			end:       "2024-01-15",
			wantStart: ptr(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
			wantEnd:   ptr(time.Date(2024, 1, 15, 23, 59, 59, 999999999, time.UTC)),
		},
		{
			name:    "exact end is kept",
			end:     "2024-01-15T12:00:00Z",
			wantEnd: ptr(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)),
		},
		{name: "end before start", start: "2024-02-01", end: "2024-01-01", wantErr: ErrInvalidDateRange},
		{name: "bad start", start: "nope", wantErr: ErrInvalidDate},
		{name: "bad end", end: "2024-99-99", wantErr: ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := ParseDateRange(tt.start, tt.end)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
