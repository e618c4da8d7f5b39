package validation

import (
	"errors"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDate      = errors.New("invalid date format")
	ErrInvalidDateRange = errors.New("startDate must be before endDate")
)

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the instant in UTC.
// dateOnly reports whether the value carried no time of day.
func ParseDate(value string) (t time.Time, dateOnly bool, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, ErrInvalidDate
	}

	if parsed, err := time.Parse(DateLayout, value); err == nil {
		return parsed.UTC(), true, nil
	}

	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), false, nil
	}

	return time.Time{}, false, ErrInvalidDate
}

// ParseDateRange parses optional bounds. A date-only end bound covers the
// whole day. Equal bounds are allowed; an end before the start is not.
func ParseDateRange(start, end string) (*time.Time, *time.Time, error) {
	var startDate, endDate *time.Time

	if strings.TrimSpace(start) != "" {
		t, _, err := ParseDate(start)
		if err != nil {
			return nil, nil, err
		}
		startDate = &t
	}

	if strings.TrimSpace(end) != "" {
		t, dateOnly, err := ParseDate(end)
		if err != nil {
			return nil, nil, err
		}
		if dateOnly {
			t = EndOfDay(t)
		}
		endDate = &t
	}

	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, nil, ErrInvalidDateRange
	}

	return startDate, endDate, nil
}

// EndOfDay returns the last representable instant of t's UTC day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}
