package domain

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire format for trip dates.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// ParseDate accepts either a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp and returns the
// calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOnly(t), nil
	}
	return time.Time{}, ErrInvalidDate
}

// DateOnly truncates t to midnight UTC of its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
