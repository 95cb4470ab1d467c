package domain

import (
	"errors"
	"strings"
	"time"
)

// DisplayLayout is the human-readable date form, e.g. "Thu Jan 05 2023".
const DisplayLayout = "Mon Jan 02 2006"

// ErrInvalidDate is returned when a date string matches none of the accepted layouts.
var ErrInvalidDate = errors.New("date must be YYYY-MM-DD, RFC3339 or like \"Mon Jan 02 2006\"")

var inputLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	DisplayLayout,
}

// ParseDate parses user input into a calendar date (midnight UTC).
// The time of day and offset of RFC3339 input are dropped after the
// calendar day is taken in the given offset.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ParseStoredDate reads a date written by FormatDate. Unreadable values
// yield the zero time, which never satisfies a date bound.
func ParseStoredDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// InvalidDate is shown for dates that could not be read.
const InvalidDate = "Invalid Date"

// FormatDate renders a calendar date in DisplayLayout. The zero time
// renders as InvalidDate.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return InvalidDate
	}
	return t.Format(DisplayLayout)
}

// DateOf truncates t to its calendar day, expressed as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day of now in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}
