// Package logfilter narrows a user's exercise log by date range and count.
package logfilter

import (
	"time"

	dom "github.com/enriqueruelasgarcia/Users-mongo/internal/domain"
)

// Query holds the optional bounds of a log request. Nil fields are not applied.
// From and To are inclusive and compared as calendar dates.
type Query struct {
	From  *time.Time
	To    *time.Time
	Limit *int
}

// Filter returns the exercises that fall within q, in their original order,
// truncated to the first q.Limit entries. The input slice is not modified.
func Filter(exercises []dom.Exercise, q Query) []dom.Exercise {
	var from, to time.Time
	if q.From != nil {
		from = dom.DateOf(*q.From)
	}
	if q.To != nil {
		to = dom.DateOf(*q.To)
	}

	out := make([]dom.Exercise, 0, len(exercises))
	for _, e := range exercises {
		if q.Limit != nil && len(out) >= *q.Limit {
			break
		}
		if !inRange(e.Date, q.From != nil, from, q.To != nil, to) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func inRange(d time.Time, hasFrom bool, from time.Time, hasTo bool, to time.Time) bool {
	// an unreadable stored date never satisfies a bound
	if d.IsZero() && (hasFrom || hasTo) {
		return false
	}
	d = dom.DateOf(d)
	if hasFrom && d.Before(from) {
		return false
	}
	if hasTo && d.After(to) {
		return false
	}
	return true
}
