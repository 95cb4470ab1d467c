package domain

import "time"

// Exercise is a single logged activity. It only exists embedded in a User.
// Date is a calendar date: midnight UTC of the day it was logged for.
type Exercise struct {
	Description string
	Duration    int
	Date        time.Time
}

// DisplayDate returns the date the way it is stored and returned on the wire.
func (e Exercise) DisplayDate() string {
	return FormatDate(e.Date)
}
