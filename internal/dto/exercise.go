package dto

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	dom "github.com/enriqueruelasgarcia/Users-mongo/internal/domain"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/logfilter"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/service"
)

// Loose is a string that also accepts a bare JSON number, so JSON clients
// may send "duration": 30 as well as "duration": "30".
type Loose string

func (l *Loose) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Loose(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*l = Loose(n.String())
	return nil
}

// AddExerciseRequest is the body for POST /api/users/:_id/exercises.
type AddExerciseRequest struct {
	Description string `form:"description" json:"description" binding:"required"`
	Duration    Loose  `form:"duration" json:"duration" binding:"required,minutes"`
	Date        string `form:"date" json:"date" binding:"omitempty,exdate"`
}

// ToNewExercise converts an already validated request.
func (r AddExerciseRequest) ToNewExercise() service.NewExercise {
	out := service.NewExercise{Description: r.Description}
	out.Duration, _ = parseInt(string(r.Duration))
	if strings.TrimSpace(r.Date) != "" {
		if d, err := dom.ParseDate(r.Date); err == nil {
			out.Date = &d
		}
	}
	return out
}

// LogQuery binds the query string of GET /api/users/:_id/logs.
type LogQuery struct {
	From  string `form:"from" binding:"omitempty,exdate"`
	To    string `form:"to" binding:"omitempty,exdate"`
	Limit string `form:"limit" binding:"omitempty,posint"`
}

// ToQuery converts an already validated query.
func (q LogQuery) ToQuery() logfilter.Query {
	var out logfilter.Query
	if d, ok := optionalDate(q.From); ok {
		out.From = &d
	}
	if d, ok := optionalDate(q.To); ok {
		out.To = &d
	}
	if strings.TrimSpace(q.Limit) != "" {
		if n, err := parseInt(q.Limit); err == nil {
			out.Limit = &n
		}
	}
	return out
}

func optionalDate(s string) (time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, false
	}
	d, err := dom.ParseDate(s)
	return d, err == nil
}

// ExerciseResponse is returned after an exercise is logged.
type ExerciseResponse struct {
	ID          string `json:"_id"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogEntry is one exercise in a log response.
type LogEntry struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogResponse is returned by GET /api/users/:_id/logs.
type LogResponse struct {
	ID       string     `json:"_id"`
	Username string     `json:"username"`
	Count    int        `json:"count"`
	Log      []LogEntry `json:"log"`
}
