// internal/app/system/horizon/horizon.go
//
// Package horizon enumerates consecutive week windows for availability
// reports.
package horizon

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// MaxWeeks caps how many weeks one report may cover.
const MaxWeeks = 26

// Window is one half-open week [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// MondayOf returns 00:00 on the Monday of t's week in loc.
func MondayOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	back := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-back, 0, 0, 0, 0, loc)
}

// Weeks returns n consecutive week windows starting with the week that
// contains from. Week boundaries are Monday 00:00 wall-clock time in loc, so a
// week spanning a DST change is an hour shorter or longer.
func Weeks(from time.Time, n int, loc *time.Location) ([]Window, error) {
	if n <= 0 || n > MaxWeeks {
		return nil, fmt.Errorf("weeks must be between 1 and %d", MaxWeeks)
	}
	if loc == nil {
		loc = time.UTC
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   MondayOf(from, loc),
		Count:     n + 1,
		Byweekday: []rrule.Weekday{rrule.MO},
	})
	if err != nil {
		return nil, err
	}

	starts := r.All()
	out := make([]Window, 0, n)
	for i := 0; i+1 < len(starts); i++ {
		out = append(out, Window{Start: starts[i], End: starts[i+1]})
	}
	return out, nil
}
