// internal/app/system/calendar/calendar.go
//
// Package calendar renders schedules as iCalendar (RFC 5545) feeds.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/dalemusser/groupsched/internal/domain/models"
)

const productID = "-//groupsched//schedule export//EN"

// Feed is everything needed to render one calendar.
type Feed struct {
	Name   string
	Events []models.Event
	Tasks  []models.Task
	Loc    *time.Location // resolves task clock times
	Now    time.Time      // DTSTAMP
}

// Render serializes f. Events become VEVENTs. Tasks are exported as VEVENTs in
// the TASK category so that common clients display them on the calendar grid.
func Render(f Feed) string {
	loc := f.Loc
	if loc == nil {
		loc = time.UTC
	}
	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if f.Name != "" {
		cal.SetXWRCalName(f.Name)
	}

	for _, ev := range f.Events {
		e := cal.AddEvent(uid("event", ev.ID.Hex()))
		e.SetDtStampTime(now)
		e.SetStartAt(ev.StartDate)
		e.SetEndAt(ev.EndDate)
		e.SetSummary(ev.Title)
		if ev.Description != "" {
			e.SetDescription(ev.Description)
		}
	}

	for _, t := range f.Tasks {
		start, end := TaskSpan(t, loc)
		e := cal.AddEvent(uid("task", t.ID.Hex()))
		e.SetDtStampTime(now)
		e.SetStartAt(start)
		e.SetEndAt(end)
		e.SetSummary(taskSummary(t))
		e.SetDescription(taskDescription(t))
		e.SetProperty(ical.ComponentPropertyCategories, "TASK")
		e.SetProperty(ical.ComponentPropertyPriority, strconv.Itoa(priority(t.UrgencyLevel)))
	}

	return cal.Serialize()
}

// TaskSpan resolves a task's date range and optional clock times to instants.
// Without clock times the task spans whole days, ending at midnight after its
// end date.
func TaskSpan(t models.Task, loc *time.Location) (time.Time, time.Time) {
	if t.StartTime == "" || t.EndTime == "" {
		s := dayStart(t.StartDate, loc)
		e := dayStart(t.EndDate, loc).AddDate(0, 0, 1)
		return s, e
	}
	return atClock(t.StartDate, t.StartTime, loc), atClock(t.EndDate, t.EndTime, loc)
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func atClock(day time.Time, hhmm string, loc *time.Location) time.Time {
	var h, m int
	fmt.Sscanf(hhmm, "%d:%d", &h, &m)
	y, mo, d := day.In(loc).Date()
	return time.Date(y, mo, d, h, m, 0, 0, loc)
}

// priority maps urgency 5 (most urgent) to iCalendar priority 1 (highest).
func priority(urgency int) int {
	if urgency < 1 || urgency > 5 {
		return 0
	}
	return 2*(5-urgency) + 1
}

func taskSummary(t models.Task) string {
	if d := strings.TrimSpace(t.Description); d != "" {
		if len([]rune(d)) > 60 {
			d = string([]rune(d)[:60]) + "..."
		}
		return "Task: " + d
	}
	return fmt.Sprintf("Task (urgency %d)", t.UrgencyLevel)
}

func taskDescription(t models.Task) string {
	var b strings.Builder
	if t.Description != "" {
		b.WriteString(t.Description)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Progress: %s\nUrgency: %d\nAssigned: %s", t.Progress, t.UrgencyLevel, strings.Join(t.AssignedUsers, ", "))
	return b.String()
}

func uid(kind, id string) string {
	return kind + "-" + id + "@groupsched"
}
