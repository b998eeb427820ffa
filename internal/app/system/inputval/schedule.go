// internal/app/system/inputval/schedule.go
package inputval

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/groupsched/internal/app/system/htmlsanitize"
	"github.com/dalemusser/groupsched/internal/app/system/normalize"
	"github.com/dalemusser/groupsched/internal/domain/models"
)

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 2000
)

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// timestampLayouts are tried in order. Layouts without a zone are read in the
// caller's location.
var timestampLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02", false},
}

// Timestamp parses a date or date-time and returns it in UTC.
func Timestamp(field, s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, Invalid(field, "is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, l := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, s)
		} else {
			t, err = time.ParseInLocation(l.layout, s, loc)
		}
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, Invalid(field, "must be a date (YYYY-MM-DD) or date-time (RFC 3339)")
}

// Text sanitizes free text to plain characters and enforces a length limit.
// A required value that sanitizes to nothing is rejected.
func Text(field, s string, required bool, max int) (string, error) {
	clean := htmlsanitize.PlainText(s)
	if clean == "" {
		if required {
			return "", Invalid(field, "is required")
		}
		return "", nil
	}
	if len([]rune(clean)) > max {
		return "", Invalid(field, "must be at most %d characters", max)
	}
	return clean, nil
}

func dateRange(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	s, err := Timestamp("startDate", start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := Timestamp("endDate", end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, Invalid("endDate", "must not be before startDate")
	}
	return s, e, nil
}

// Event validates an event payload. The returned event has no id yet.
func Event(in models.EventInput, loc *time.Location) (models.Event, error) {
	title, err := Text("title", in.Title, true, MaxTitleLen)
	if err != nil {
		return models.Event{}, err
	}
	start, end, err := dateRange(in.StartDate, in.EndDate, loc)
	if err != nil {
		return models.Event{}, err
	}
	desc, err := Text("description", in.Description, true, MaxDescriptionLen)
	if err != nil {
		return models.Event{}, err
	}
	return models.Event{
		Title:       title,
		StartDate:   start,
		EndDate:     end,
		Description: desc,
	}, nil
}

// Task validates a task payload. AssignedUsers is normalized but may be empty;
// the caller decides the default assignee.
func Task(in models.TaskInput, loc *time.Location) (models.Task, error) {
	if loc == nil {
		loc = time.UTC
	}

	progress, err := Progress(in.Progress)
	if err != nil {
		return models.Task{}, err
	}

	assigned := normalize.UserIDs(in.AssignedUsers)
	for _, id := range assigned {
		if _, err := UserID(id); err != nil {
			return models.Task{}, Invalid("assignedUsers", "%q is not a valid user id", id)
		}
	}

	start, end, err := dateRange(in.StartDate, in.EndDate, loc)
	if err != nil {
		return models.Task{}, err
	}

	st, et := strings.TrimSpace(in.StartTime), strings.TrimSpace(in.EndTime)
	if (st == "") != (et == "") {
		return models.Task{}, Invalid("startTime", "startTime and endTime must be given together")
	}
	if st != "" {
		if !clockRe.MatchString(st) {
			return models.Task{}, Invalid("startTime", "must be HH:MM")
		}
		if !clockRe.MatchString(et) {
			return models.Task{}, Invalid("endTime", "must be HH:MM")
		}
		// zero-padded HH:MM compares correctly as text
		if sameDay(start, end, loc) && st >= et {
			return models.Task{}, Invalid("endTime", "must be after startTime on a same-day task")
		}
	}

	urgency, err := Urgency(in.UrgencyLevel)
	if err != nil {
		return models.Task{}, err
	}

	desc, err := Text("description", in.Description, true, MaxDescriptionLen)
	if err != nil {
		return models.Task{}, err
	}

	return models.Task{
		AssignedUsers: assigned,
		Progress:      progress,
		StartDate:     start,
		EndDate:       end,
		StartTime:     st,
		EndTime:       et,
		UrgencyLevel:  urgency,
		Description:   desc,
	}, nil
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// DecodeEvent decodes a JSON event body, rejecting unknown keys and fields of
// the wrong type.
func DecodeEvent(body []byte) (models.EventInput, error) {
	var in models.EventInput
	err := decodeClosed(body, &in)
	return in, err
}

// DecodeTask decodes a JSON task body, rejecting unknown keys, fields of the
// wrong type, and a non-integer urgencyLevel.
func DecodeTask(body []byte) (models.TaskInput, error) {
	var in models.TaskInput
	err := decodeClosed(body, &in)
	return in, err
}

// Decode decodes a single JSON object into dst with the same rules as
// DecodeEvent. Used for the small request bodies that have no input type of
// their own.
func Decode(body []byte, dst any) error {
	return decodeClosed(body, dst)
}

func decodeClosed(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return Invalid("", "request body is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Invalid("", "request body must contain a single JSON object")
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return Invalid(typeErr.Field, "must be %s", kindName(typeErr.Type))
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return Invalid("", "malformed JSON at offset %d", syntaxErr.Offset)
	}
	// encoding/json reports unknown keys only through the message text
	if msg := err.Error(); strings.HasPrefix(msg, "json: unknown field ") {
		field := strings.Trim(strings.TrimPrefix(msg, "json: unknown field "), `"`)
		return Invalid(field, "is not an allowed field")
	}
	return Invalid("", "malformed JSON")
}

func kindName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.String:
		return "a string"
	case reflect.Slice:
		return "a list of " + strings.TrimPrefix(kindName(t.Elem()), "a ") + "s"
	case reflect.Struct:
		return "an object"
	}
	return "a " + t.String()
}
