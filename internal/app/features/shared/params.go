// internal/app/features/shared/params.go
package shared

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/groupsched/internal/app/system/inputval"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultWeeks is the availability horizon when ?weeks is absent.
const DefaultWeeks = 4

// Range reads ?from and ?to. ok is false when neither is given, meaning the
// caller wants the cached weekly free time.
func Range(r *http.Request, loc *time.Location) (from, to time.Time, ok bool, err error) {
	rawFrom, rawTo := query.Get(r, "from"), query.Get(r, "to")
	if rawFrom == "" && rawTo == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if from, err = inputval.Timestamp("from", rawFrom, loc); err != nil {
		return
	}
	if to, err = inputval.Timestamp("to", rawTo, loc); err != nil {
		return
	}
	return from, to, true, nil
}

// Weeks reads ?from (default now) and ?weeks (default DefaultWeeks).
func Weeks(r *http.Request, loc *time.Location, now time.Time) (time.Time, int, error) {
	from := now
	if raw := query.Get(r, "from"); raw != "" {
		t, err := inputval.Timestamp("from", raw, loc)
		if err != nil {
			return time.Time{}, 0, err
		}
		from = t
	}
	weeks := DefaultWeeks
	if raw := query.Get(r, "weeks"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return time.Time{}, 0, inputval.Invalid("weeks", "must be an integer")
		}
		weeks = n
	}
	return from, weeks, nil
}

// TaskID parses a task id path segment.
func TaskID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, inputval.Invalid("taskId", "must be a 24-character hex id")
	}
	return id, nil
}

// WriteICS sends an iCalendar feed as a download named filename.
func WriteICS(w http.ResponseWriter, filename, feed string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(feed))
}

// FreeTimeResponse is the body of the free-time endpoints. From and To are
// set only for an explicit range.
type FreeTimeResponse struct {
	From *time.Time        `json:"from,omitempty"`
	To   *time.Time        `json:"to,omitempty"`
	Free []models.Interval `json:"free"`
}

// NonNil makes an empty interval list encode as [] rather than null.
func NonNil(in []models.Interval) []models.Interval {
	if in == nil {
		return []models.Interval{}
	}
	return in
}
