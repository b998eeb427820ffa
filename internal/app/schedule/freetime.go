// internal/app/schedule/freetime.go
package schedule

import (
	"context"
	"time"

	"github.com/dalemusser/groupsched/internal/app/system/horizon"
	"github.com/dalemusser/groupsched/internal/app/system/inputval"
	"github.com/dalemusser/groupsched/internal/app/system/interval"
	"github.com/dalemusser/groupsched/internal/domain/models"
)

// MaxSpan caps the horizon accepted by FreeTimeBetween.
const MaxSpan = 366 * 24 * time.Hour

// Owner names a schedule: a user when UserID is set, otherwise the group PIN.
type Owner struct {
	UserID string
	PIN    int
}

// WeekAvailability is the free time of one week. Free is in minutes from
// WeekStart.
type WeekAvailability struct {
	WeekStart time.Time         `json:"weekStart"`
	WeekEnd   time.Time         `json:"weekEnd"`
	Free      []models.Interval `json:"free"`
}

// FreeTime returns a user's cached week-relative free time.
func (s *Service) FreeTime(ctx context.Context, userID string) ([]models.Interval, error) {
	u, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Schedule.FreeTime, nil
}

// GroupFreeTime returns a group's cached week-relative free time.
func (s *Service) GroupFreeTime(ctx context.Context, pin int) ([]models.Interval, error) {
	g, err := s.SearchGroupByPIN(ctx, pin)
	if err != nil {
		return nil, err
	}
	return g.Schedule.FreeTime, nil
}

// FreeTimeBetween computes free time over [from, to) for a user or a group.
// Intervals are absolute minutes since the Unix epoch.
func (s *Service) FreeTimeBetween(ctx context.Context, owner Owner, from, to time.Time) ([]models.Interval, error) {
	if !to.After(from) {
		return nil, inputval.Invalid("to", "must be after from")
	}
	if to.Sub(from) > MaxSpan {
		return nil, inputval.Invalid("to", "range may not exceed 366 days")
	}
	events, err := s.ownerEvents(ctx, owner)
	if err != nil {
		return nil, err
	}
	return interval.FreeWithin(events, interval.Between(from, to)), nil
}

// WeeklyAvailability reports a group's free time for each of weeks
// consecutive weeks, starting with the week containing from.
func (s *Service) WeeklyAvailability(ctx context.Context, pin int, from time.Time, weeks int) ([]WeekAvailability, error) {
	windows, err := horizon.Weeks(from, weeks, s.loc)
	if err != nil {
		return nil, inputval.Invalid("weeks", "%s", err.Error())
	}
	events, err := s.ownerEvents(ctx, Owner{PIN: pin})
	if err != nil {
		return nil, err
	}

	out := make([]WeekAvailability, 0, len(windows))
	for _, w := range windows {
		h := interval.Between(w.Start, w.End)
		free := interval.FreeWithin(events, h)
		for i := range free {
			free[i].Start -= h.Start
			free[i].End -= h.Start
		}
		out = append(out, WeekAvailability{WeekStart: w.Start, WeekEnd: w.End, Free: free})
	}
	return out, nil
}

// ownerEvents returns the events that make an owner busy: a user's personal
// events, or a group's events plus every member's personal events.
func (s *Service) ownerEvents(ctx context.Context, owner Owner) ([]models.Event, error) {
	if owner.UserID != "" {
		u, err := s.GetUserByID(ctx, owner.UserID)
		if err != nil {
			return nil, err
		}
		return u.Schedule.Events, nil
	}
	g, err := s.SearchGroupByPIN(ctx, owner.PIN)
	if err != nil {
		return nil, err
	}
	return s.groupEvents(ctx, g.Schedule.Events, g.Members)
}
