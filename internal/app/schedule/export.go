// internal/app/schedule/export.go
package schedule

import (
	"context"
	"fmt"

	"github.com/dalemusser/groupsched/internal/app/system/calendar"
)

// ExportICS renders an owner's events and tasks as an iCalendar feed.
func (s *Service) ExportICS(ctx context.Context, owner Owner) (string, error) {
	feed := calendar.Feed{Loc: s.loc, Now: s.now()}

	if owner.UserID != "" {
		u, err := s.GetUserByID(ctx, owner.UserID)
		if err != nil {
			return "", err
		}
		feed.Name = fmt.Sprintf("%s %s", u.FirstName, u.LastName)
		feed.Events = u.Schedule.Events
		feed.Tasks = u.Schedule.Tasks
	} else {
		g, err := s.SearchGroupByPIN(ctx, owner.PIN)
		if err != nil {
			return "", err
		}
		feed.Name = g.Name
		feed.Events = g.Schedule.Events
		feed.Tasks = g.Schedule.Tasks
	}

	return calendar.Render(feed), nil
}
