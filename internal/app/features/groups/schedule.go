// internal/app/features/groups/schedule.go
package groups

import (
	"context"
	"fmt"
	"net/http"

	httperr "github.com/dalemusser/groupsched/internal/app/features/errors"
	"github.com/dalemusser/groupsched/internal/app/features/shared"
	"github.com/dalemusser/groupsched/internal/app/policy/grouppolicy"
	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/app/system/inputval"
	"github.com/dalemusser/groupsched/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type progressRequest struct {
	Progress string `json:"progress"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| Events and tasks                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleAddEvent handles POST /groups/{pin}/events.
func (h *Handler) HandleAddEvent(w http.ResponseWriter, r *http.Request) {
	body, err := shared.ReadBody(w, r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	in, err := inputval.DecodeEvent(body)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r, grouppolicy.CanContribute, "only members can add events")
	if !ok {
		return
	}
	ev, err := h.Svc.GroupAddEvent(ctx, g.PIN, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusCreated, ev)
}

// HandleAddTask handles POST /groups/{pin}/tasks.
func (h *Handler) HandleAddTask(w http.ResponseWriter, r *http.Request) {
	body, err := shared.ReadBody(w, r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	in, err := inputval.DecodeTask(body)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r, grouppolicy.CanContribute, "only members can add tasks")
	if !ok {
		return
	}
	t, err := h.Svc.GroupAddTask(ctx, g.PIN, shared.Actor(r), in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusCreated, t)
}

// HandleTaskProgress handles POST /groups/{pin}/tasks/{taskID}/progress.
// The service decides who may change progress.
func (h *Handler) HandleTaskProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	pin, err := inputval.ParsePIN(chi.URLParam(r, "pin"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	taskID, err := shared.TaskID(chi.URLParam(r, "taskID"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	t, err := h.Svc.UpdateTaskProgress(ctx, pin, taskID, req.Progress, shared.Actor(r))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, t)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Free time and export                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeFreeTime handles GET /groups/{pin}/freetime. Without ?from and ?to it
// returns the cached weekly free time in week-relative minutes; with them,
// free time over that range in minutes since the Unix epoch.
func (h *Handler) ServeFreeTime(w http.ResponseWriter, r *http.Request) {
	from, to, ranged, err := shared.Range(r, h.Svc.Location())
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r, grouppolicy.CanView, "only members can see free time")
	if !ok {
		return
	}
	if !ranged {
		httperr.WriteJSON(w, http.StatusOK, shared.FreeTimeResponse{Free: shared.NonNil(g.Schedule.FreeTime)})
		return
	}
	free, err := h.Svc.FreeTimeBetween(ctx, schedule.Owner{PIN: g.PIN}, from, to)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, shared.FreeTimeResponse{From: &from, To: &to, Free: shared.NonNil(free)})
}

// ServeAvailability handles GET /groups/{pin}/availability?from&weeks.
func (h *Handler) ServeAvailability(w http.ResponseWriter, r *http.Request) {
	from, weeks, err := shared.Weeks(r, h.Svc.Location(), h.Svc.Now())
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r, grouppolicy.CanView, "only members can see availability")
	if !ok {
		return
	}
	out, err := h.Svc.WeeklyAvailability(ctx, g.PIN, from, weeks)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, out)
}

// ServeCalendar handles GET /groups/{pin}/calendar.ics.
func (h *Handler) ServeCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r, grouppolicy.CanView, "only members can export the calendar")
	if !ok {
		return
	}
	feed, err := h.Svc.ExportICS(ctx, schedule.Owner{PIN: g.PIN})
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	shared.WriteICS(w, fmt.Sprintf("group-%d.ics", g.PIN), feed)
}
