// internal/app/features/personal/handler.go
package personal

import (
	"context"
	"net/http"

	httperr "github.com/dalemusser/groupsched/internal/app/features/errors"
	"github.com/dalemusser/groupsched/internal/app/features/shared"
	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/app/system/inputval"
	"github.com/dalemusser/groupsched/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's own schedule under /schedule.
type Handler struct {
	Svc    *schedule.Service
	ErrLog *httperr.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(svc *schedule.Service, errLog *httperr.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, ErrLog: errLog, Log: logger}
}

type progressRequest struct {
	Progress string `json:"progress"`
}

// ServeSchedule handles GET /schedule.
func (h *Handler) ServeSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Svc.GetUserByID(ctx, shared.Actor(r))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, u.Schedule)
}

// HandleAddEvent handles POST /schedule/events. Every group the user belongs
// to has its free time recomputed before the response is sent.
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

	ev, err := h.Svc.AddPersonalEvent(ctx, shared.Actor(r), in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusCreated, ev)
}

// HandleAddTask handles POST /schedule/tasks.
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

	t, err := h.Svc.AddPersonalTask(ctx, shared.Actor(r), in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusCreated, t)
}

// HandleTaskProgress handles POST /schedule/tasks/{taskID}/progress. Only the
// caller's own copy changes.
func (h *Handler) HandleTaskProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	taskID, err := shared.TaskID(chi.URLParam(r, "taskID"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.Svc.UpdatePersonalTaskProgress(ctx, shared.Actor(r), taskID, req.Progress)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, t)
}

// ServeFreeTime handles GET /schedule/freetime[?from&to].
func (h *Handler) ServeFreeTime(w http.ResponseWriter, r *http.Request) {
	from, to, ranged, err := shared.Range(r, h.Svc.Location())
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor := shared.Actor(r)
	if !ranged {
		free, err := h.Svc.FreeTime(ctx, actor)
		if err != nil {
			h.ErrLog.Write(w, r, err)
			return
		}
		httperr.WriteJSON(w, http.StatusOK, shared.FreeTimeResponse{Free: shared.NonNil(free)})
		return
	}
	free, err := h.Svc.FreeTimeBetween(ctx, schedule.Owner{UserID: actor}, from, to)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, shared.FreeTimeResponse{From: &from, To: &to, Free: shared.NonNil(free)})
}

// ServeCalendar handles GET /schedule/calendar.ics.
func (h *Handler) ServeCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor := shared.Actor(r)
	feed, err := h.Svc.ExportICS(ctx, schedule.Owner{UserID: actor})
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	shared.WriteICS(w, actor+".ics", feed)
}
