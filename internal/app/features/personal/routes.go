// internal/app/features/personal/routes.go
package personal

import (
	"github.com/dalemusser/groupsched/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeSchedule)
		pr.Post("/events", h.HandleAddEvent)
		pr.Post("/tasks", h.HandleAddTask)
		pr.Post("/tasks/{taskID}/progress", h.HandleTaskProgress)
		pr.Get("/freetime", h.ServeFreeTime)
		pr.Get("/calendar.ics", h.ServeCalendar)
	})
	return r
}
