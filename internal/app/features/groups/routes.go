// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/groupsched/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /groups subrouter. Every route needs a signed-in user;
// per-group permissions are checked in the handlers.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Post("/join", h.HandleJoin)

		pr.Route("/{pin}", func(gr chi.Router) {
			gr.Get("/", h.ServeGroup)

			gr.Post("/admins", h.HandleAddAdmin)
			gr.Post("/members", h.HandleAddMember)
			gr.Delete("/members/{userID}", h.HandleRemoveMember)

			gr.Post("/events", h.HandleAddEvent)
			gr.Post("/tasks", h.HandleAddTask)
			gr.Post("/tasks/{taskID}/progress", h.HandleTaskProgress)

			gr.Get("/freetime", h.ServeFreeTime)
			gr.Get("/availability", h.ServeAvailability)
			gr.Get("/calendar.ics", h.ServeCalendar)
		})
	})

	return r
}
