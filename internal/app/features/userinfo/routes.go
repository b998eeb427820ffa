// internal/app/features/userinfo/routes.go
package userinfo

import (
	"github.com/dalemusser/groupsched/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /users subrouter. Every route needs a signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/me", h.ServeMe)
		pr.Get("/{userID}", h.ServeUser)
	})
	return r
}
