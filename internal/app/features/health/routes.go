// internal/app/features/health/routes.go
package health

import "github.com/go-chi/chi/v5"

// Routes is mounted under /health. "/" checks the database and fan-out
// backlog; "/live" only proves the process is serving.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	r.Get("/live", h.ServeLive)
	return r
}
