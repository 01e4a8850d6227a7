// internal/app/features/health/routes.go
package health

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /health: "/" checks backends,
// "/live" only reports that the process is serving.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	r.Get("/live", h.Live)
	return r
}
