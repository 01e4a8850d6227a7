// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/dalemusser/loomos/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the organization settings API under the base path
// (typically "/api/organizations" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Any signed-in member may read their own organization; the guard
	// enforces tenant isolation inside the handlers.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/{id}", h.ServeView)
	})

	// Addressing and branding are managed by organization admins.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin", "superadmin"))

		pr.Put("/{id}/subdomain", h.HandleSubdomain)
		pr.Put("/{id}/custom-domain", h.HandleCustomDomain)
		pr.Delete("/{id}/custom-domain", h.HandleClearCustomDomain)
		pr.Put("/{id}/branding", h.HandleBranding)
	})

	// Service state is platform-operator only.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("superadmin"))

		pr.Post("/{id}/suspend", h.HandleSuspend)
		pr.Post("/{id}/reinstate", h.HandleReinstate)
		pr.Post("/{id}/deactivate", h.HandleDeactivate)
		pr.Post("/{id}/activate", h.HandleActivate)
	})

	return r
}
