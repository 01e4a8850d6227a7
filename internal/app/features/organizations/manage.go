// internal/app/features/organizations/manage.go
package organizations

import (
	"net/http"

	"github.com/dalemusser/loomos/internal/domain/models"
)

// Service-state actions. RequireRole("superadmin") in routes.go gates these;
// the guard still runs so a missing organization answers 404.

// HandleSuspend takes the organization out of service for hostname requests.
// POST /api/organizations/{id}/suspend
func (h *Handler) HandleSuspend(w http.ResponseWriter, r *http.Request) {
	h.setState(w, r, "suspend", func(o *models.Organization) { o.IsSuspended = true })
}

// HandleReinstate lifts a suspension.
// POST /api/organizations/{id}/reinstate
func (h *Handler) HandleReinstate(w http.ResponseWriter, r *http.Request) {
	h.setState(w, r, "reinstate", func(o *models.Organization) { o.IsSuspended = false })
}

// HandleDeactivate marks the organization inactive.
// POST /api/organizations/{id}/deactivate
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setState(w, r, "deactivate", func(o *models.Organization) { o.IsActive = false })
}

// HandleActivate marks the organization active.
// POST /api/organizations/{id}/activate
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.setState(w, r, "activate", func(o *models.Organization) { o.IsActive = true })
}

func (h *Handler) setState(w http.ResponseWriter, r *http.Request, action string, apply func(*models.Organization)) {
	org, sess, ok := h.load(w, r)
	if !ok {
		return
	}
	apply(&org)
	h.save(w, r, sess, org, action)
}
