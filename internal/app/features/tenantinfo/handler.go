// Package tenantinfo exposes the tenant resolved for the current request.
package tenantinfo

import (
	"net/http"

	"github.com/dalemusser/loomos/internal/app/system/respond"
	"github.com/dalemusser/loomos/internal/app/system/tenant"
	"github.com/dalemusser/loomos/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the current request's tenant.
type Handler struct {
	Tenant tenant.Config
	Log    *zap.Logger
}

// NewHandler constructs a tenantinfo Handler.
func NewHandler(cfg tenant.Config, logger *zap.Logger) *Handler {
	return &Handler{Tenant: cfg.Normalize(), Log: logger}
}

type organizationInfo struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Subdomain    string          `json:"subdomain,omitempty"`
	CustomDomain string          `json:"custom_domain,omitempty"`
	Branding     models.Branding `json:"branding"`
	Features     map[string]bool `json:"features,omitempty"`
	Plan         string          `json:"plan"`
}

type tenantResponse struct {
	OrganizationID string           `json:"organization_id"`
	Source         tenant.Source    `json:"source"`
	State          tenant.State     `json:"state"`
	URL            string           `json:"url,omitempty"`
	Organization   organizationInfo `json:"organization"`
}

// Serve handles GET /api/tenant. RequireTenant in Routes guarantees a
// resolution is present.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	res, _ := tenant.Current(r)
	org := res.Organization

	resp := tenantResponse{
		OrganizationID: res.OrganizationID,
		Source:         res.Source,
		State:          res.State(),
		Organization: organizationInfo{
			ID:           org.ID,
			Name:         org.Name,
			Slug:         org.Slug,
			Subdomain:    org.SubdomainValue(),
			CustomDomain: org.CustomDomainValue(),
			Branding:     org.Branding,
			Features:     org.Features,
			Plan:         org.Plan,
		},
	}
	switch {
	case org.DomainVerified():
		resp.URL = "https://" + org.CustomDomainValue() + "/"
	case org.HasSubdomain() && h.Tenant.BaseDomain != "":
		resp.URL = h.Tenant.TenantURL(org.SubdomainValue(), "/")
	}
	respond.JSON(w, http.StatusOK, resp)
}

// Routes returns a subrouter mounted at /api/tenant.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(tenant.RequireTenant)
	r.Get("/", h.Serve)
	return r
}
