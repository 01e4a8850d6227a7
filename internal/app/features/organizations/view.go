// internal/app/features/organizations/view.go
package organizations

import (
	"encoding/json"
	"errors"
	"net/http"

	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/app/system/respond"
	"github.com/dalemusser/loomos/internal/app/system/tenant"
	"github.com/dalemusser/loomos/internal/app/system/timeouts"
	"github.com/dalemusser/loomos/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeView returns one organization's settings.
// GET /api/organizations/{id}
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	org, _, ok := h.load(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, h.toView(org))
}

// load reads the organization named by the {id} URL parameter through the
// guard. On failure it writes the response and returns ok=false.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (models.Organization, *tenant.Session, bool) {
	sess := tenant.SessionFromRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	org, err := h.Guard.GetOrganization(ctx, sess, id)
	if err != nil {
		h.fail(w, r, sess, id, err)
		return models.Organization{}, sess, false
	}
	return org, sess, true
}

// save writes org and answers with its new view.
func (h *Handler) save(w http.ResponseWriter, r *http.Request, sess *tenant.Session, org models.Organization, action string) {
	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	updated, err := h.Store.Update(ctx, org)
	if err != nil {
		h.fail(w, r, sess, org.ID, err)
		return
	}
	var actor string
	if sess != nil {
		actor = sess.UserID
	}
	h.Log.Info("organization updated",
		zap.String("organization_id", updated.ID),
		zap.String("action", action),
		zap.String("actor", actor))
	respond.JSON(w, http.StatusOK, h.toView(updated))
}

// fail maps guard and store errors onto the response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, sess *tenant.Session, id string, err error) {
	switch {
	case errors.Is(err, organizationstore.ErrDuplicateSubdomain):
		respond.JSON(w, http.StatusConflict, fieldError{Field: "subdomain", Error: "This subdomain is already in use."})
		return
	case errors.Is(err, organizationstore.ErrDuplicateCustomDomain):
		respond.JSON(w, http.StatusConflict, fieldError{Field: "domain", Error: "This domain is already in use by another organization."})
		return
	}

	status := tenant.StatusFor(sess, err)
	switch status {
	case http.StatusUnauthorized:
		respond.Error(w, status, "sign in required")
	case http.StatusForbidden:
		h.Log.Info("organization access denied",
			zap.String("organization_id", id),
			zap.String("user_id", sess.UserID))
		respond.Error(w, status, "access denied")
	case http.StatusNotFound:
		respond.Error(w, status, "organization not found")
	default:
		h.Log.Error("organization settings failed",
			zap.String("organization_id", id),
			zap.Error(err))
		respond.Error(w, status, "internal error")
	}
}

// decode reads a JSON body into v. On failure it writes 400 and returns false.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) toView(org models.Organization) organizationView {
	v := organizationView{
		ID:           org.ID,
		Name:         org.Name,
		Slug:         org.Slug,
		Subdomain:    org.SubdomainValue(),
		CustomDomain: org.CustomDomainValue(),
		Branding:     org.Branding,
		Features:     org.Features,
		Plan:         org.Plan,
		State:        string((&tenant.Resolved{Organization: org}).State()),
		UpdatedAt:    org.UpdatedAt,
	}
	if org.HasSubdomain() && h.Tenant.BaseDomain != "" {
		v.SubdomainURL = h.Tenant.TenantURL(org.SubdomainValue(), "/")
	}
	if org.HasCustomDomain() && org.DomainVerification != nil {
		dv := org.DomainVerification
		v.Domain = &domainStatus{
			RecordType:  "TXT",
			RecordName:  tenant.VerificationRecordName(h.Tenant.PlatformName, org.CustomDomainValue()),
			RecordValue: dv.Token,
			RequestedAt: dv.RequestedAt,
			VerifiedAt:  dv.VerifiedAt,
			Verified:    org.DomainVerified(),
		}
	}
	return v
}
