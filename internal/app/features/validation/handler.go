// Package validation exposes the addressing validator to onboarding and
// settings forms.
package validation

import (
	"context"
	"errors"
	"net/http"
	"strings"

	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/app/system/respond"
	"github.com/dalemusser/loomos/internal/app/system/tenant"
	"github.com/dalemusser/loomos/internal/app/system/timeouts"
	"github.com/dalemusser/loomos/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler validates subdomain and custom domain candidates. When a
// candidate is well-formed it also reports whether it is already taken.
type Handler struct {
	Validator tenant.Validator
	Store     tenant.Store
	Log       *zap.Logger
}

// NewHandler constructs a validation Handler.
func NewHandler(cfg tenant.Config, store tenant.Store, logger *zap.Logger) *Handler {
	return &Handler{Validator: tenant.NewValidator(cfg), Store: store, Log: logger}
}

// Subdomain handles GET /api/validate/subdomain?value=.
func (h *Handler) Subdomain(w http.ResponseWriter, r *http.Request) {
	value := strings.TrimSpace(r.URL.Query().Get("value"))
	v := h.Validator.Subdomain(value)
	if v.Valid {
		v = h.available(r.Context(), "subdomain", value, h.Store.GetBySubdomain,
			"This subdomain is already in use.")
	}
	respond.JSON(w, http.StatusOK, v)
}

// Domain handles GET /api/validate/domain?value=.
func (h *Handler) Domain(w http.ResponseWriter, r *http.Request) {
	value := strings.TrimSuffix(strings.TrimSpace(r.URL.Query().Get("value")), ".")
	v := h.Validator.CustomDomain(value)
	if v.Valid {
		v = h.available(r.Context(), "custom_domain", tenant.NormalizeDomain(value), h.Store.GetByCustomDomain,
			"This domain is already in use by another organization.")
	}
	respond.JSON(w, http.StatusOK, v)
}

// available reports a taken value as invalid. A store failure leaves the
// value valid; the write path enforces uniqueness regardless.
func (h *Handler) available(ctx context.Context, by, value string, get func(context.Context, string) (models.Organization, error), taken string) tenant.Validation {
	ctx, cancel := timeouts.WithShort(ctx)
	defer cancel()

	_, err := get(ctx, value)
	switch {
	case err == nil:
		return tenant.Validation{Error: taken}
	case !errors.Is(err, organizationstore.ErrNotFound):
		h.Log.Warn("availability check failed", zap.String("by", by), zap.String("value", value), zap.Error(err))
	}
	return tenant.Validation{Valid: true}
}

// Routes returns a subrouter mounted at /api/validate.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/subdomain", h.Subdomain)
	r.Get("/domain", h.Domain)
	return r
}
