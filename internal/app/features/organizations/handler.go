// internal/app/features/organizations/handler.go
package organizations

import (
	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/app/system/tenant"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// maxBodyBytes bounds JSON request bodies on the settings API.
const maxBodyBytes = 16 << 10

// Handler is the feature-level entry point for organization settings.
type Handler struct {
	Store     organizationstore.Store
	Guard     *tenant.Guard
	Validator tenant.Validator
	Tenant    tenant.Config
	Log       *zap.Logger

	policy *bluemonday.Policy
}

// NewHandler constructs an organization settings Handler over store.
func NewHandler(store organizationstore.Store, cfg tenant.Config, logger *zap.Logger) *Handler {
	cfg = cfg.Normalize()
	return &Handler{
		Store:     store,
		Guard:     tenant.NewGuard(store),
		Validator: tenant.NewValidator(cfg),
		Tenant:    cfg,
		Log:       logger,
		policy:    bluemonday.StrictPolicy(),
	}
}
