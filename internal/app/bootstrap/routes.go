// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/loomos/internal/app/features/errors"
	healthfeature "github.com/dalemusser/loomos/internal/app/features/health"
	organizationsfeature "github.com/dalemusser/loomos/internal/app/features/organizations"
	tenantinfofeature "github.com/dalemusser/loomos/internal/app/features/tenantinfo"
	validationfeature "github.com/dalemusser/loomos/internal/app/features/validation"
	"github.com/dalemusser/loomos/internal/app/system/auth"
	"github.com/dalemusser/loomos/internal/app/system/metrics"
	"github.com/dalemusser/loomos/internal/app/system/ratelimit"
	"github.com/dalemusser/loomos/internal/app/system/tenant"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for loomos.
//
// Every request passes through the same chain: metrics instrumentation,
// session loading, then tenant resolution. Handlers read the outcome with
// tenant.Current(r); routes that need a tenant add tenant.RequireTenant.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg != nil && coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	tc := appCfg.TenantConfig()
	resolver := tenant.NewResolver(tc, deps.Orgs, logger)

	r := chi.NewRouter()

	r.Use(metrics.InstrumentHandler)

	// Loads SessionUser into context if logged in; tenant resolution reads it
	// for the superadmin override and the home-organization fallback.
	r.Use(sessionMgr.LoadSessionUser)
	r.Use(resolver.Middleware(tc.OrgParam))

	r.Handle("/metrics", metrics.Handler())

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Orgs, appCfg.StoreDriver, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Error pages (browser fallbacks for respond.Fail redirects)
	errorsHandler := errorsfeature.NewHandler(tc.PlatformName, logger)
	r.Get("/not-found", errorsHandler.NotFound)
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.Get("/suspended", errorsHandler.Suspended)

	// Tenant API
	r.Mount("/api/tenant", tenantinfofeature.Routes(tenantinfofeature.NewHandler(tc, logger)))
	// Availability checks reveal which names are taken; throttle per client.
	proxies, err := ratelimit.ParseTrustedProxies(appCfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	validateLimiter := ratelimit.New(appCfg.ValidateRateLimit, time.Minute).TrustProxies(proxies)
	r.With(validateLimiter.Middleware("validate")).
		Mount("/api/validate", validationfeature.Routes(validationfeature.NewHandler(tc, deps.Orgs, logger)))

	orgHandler := organizationsfeature.NewHandler(deps.Orgs, tc, logger)
	r.Mount("/api/organizations", organizationsfeature.Routes(orgHandler, sessionMgr))

	return r, nil
}
