package tenant

import (
	"net/http"

	"github.com/dalemusser/loomos/internal/app/system/auth"
	"github.com/dalemusser/loomos/internal/app/system/respond"
	"github.com/dalemusser/loomos/internal/app/system/timeouts"
	"github.com/dalemusser/loomos/internal/domain/models"
	"go.uber.org/zap"
)

// SessionFromUser projects the auth session user onto the view the tenant
// layer consumes. It returns nil for a nil user.
func SessionFromUser(u *auth.SessionUser) *Session {
	if u == nil {
		return nil
	}
	return &Session{
		UserID:         u.ID,
		Role:           models.ParseRole(u.Role),
		OrganizationID: u.OrganizationID,
	}
}

// SessionFromRequest returns the tenant session for r, or nil when the
// request is unauthenticated. Run after auth.LoadSessionUser.
func SessionFromRequest(r *http.Request) *Session {
	u, _ := auth.CurrentUser(r)
	return SessionFromUser(u)
}

// Middleware resolves the tenant for every request and stores the result in
// the request context. A request with no tenant continues with none set;
// RequireTenant decides whether that is acceptable for a route.
func (rv *Resolver) Middleware(param string) func(http.Handler) http.Handler {
	if param == "" {
		param = DefaultOrgParam
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := timeouts.WithShort(r.Context())
			res := rv.Resolve(ctx, Request{
				Host:       r.Host,
				OrgIDParam: r.URL.Query().Get(param),
				Session:    SessionFromRequest(r),
			})
			cancel()

			if res != nil {
				rv.log.Debug("tenant resolved",
					zap.String("host", r.Host),
					zap.String("organization_id", res.OrganizationID),
					zap.String("source", string(res.Source)))
				r = r.WithContext(NewContext(r.Context(), res))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenant rejects requests that resolved no tenant: browsers are sent
// to /not-found, API clients get 404.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := Current(r); !ok {
			respond.Fail(w, r, http.StatusNotFound, "/not-found", "organization not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireServable rejects requests whose tenant is inactive or suspended.
// Only session and param resolutions can reach it with such a tenant.
func RequireServable(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := Current(r)
		if !ok {
			respond.Fail(w, r, http.StatusNotFound, "/not-found", "organization not found")
			return
		}
		if !res.Servable() {
			respond.Fail(w, r, http.StatusForbidden, "/suspended", "organization is "+string(res.State()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
