package tenant

import (
	"context"
	"net/http"
)

type ctxKey string

const resolvedKey ctxKey = "tenant"

// NewContext returns ctx carrying res.
func NewContext(ctx context.Context, res *Resolved) context.Context {
	return context.WithValue(ctx, resolvedKey, res)
}

// FromContext returns the tenant resolved for the request, if any.
func FromContext(ctx context.Context) (*Resolved, bool) {
	res, ok := ctx.Value(resolvedKey).(*Resolved)
	return res, ok && res != nil
}

// Current is FromContext for a request.
func Current(r *http.Request) (*Resolved, bool) {
	return FromContext(r.Context())
}

// OrganizationID returns the resolved organization id, or "" when the
// request has no tenant.
func OrganizationID(r *http.Request) string {
	if res, ok := Current(r); ok {
		return res.OrganizationID
	}
	return ""
}

// WithTestTenant injects res into the request context, bypassing
// resolution. For tests.
func WithTestTenant(r *http.Request, res *Resolved) *http.Request {
	return r.WithContext(NewContext(r.Context(), res))
}
