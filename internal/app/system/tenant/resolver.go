package tenant

import (
	"context"
	"errors"
	"time"

	orgstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/app/system/metrics"
	"github.com/dalemusser/loomos/internal/domain/models"
	"go.uber.org/zap"
)

// Source records which resolution path produced a tenant.
type Source string

const (
	SourceSubdomain    Source = "subdomain"
	SourceCustomDomain Source = "custom_domain"
	SourceSession      Source = "session"
	SourceParam        Source = "param"
)

// State is the service state of a resolved organization.
type State string

const (
	StateActive    State = "active"
	StateInactive  State = "inactive"
	StateSuspended State = "suspended"
)

// Session is the read-only view of the signed-in user the tenant layer
// needs. A nil *Session means the request is unauthenticated.
type Session struct {
	UserID         string
	Role           models.Role
	OrganizationID string
}

// IsSuperAdmin reports whether the session may cross tenant boundaries.
func (s *Session) IsSuperAdmin() bool {
	return s != nil && s.Role.IsSuperAdmin()
}

// Resolved is the per-request outcome of tenant resolution.
type Resolved struct {
	OrganizationID string
	Source         Source
	Organization   models.Organization
}

// State reports whether the organization is servable. Hostname resolutions
// are always StateActive; session and param resolutions may carry a
// disabled organization so the caller can show a notice instead of content.
func (r *Resolved) State() State {
	switch {
	case r.Organization.IsSuspended:
		return StateSuspended
	case !r.Organization.IsActive:
		return StateInactive
	default:
		return StateActive
	}
}

// Servable reports whether tenant content may be rendered for r.
func (r *Resolved) Servable() bool {
	return r != nil && r.State() == StateActive
}

// Request carries the untrusted inputs of one resolution.
type Request struct {
	Host       string   // raw Host header
	OrgIDParam string   // optional override, honored for superadmins only
	Session    *Session // nil when unauthenticated
}

// Resolver applies the resolution priority chain.
type Resolver struct {
	lookup *Lookup
	store  Store
	log    *zap.Logger
}

// NewResolver returns a Resolver reading from store.
func NewResolver(cfg Config, store Store, logger *zap.Logger) *Resolver {
	return &Resolver{
		lookup: NewLookup(cfg, store, logger),
		store:  store,
		log:    logger,
	}
}

// Lookup returns the hostname lookup used by the resolver.
func (rv *Resolver) Lookup() *Lookup { return rv.lookup }

// Resolve returns the tenant for req, or nil when no path produces one.
// Each step short-circuits on success:
//  1. OrgIDParam, only when the session is a superadmin (no flag filtering)
//  2. the Host header (fail-closed on inactive/suspended)
//  3. the session's home organization (no flag filtering)
func (rv *Resolver) Resolve(ctx context.Context, req Request) *Resolved {
	res := rv.resolve(ctx, req)
	if res == nil {
		metrics.RecordResolution("")
	} else {
		metrics.RecordResolution(string(res.Source))
	}
	return res
}

func (rv *Resolver) resolve(ctx context.Context, req Request) *Resolved {
	if req.OrgIDParam != "" {
		if req.Session.IsSuperAdmin() {
			if org, ok := rv.byID(ctx, req.OrgIDParam); ok {
				return &Resolved{OrganizationID: org.ID, Source: SourceParam, Organization: org}
			}
		} else {
			rv.log.Debug("ignoring organization override from non-superadmin",
				zap.String("org_param", req.OrgIDParam))
		}
	}

	if info := rv.lookup.FromHostname(ctx, req.Host); info != nil {
		src := SourceSubdomain
		if info.MatchedCustomDomain {
			src = SourceCustomDomain
		}
		return &Resolved{OrganizationID: info.OrganizationID, Source: src, Organization: info.Organization}
	}

	if req.Session != nil && req.Session.OrganizationID != "" {
		if org, ok := rv.byID(ctx, req.Session.OrganizationID); ok {
			return &Resolved{OrganizationID: org.ID, Source: SourceSession, Organization: org}
		}
	}

	return nil
}

func (rv *Resolver) byID(ctx context.Context, id string) (models.Organization, bool) {
	start := time.Now()
	org, err := rv.store.GetByID(ctx, id)
	metrics.RecordLookup("id", err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, orgstore.ErrNotFound) {
			rv.log.Warn("organization lookup failed",
				zap.String("by", "id"),
				zap.String("key", id),
				zap.Error(err))
		}
		return models.Organization{}, false
	}
	return org, true
}
