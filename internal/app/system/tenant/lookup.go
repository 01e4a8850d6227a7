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

// Store is the organization data the tenant layer reads. Every method
// returns orgstore.ErrNotFound when no organization matches.
type Store interface {
	GetByID(ctx context.Context, id string) (models.Organization, error)
	GetBySubdomain(ctx context.Context, subdomain string) (models.Organization, error)
	GetByCustomDomain(ctx context.Context, domain string) (models.Organization, error)
}

// Info is the result of resolving a hostname to a servable organization.
type Info struct {
	OrganizationID      string
	Subdomain           string // subdomain candidate parsed from the host, if any
	CustomDomain        string // bare host when it matched a custom domain
	MatchedCustomDomain bool
	Organization        models.Organization
}

// Lookup resolves hostnames to organizations.
type Lookup struct {
	parser Parser
	store  Store
	log    *zap.Logger
}

// NewLookup returns a Lookup reading from store.
func NewLookup(cfg Config, store Store, logger *zap.Logger) *Lookup {
	return &Lookup{parser: NewParser(cfg), store: store, log: logger}
}

// Parser returns the hostname parser used by the lookup.
func (l *Lookup) Parser() Parser { return l.parser }

// FromHostname resolves host to a servable organization. It tries the
// subdomain candidate first, then the bare host as a custom domain.
//
// It returns nil when nothing matches, when the organization is inactive or
// suspended, when a custom domain has not passed verification, and when the
// store fails. Callers cannot tell these apart, so
// anonymous probing of hostnames does not reveal which tenants exist.
func (l *Lookup) FromHostname(ctx context.Context, host string) *Info {
	bare := BareHost(host)
	if bare == "" {
		return nil
	}
	sub, hasSub := l.parser.ExtractSubdomain(bare)

	var (
		org   models.Organization
		found bool
		byCD  bool
	)
	if hasSub {
		org, found = l.get(ctx, "subdomain", sub, l.store.GetBySubdomain)
	}
	if !found {
		org, found = l.get(ctx, "custom_domain", bare, l.store.GetByCustomDomain)
		byCD = found
	}
	if !found {
		return nil
	}

	if byCD && !org.DomainVerified() {
		// The claim stays in the store; it is served once verification lands.
		l.log.Info("hostname matched an unverified custom domain",
			zap.String("host", bare),
			zap.String("organization_id", org.ID))
		return nil
	}

	if !org.Servable() {
		l.log.Info("hostname matched a disabled organization",
			zap.String("host", bare),
			zap.String("organization_id", org.ID),
			zap.Bool("is_active", org.IsActive),
			zap.Bool("is_suspended", org.IsSuspended))
		return nil
	}

	info := &Info{
		OrganizationID:      org.ID,
		Subdomain:           sub,
		MatchedCustomDomain: byCD,
		Organization:        org,
	}
	if byCD {
		info.CustomDomain = bare
	}
	return info
}

// get runs one store lookup, logging failures other than not-found.
func (l *Lookup) get(ctx context.Context, by, key string, fn func(context.Context, string) (models.Organization, error)) (models.Organization, bool) {
	start := time.Now()
	org, err := fn(ctx, key)
	metrics.RecordLookup(by, err == nil, time.Since(start))
	if err == nil {
		return org, true
	}
	if !errors.Is(err, orgstore.ErrNotFound) {
		l.log.Warn("organization lookup failed",
			zap.String("by", by),
			zap.String("key", key),
			zap.Error(err))
	}
	return models.Organization{}, false
}
