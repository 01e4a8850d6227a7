// Package organizationstore persists organizations (tenants).
//
// Several backends implement Store: MongoStore is the primary, PostgresStore
// serves relational deployments, BoltStore is a single-node embedded store,
// and MemoryStore backs tests and tooling. CachedStore wraps any of them with
// a Redis read-through cache for the hostname lookups done on every request.
//
// Subdomains, custom domains and slugs are stored lowercased and are unique
// across organizations when set. Every backend reports a conflict with the
// matching ErrDuplicate* error and a miss with ErrNotFound.
package organizationstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/loomos/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
)

var (
	ErrNotFound              = errors.New("organization not found")
	ErrDuplicateID           = errors.New("an organization with this id already exists")
	ErrDuplicateSubdomain    = errors.New("subdomain is already in use by another organization")
	ErrDuplicateCustomDomain = errors.New("custom domain is already in use by another organization")
	ErrDuplicateSlug         = errors.New("an organization with this slug already exists")
	ErrNoPendingVerification = errors.New("organization has no custom domain awaiting verification")
)

// Store is the full organization persistence API.
type Store interface {
	Create(ctx context.Context, org models.Organization) (models.Organization, error)
	GetByID(ctx context.Context, id string) (models.Organization, error)
	GetBySlug(ctx context.Context, slug string) (models.Organization, error)
	GetBySubdomain(ctx context.Context, subdomain string) (models.Organization, error)
	GetByCustomDomain(ctx context.Context, domain string) (models.Organization, error)
	List(ctx context.Context) ([]models.Organization, error)
	// Update replaces the mutable fields of the organization with org.ID and
	// refreshes UpdatedAt. CreatedAt is preserved.
	Update(ctx context.Context, org models.Organization) (models.Organization, error)
	// MarkDomainVerified stamps the pending custom-domain verification.
	MarkDomainVerified(ctx context.Context, id string, at time.Time) (models.Organization, error)
	Ping(ctx context.Context) error
}

// prepareCreate fills the generated fields of a new organization.
func prepareCreate(org models.Organization, now time.Time) models.Organization {
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	if org.Plan == "" {
		org.Plan = models.PlanFree
	}
	org = normalize(org)
	org.CreatedAt = now
	org.UpdatedAt = now
	return org
}

// normalize lowercases lookup keys, folds the name, and turns empty
// addressing pointers into nil so they never occupy a unique index slot.
func normalize(org models.Organization) models.Organization {
	org.NameCI = text.Fold(org.Name)
	org.Slug = key(org.Slug)
	org.Subdomain = models.StringPtr(key(org.SubdomainValue()))
	org.CustomDomain = models.StringPtr(key(org.CustomDomainValue()))
	return org
}

func key(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
}

// clone returns a copy of org that shares no pointers or maps with it.
func clone(org models.Organization) models.Organization {
	if org.Subdomain != nil {
		v := *org.Subdomain
		org.Subdomain = &v
	}
	if org.CustomDomain != nil {
		v := *org.CustomDomain
		org.CustomDomain = &v
	}
	if org.DomainVerification != nil {
		dv := *org.DomainVerification
		if dv.VerifiedAt != nil {
			t := *dv.VerifiedAt
			dv.VerifiedAt = &t
		}
		org.DomainVerification = &dv
	}
	if org.Features != nil {
		f := make(map[string]bool, len(org.Features))
		for k, v := range org.Features {
			f[k] = v
		}
		org.Features = f
	}
	return org
}

// markVerified applies MarkDomainVerified to an in-memory copy.
func markVerified(org models.Organization, at time.Time) (models.Organization, error) {
	if !org.HasCustomDomain() || org.DomainVerification == nil {
		return models.Organization{}, ErrNoPendingVerification
	}
	at = at.UTC()
	org.DomainVerification.VerifiedAt = &at
	org.UpdatedAt = time.Now().UTC()
	return org, nil
}
