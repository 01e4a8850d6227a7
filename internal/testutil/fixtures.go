package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestContext returns a context bounded for a single test operation.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// Fixtures creates organizations in any organization store.
type Fixtures struct {
	store organizationstore.Store
	t     *testing.T
}

// NewFixtures creates a new Fixtures instance writing to store.
func NewFixtures(t *testing.T, store organizationstore.Store) *Fixtures {
	t.Helper()
	return &Fixtures{store: store, t: t}
}

// Store returns the underlying store for direct access in tests.
func (f *Fixtures) Store() organizationstore.Store {
	return f.store
}

// CreateOrganization creates an active organization addressed by subdomain.
func (f *Fixtures) CreateOrganization(ctx context.Context, name, subdomain string) models.Organization {
	f.t.Helper()
	return f.Create(ctx, models.Organization{
		Name:      name,
		Slug:      slugify(name),
		Subdomain: models.StringPtr(subdomain),
		IsActive:  true,
	})
}

// CreateWithCustomDomain creates an active organization addressed by a
// verified custom domain.
func (f *Fixtures) CreateWithCustomDomain(ctx context.Context, name, domain string) models.Organization {
	f.t.Helper()
	now := time.Now().UTC()
	return f.Create(ctx, models.Organization{
		Name:         name,
		Slug:         slugify(name),
		CustomDomain: models.StringPtr(domain),
		DomainVerification: &models.DomainVerification{
			Token:       "loomos-verify-fixture",
			RequestedAt: now,
			VerifiedAt:  &now,
		},
		IsActive: true,
	})
}

// CreateSuspended creates a suspended organization addressed by subdomain.
func (f *Fixtures) CreateSuspended(ctx context.Context, name, subdomain string) models.Organization {
	f.t.Helper()
	return f.Create(ctx, models.Organization{
		Name:        name,
		Slug:        slugify(name),
		Subdomain:   models.StringPtr(subdomain),
		IsActive:    true,
		IsSuspended: true,
	})
}

// CreateInactive creates an inactive organization addressed by subdomain.
func (f *Fixtures) CreateInactive(ctx context.Context, name, subdomain string) models.Organization {
	f.t.Helper()
	return f.Create(ctx, models.Organization{
		Name:      name,
		Slug:      slugify(name),
		Subdomain: models.StringPtr(subdomain),
	})
}

// Create stores org, failing the test on error.
func (f *Fixtures) Create(ctx context.Context, org models.Organization) models.Organization {
	f.t.Helper()
	created, err := f.store.Create(ctx, org)
	if err != nil {
		f.t.Fatalf("failed to create test organization %q: %v", org.Name, err)
	}
	return created
}

func slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
