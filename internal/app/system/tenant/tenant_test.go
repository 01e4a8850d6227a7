package tenant

import (
	"context"
	"errors"
	"testing"
	"time"

	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/domain/models"
	"go.uber.org/zap"
)

var testConfig = Config{BaseDomain: "loomos.com"}

// seed creates organizations in a fresh memory store.
func seed(t *testing.T, orgs ...models.Organization) (*organizationstore.MemoryStore, []models.Organization) {
	t.Helper()
	s := organizationstore.NewMemoryStore()
	out := make([]models.Organization, 0, len(orgs))
	for _, o := range orgs {
		created, err := s.Create(context.Background(), o)
		if err != nil {
			t.Fatalf("seed %q: %v", o.Name, err)
		}
		out = append(out, created)
	}
	return s, out
}

// activeOrg returns an active organization. A custom domain, when given,
// is already verified.
func activeOrg(name, subdomain, customDomain string) models.Organization {
	org := models.Organization{
		Name:         name,
		Slug:         subdomain + customDomain,
		Subdomain:    models.StringPtr(subdomain),
		CustomDomain: models.StringPtr(customDomain),
		IsActive:     true,
	}
	if customDomain != "" {
		verified := time.Now().UTC()
		org.DomainVerification = &models.DomainVerification{
			Token:       "loomos-verify-test",
			RequestedAt: verified.Add(-time.Hour),
			VerifiedAt:  &verified,
		}
	}
	return org
}

// failingStore fails every read.
type failingStore struct{ err error }

func (f failingStore) GetByID(context.Context, string) (models.Organization, error) {
	return models.Organization{}, f.err
}

func (f failingStore) GetBySubdomain(context.Context, string) (models.Organization, error) {
	return models.Organization{}, f.err
}

func (f failingStore) GetByCustomDomain(context.Context, string) (models.Organization, error) {
	return models.Organization{}, f.err
}

var errStoreDown = errors.New("connection refused")

func newTestLookup(store Store) *Lookup {
	return NewLookup(testConfig, store, zap.NewNop())
}

func newTestResolver(store Store) *Resolver {
	return NewResolver(testConfig, store, zap.NewNop())
}
