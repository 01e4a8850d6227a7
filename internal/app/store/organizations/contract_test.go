package organizationstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/domain/models"
)

// runStoreContract exercises the behavior every Store backend shares.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) organizationstore.Store) {
	t.Helper()

	t.Run("CreateFillsGeneratedFields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		org, err := s.Create(ctx, models.Organization{
			Name:      "Montrecott HOA",
			Slug:      "Montrecott",
			Subdomain: models.StringPtr("Montrecott"),
			IsActive:  true,
		})
		assert.NoError(t, err)
		assert.NotEqual(t, "", org.ID)
		assert.Equal(t, "montrecott hoa", org.NameCI)
		assert.Equal(t, "montrecott", org.Slug)
		assert.Equal(t, "montrecott", org.SubdomainValue())
		assert.Equal(t, models.PlanFree, org.Plan)
		assert.False(t, org.CreatedAt.IsZero())
		assert.False(t, org.UpdatedAt.IsZero())
	})

	t.Run("LookupsAreCaseInsensitive", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.Create(ctx, models.Organization{
			Name:         "Cedar Ridge",
			Slug:         "cedar-ridge",
			Subdomain:    models.StringPtr("cedar"),
			CustomDomain: models.StringPtr("Community.CedarRidge.org"),
			IsActive:     true,
		})
		assert.NoError(t, err)

		byID, err := s.GetByID(ctx, created.ID)
		assert.NoError(t, err)
		assert.Equal(t, "Cedar Ridge", byID.Name)

		bySub, err := s.GetBySubdomain(ctx, "CEDAR")
		assert.NoError(t, err)
		assert.Equal(t, created.ID, bySub.ID)

		byDomain, err := s.GetByCustomDomain(ctx, "community.cedarridge.org")
		assert.NoError(t, err)
		assert.Equal(t, created.ID, byDomain.ID)

		bySlug, err := s.GetBySlug(ctx, "Cedar-Ridge")
		assert.NoError(t, err)
		assert.Equal(t, created.ID, bySlug.ID)
	})

	t.Run("MissesReturnErrNotFound", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetByID(ctx, "does-not-exist")
		assert.IsError(t, err, organizationstore.ErrNotFound)
		_, err = s.GetBySubdomain(ctx, "nobody")
		assert.IsError(t, err, organizationstore.ErrNotFound)
		_, err = s.GetByCustomDomain(ctx, "nobody.example.com")
		assert.IsError(t, err, organizationstore.ErrNotFound)
		_, err = s.GetBySlug(ctx, "nobody")
		assert.IsError(t, err, organizationstore.ErrNotFound)
		_, err = s.GetBySubdomain(ctx, "")
		assert.IsError(t, err, organizationstore.ErrNotFound)
	})

	t.Run("AddressingIsUnique", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Create(ctx, models.Organization{
			Name:         "First",
			Slug:         "first",
			Subdomain:    models.StringPtr("oak"),
			CustomDomain: models.StringPtr("oak.example.com"),
		})
		assert.NoError(t, err)

		_, err = s.Create(ctx, models.Organization{Name: "Second", Slug: "second", Subdomain: models.StringPtr("OAK")})
		assert.IsError(t, err, organizationstore.ErrDuplicateSubdomain)

		_, err = s.Create(ctx, models.Organization{Name: "Third", Slug: "third", CustomDomain: models.StringPtr("oak.example.com")})
		assert.IsError(t, err, organizationstore.ErrDuplicateCustomDomain)

		_, err = s.Create(ctx, models.Organization{Name: "Fourth", Slug: "first"})
		assert.IsError(t, err, organizationstore.ErrDuplicateSlug)
	})

	t.Run("UnsetAddressingDoesNotCollide", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Create(ctx, models.Organization{Name: "A", Slug: "a"})
		assert.NoError(t, err)
		_, err = s.Create(ctx, models.Organization{Name: "B", Slug: "b", Subdomain: models.StringPtr("")})
		assert.NoError(t, err)
	})

	t.Run("UpdateReleasesOldSubdomain", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.Create(ctx, models.Organization{Name: "Elm", Slug: "elm", Subdomain: models.StringPtr("elm"), IsActive: true})
		assert.NoError(t, err)

		created.Subdomain = models.StringPtr("elmwood")
		updated, err := s.Update(ctx, created)
		assert.NoError(t, err)
		assert.Equal(t, "elmwood", updated.SubdomainValue())
		assert.True(t, absDuration(updated.CreatedAt.Sub(created.CreatedAt)) < time.Millisecond)

		_, err = s.GetBySubdomain(ctx, "elm")
		assert.IsError(t, err, organizationstore.ErrNotFound)
		got, err := s.GetBySubdomain(ctx, "elmwood")
		assert.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)

		// The released name can be claimed by another organization.
		_, err = s.Create(ctx, models.Organization{Name: "Elm Two", Slug: "elm-two", Subdomain: models.StringPtr("elm")})
		assert.NoError(t, err)
	})

	t.Run("UpdateConflicts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Create(ctx, models.Organization{Name: "Pine", Slug: "pine", Subdomain: models.StringPtr("pine")})
		assert.NoError(t, err)
		birch, err := s.Create(ctx, models.Organization{Name: "Birch", Slug: "birch", Subdomain: models.StringPtr("birch")})
		assert.NoError(t, err)

		birch.Subdomain = models.StringPtr("pine")
		_, err = s.Update(ctx, birch)
		assert.IsError(t, err, organizationstore.ErrDuplicateSubdomain)

		_, err = s.Update(ctx, models.Organization{ID: "missing", Name: "Missing"})
		assert.IsError(t, err, organizationstore.ErrNotFound)
	})

	t.Run("ClearingCustomDomain", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.Create(ctx, models.Organization{Name: "Willow", Slug: "willow", CustomDomain: models.StringPtr("willow.example.com")})
		assert.NoError(t, err)

		created.CustomDomain = nil
		created.DomainVerification = nil
		_, err = s.Update(ctx, created)
		assert.NoError(t, err)

		_, err = s.GetByCustomDomain(ctx, "willow.example.com")
		assert.IsError(t, err, organizationstore.ErrNotFound)
	})

	t.Run("MarkDomainVerified", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		bare, err := s.Create(ctx, models.Organization{Name: "Bare", Slug: "bare"})
		assert.NoError(t, err)
		_, err = s.MarkDomainVerified(ctx, bare.ID, time.Now())
		assert.IsError(t, err, organizationstore.ErrNoPendingVerification)

		_, err = s.MarkDomainVerified(ctx, "missing", time.Now())
		assert.IsError(t, err, organizationstore.ErrNotFound)

		pending, err := s.Create(ctx, models.Organization{
			Name:         "Pending",
			Slug:         "pending",
			CustomDomain: models.StringPtr("pending.example.com"),
			DomainVerification: &models.DomainVerification{
				Token:       "loomos-verify-abc",
				RequestedAt: time.Now().UTC(),
			},
		})
		assert.NoError(t, err)
		assert.False(t, pending.DomainVerified())

		verified, err := s.MarkDomainVerified(ctx, pending.ID, time.Now())
		assert.NoError(t, err)
		assert.True(t, verified.DomainVerified())

		reread, err := s.GetByID(ctx, pending.ID)
		assert.NoError(t, err)
		assert.True(t, reread.DomainVerified())
		assert.Equal(t, "loomos-verify-abc", reread.DomainVerification.Token)
	})

	t.Run("ListSortedByName", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, name := range []string{"charlie", "Alpha", "bravo"} {
			_, err := s.Create(ctx, models.Organization{Name: name, Slug: name})
			assert.NoError(t, err)
		}

		orgs, err := s.List(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 3, len(orgs))
		assert.Equal(t, "Alpha", orgs[0].Name)
		assert.Equal(t, "bravo", orgs[1].Name)
		assert.Equal(t, "charlie", orgs[2].Name)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(context.Background()))
	})
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
