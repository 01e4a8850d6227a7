package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/app/system/tenant"
	"github.com/dalemusser/loomos/internal/domain/models"
	"go.uber.org/zap"
)

func newTestCtx(t *testing.T, store organizationstore.Store, txt map[string][]string) (*cliCtx, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &cliCtx{
		Context: context.Background(),
		Logger:  zap.NewNop(),
		Out:     &out,
		Tenant:  tenant.Config{BaseDomain: "loomos.com", PlatformName: "loomos"}.Normalize(),
		OpenStore: func(context.Context) (organizationstore.Store, func(), error) {
			return store, func() {}, nil
		},
		LookupTXT: func(_ context.Context, name string) ([]string, error) {
			if recs, ok := txt[name]; ok {
				return recs, nil
			}
			return nil, errors.New("no such host")
		},
	}, &out
}

func TestValidateSubdomain(t *testing.T) {
	ctx, out := newTestCtx(t, organizationstore.NewMemoryStore(), nil)

	assert.NoError(t, (&ValidateSubdomainCmd{Value: "montrecott"}).Run(ctx))
	assert.Contains(t, out.String(), "montrecott: valid")

	out.Reset()
	err := (&ValidateSubdomainCmd{Value: "www"}).Run(ctx)
	assert.IsError(t, err, errInvalid)
	assert.Contains(t, out.String(), "reserved")
}

func TestValidateDomain(t *testing.T) {
	ctx, out := newTestCtx(t, organizationstore.NewMemoryStore(), nil)

	assert.NoError(t, (&ValidateDomainCmd{Value: "community.example.org"}).Run(ctx))

	out.Reset()
	err := (&ValidateDomainCmd{Value: "oak.loomos.com"}).Run(ctx)
	assert.IsError(t, err, errInvalid)
	assert.NotEqual(t, "", strings.TrimSpace(out.String()))
}

func TestToken(t *testing.T) {
	ctx, out := newTestCtx(t, organizationstore.NewMemoryStore(), nil)

	assert.NoError(t, (&TokenCmd{}).Run(ctx))
	assert.True(t, tenant.IsVerificationToken("loomos", strings.TrimSpace(out.String())))

	out.Reset()
	assert.NoError(t, (&TokenCmd{Domain: "community.example.org"}).Run(ctx))
	assert.Contains(t, out.String(), tenant.VerificationRecordName("loomos", "community.example.org"))
	assert.Contains(t, out.String(), "TXT")

	assert.Error(t, (&TokenCmd{Domain: "not a domain"}).Run(ctx))
}

func seedOrgs(t *testing.T) *organizationstore.MemoryStore {
	t.Helper()
	store := organizationstore.NewMemoryStore()
	ctx := context.Background()
	for _, org := range []models.Organization{
		{ID: "org-oak", Name: "Oak Hollow", Slug: "oak", Subdomain: models.StringPtr("oak"), IsActive: true},
		{ID: "org-paused", Name: "Paused", Slug: "paused", Subdomain: models.StringPtr("paused"), IsActive: true, IsSuspended: true},
		{
			ID: "org-cedar", Name: "Cedar Ridge", Slug: "cedar",
			CustomDomain: models.StringPtr("community.cedarridge.org"),
			DomainVerification: &models.DomainVerification{
				Token:       "loomos-verify-cedar",
				RequestedAt: time.Now().UTC(),
			},
			IsActive: true,
		},
	} {
		_, err := store.Create(ctx, org)
		assert.NoError(t, err)
	}
	return store
}

func TestResolve(t *testing.T) {
	ctx, out := newTestCtx(t, seedOrgs(t), nil)

	assert.NoError(t, (&ResolveCmd{Host: "oak.loomos.com"}).Run(ctx))
	assert.Contains(t, out.String(), "org-oak")
	assert.Contains(t, out.String(), string(tenant.SourceSubdomain))

	out.Reset()
	assert.NoError(t, (&ResolveCmd{Host: "loomos.com", OrgID: "org-paused", Role: "superadmin"}).Run(ctx))
	assert.Contains(t, out.String(), "org-paused")
	assert.Contains(t, out.String(), string(tenant.StateSuspended))

	out.Reset()
	err := (&ResolveCmd{Host: "paused.loomos.com"}).Run(ctx)
	assert.IsError(t, err, errUnresolved)
	assert.Contains(t, out.String(), "not resolved")
}

func TestVerify(t *testing.T) {
	store := seedOrgs(t)
	name := tenant.VerificationRecordName("loomos", "community.cedarridge.org")

	t.Run("MissingRecord", func(t *testing.T) {
		ctx, _ := newTestCtx(t, store, nil)
		assert.IsError(t, (&VerifyCmd{OrgID: "org-cedar"}).Run(ctx), errNotVerified)
	})

	t.Run("WrongToken", func(t *testing.T) {
		ctx, _ := newTestCtx(t, store, map[string][]string{name: {"loomos-verify-other"}})
		assert.IsError(t, (&VerifyCmd{OrgID: "org-cedar"}).Run(ctx), errNotVerified)
	})

	t.Run("DryRun", func(t *testing.T) {
		ctx, out := newTestCtx(t, store, map[string][]string{name: {`"loomos-verify-cedar"`}})
		assert.NoError(t, (&VerifyCmd{OrgID: "org-cedar", DryRun: true}).Run(ctx))
		assert.Contains(t, out.String(), "dry run")

		org, err := store.GetByID(context.Background(), "org-cedar")
		assert.NoError(t, err)
		assert.False(t, org.DomainVerified())
	})

	t.Run("Verified", func(t *testing.T) {
		ctx, out := newTestCtx(t, store, map[string][]string{name: {"unrelated", "loomos-verify-cedar"}})
		assert.NoError(t, (&VerifyCmd{OrgID: "org-cedar"}).Run(ctx))
		assert.Contains(t, out.String(), "verified")

		org, err := store.GetByID(context.Background(), "org-cedar")
		assert.NoError(t, err)
		assert.True(t, org.DomainVerified())

		out.Reset()
		assert.NoError(t, (&VerifyCmd{OrgID: "org-cedar"}).Run(ctx))
		assert.Contains(t, out.String(), "already verified")
	})

	t.Run("NoCustomDomain", func(t *testing.T) {
		ctx, _ := newTestCtx(t, store, nil)
		assert.Error(t, (&VerifyCmd{OrgID: "org-oak"}).Run(ctx))
	})
}
