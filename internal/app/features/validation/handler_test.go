package validation_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/dalemusser/loomos/internal/app/features/validation"
	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/app/system/tenant"
	"github.com/dalemusser/loomos/internal/domain/models"
	"github.com/dalemusser/loomos/internal/testutil"
	"go.uber.org/zap"
)

type result struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}

func get(t *testing.T, h *validation.Handler, path, value string) result {
	t.Helper()
	rec := testutil.NewRecorder()
	validation.Routes(h).ServeHTTP(rec, testutil.NewRequest(http.MethodGet, path+"?value="+url.QueryEscape(value), ""))
	rec.AssertStatus(t, http.StatusOK)
	var res result
	rec.DecodeJSON(t, &res)
	return res
}

func TestSubdomain(t *testing.T) {
	store := organizationstore.NewMemoryStore()
	fx := testutil.NewFixtures(t, store)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateOrganization(ctx, "Montrecott", "montrecott")

	h := validation.NewHandler(tenant.Config{BaseDomain: "loomos.com"}, store, zap.NewNop())
	tests := []struct {
		value string
		valid bool
	}{
		{"oak-hollow", true},
		{"montrecott", false},
		{"ab", false},
		{"Oak", false},
		{"www", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			res := get(t, h, "/subdomain", tt.value)
			if res.Valid != tt.valid {
				t.Errorf("valid = %v, want %v (%s)", res.Valid, tt.valid, res.Error)
			}
			if !res.Valid && res.Error == "" {
				t.Error("invalid result without a message")
			}
		})
	}
}

func TestDomain(t *testing.T) {
	store := organizationstore.NewMemoryStore()
	fx := testutil.NewFixtures(t, store)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateWithCustomDomain(ctx, "Cedar Ridge", "community.cedarridge.org")

	h := validation.NewHandler(tenant.Config{BaseDomain: "loomos.com"}, store, zap.NewNop())
	tests := []struct {
		value string
		valid bool
	}{
		{"hoa.example.org", true},
		{"HOA.Example.org.", true},
		{"Community.CedarRidge.org", false},
		{"montrecott.loomos.com", false},
		{"not a domain", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if res := get(t, h, "/domain", tt.value); res.Valid != tt.valid {
				t.Errorf("valid = %v, want %v (%s)", res.Valid, tt.valid, res.Error)
			}
		})
	}
}

type brokenStore struct{}

func (brokenStore) GetByID(context.Context, string) (models.Organization, error) {
	return models.Organization{}, errors.New("down")
}

func (brokenStore) GetBySubdomain(context.Context, string) (models.Organization, error) {
	return models.Organization{}, errors.New("down")
}

func (brokenStore) GetByCustomDomain(context.Context, string) (models.Organization, error) {
	return models.Organization{}, errors.New("down")
}

func TestStoreFailureKeepsFormatResult(t *testing.T) {
	h := validation.NewHandler(tenant.Config{BaseDomain: "loomos.com"}, brokenStore{}, zap.NewNop())
	if res := get(t, h, "/subdomain", "oak-hollow"); !res.Valid {
		t.Errorf("expected valid on store failure, got %+v", res)
	}
}
