package organizations_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/loomos/internal/app/features/organizations"
	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/app/system/auth"
	"github.com/dalemusser/loomos/internal/app/system/tenant"
	"github.com/dalemusser/loomos/internal/testutil"
	"go.uber.org/zap"
)

type orgResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Subdomain    string `json:"subdomain"`
	SubdomainURL string `json:"subdomain_url"`
	CustomDomain string `json:"custom_domain"`
	State        string `json:"state"`
	Branding     struct {
		LogoURL        string `json:"logo_url"`
		PrimaryColor   string `json:"primary_color"`
		SecondaryColor string `json:"secondary_color"`
	} `json:"branding"`
	Domain *struct {
		RecordType  string `json:"record_type"`
		RecordName  string `json:"record_name"`
		RecordValue string `json:"record_value"`
		Verified    bool   `json:"verified"`
	} `json:"domain_verification"`
}

type fieldErr struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func newTestHandler(t *testing.T) (*organizations.Handler, *testutil.Fixtures) {
	t.Helper()
	store := organizationstore.NewMemoryStore()
	h := organizations.NewHandler(store, tenant.Config{BaseDomain: "loomos.com"}, zap.NewNop())
	return h, testutil.NewFixtures(t, store)
}

// call invokes fn with {id} set and user in context.
func call(fn http.HandlerFunc, method, id, body string, user *testutil.TestUser) *testutil.ResponseRecorder {
	req := testutil.NewRequest(method, "/api/organizations/"+id, body)
	if user != nil {
		req = testutil.WithUser(req, *user)
	}
	req = testutil.WithChiURLParam(req, "id", id)
	rec := testutil.NewRecorder()
	fn(rec, req)
	return rec
}

func ptr(u testutil.TestUser) *testutil.TestUser { return &u }

func TestServeView_OwnOrganization(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := fx.CreateOrganization(ctx, "Montrecott", "montrecott")

	rec := call(h.ServeView, http.MethodGet, org.ID, "", ptr(testutil.MemberUser(org.ID)))
	rec.AssertStatus(t, http.StatusOK)

	var got orgResponse
	rec.DecodeJSON(t, &got)
	if got.ID != org.ID || got.Subdomain != "montrecott" || got.State != "active" {
		t.Errorf("unexpected view %+v", got)
	}
	if got.SubdomainURL != "https://montrecott.loomos.com/" {
		t.Errorf("SubdomainURL = %q", got.SubdomainURL)
	}
}

func TestServeView_TenantIsolation(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	oak := fx.CreateOrganization(ctx, "Oak Hollow", "oak")
	cedar := fx.CreateOrganization(ctx, "Cedar Ridge", "cedar")

	tests := []struct {
		name string
		id   string
		user *testutil.TestUser
		want int
	}{
		{"admin of other org", cedar.ID, ptr(testutil.AdminUser(oak.ID)), http.StatusForbidden},
		{"member of other org", cedar.ID, ptr(testutil.MemberUser(oak.ID)), http.StatusForbidden},
		{"missing org is hidden", "missing", ptr(testutil.AdminUser(oak.ID)), http.StatusForbidden},
		{"superadmin any org", cedar.ID, ptr(testutil.SuperAdminUser()), http.StatusOK},
		{"superadmin missing org", "missing", ptr(testutil.SuperAdminUser()), http.StatusNotFound},
		{"anonymous", oak.ID, nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(h.ServeView, http.MethodGet, tt.id, "", tt.user)
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestHandleSubdomain(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	oak := fx.CreateOrganization(ctx, "Oak Hollow", "oak")
	fx.CreateOrganization(ctx, "Cedar Ridge", "cedar")
	admin := ptr(testutil.AdminUser(oak.ID))

	t.Run("invalid", func(t *testing.T) {
		for _, body := range []string{`{"subdomain":"ab"}`, `{"subdomain":"Oak"}`, `{"subdomain":"www"}`, `{"subdomain":"-oak"}`, `{}`} {
			rec := call(h.HandleSubdomain, http.MethodPut, oak.ID, body, admin)
			rec.AssertStatus(t, http.StatusBadRequest)
			var fe fieldErr
			rec.DecodeJSON(t, &fe)
			if fe.Field != "subdomain" || fe.Error == "" {
				t.Errorf("%s: unexpected error body %+v", body, fe)
			}
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := call(h.HandleSubdomain, http.MethodPut, oak.ID, `{"subdomain":`, admin)
		rec.AssertStatus(t, http.StatusBadRequest)
	})

	t.Run("taken", func(t *testing.T) {
		rec := call(h.HandleSubdomain, http.MethodPut, oak.ID, `{"subdomain":"cedar"}`, admin)
		rec.AssertStatus(t, http.StatusConflict)
	})

	t.Run("renamed", func(t *testing.T) {
		rec := call(h.HandleSubdomain, http.MethodPut, oak.ID, `{"subdomain":"oak-hollow"}`, admin)
		rec.AssertStatus(t, http.StatusOK)

		var got orgResponse
		rec.DecodeJSON(t, &got)
		if got.Subdomain != "oak-hollow" || got.SubdomainURL != "https://oak-hollow.loomos.com/" {
			t.Errorf("unexpected view %+v", got)
		}
		if _, err := fx.Store().GetBySubdomain(ctx, "oak"); err == nil {
			t.Error("old subdomain still resolves")
		}
	})

	t.Run("other tenant", func(t *testing.T) {
		cedarAdmin := ptr(testutil.AdminUser("someone-else"))
		rec := call(h.HandleSubdomain, http.MethodPut, oak.ID, `{"subdomain":"stolen"}`, cedarAdmin)
		rec.AssertStatus(t, http.StatusForbidden)
	})
}

func TestHandleCustomDomain(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	oak := fx.CreateOrganization(ctx, "Oak Hollow", "oak")
	admin := ptr(testutil.AdminUser(oak.ID))

	for _, body := range []string{`{"domain":"not a domain"}`, `{"domain":"evil.loomos.com"}`, `{"domain":""}`} {
		rec := call(h.HandleCustomDomain, http.MethodPut, oak.ID, body, admin)
		rec.AssertStatus(t, http.StatusBadRequest)
	}

	rec := call(h.HandleCustomDomain, http.MethodPut, oak.ID, `{"domain":"Community.OakHollow.org."}`, admin)
	rec.AssertStatus(t, http.StatusOK)
	var got orgResponse
	rec.DecodeJSON(t, &got)
	if got.CustomDomain != "community.oakhollow.org" {
		t.Errorf("CustomDomain = %q", got.CustomDomain)
	}
	if got.Domain == nil {
		t.Fatal("expected verification instructions")
	}
	if got.Domain.RecordType != "TXT" || got.Domain.RecordName != "_loomos-verify.community.oakhollow.org" {
		t.Errorf("unexpected record %+v", got.Domain)
	}
	if !tenant.IsVerificationToken("loomos", got.Domain.RecordValue) || got.Domain.Verified {
		t.Errorf("unexpected token %+v", got.Domain)
	}

	// Setting the same domain again keeps the token.
	rec = call(h.HandleCustomDomain, http.MethodPut, oak.ID, `{"domain":"community.oakhollow.org"}`, admin)
	rec.AssertStatus(t, http.StatusOK)
	var again orgResponse
	rec.DecodeJSON(t, &again)
	if again.Domain == nil || again.Domain.RecordValue != got.Domain.RecordValue {
		t.Error("re-submitting the same domain rotated the token")
	}

	// Pending domains are not served until verified, but they are claimed.
	other := fx.CreateOrganization(ctx, "Cedar Ridge", "cedar")
	rec = call(h.HandleCustomDomain, http.MethodPut, other.ID, `{"domain":"community.oakhollow.org"}`, ptr(testutil.AdminUser(other.ID)))
	rec.AssertStatus(t, http.StatusConflict)

	rec = call(h.HandleClearCustomDomain, http.MethodDelete, oak.ID, "", admin)
	rec.AssertStatus(t, http.StatusOK)
	var cleared orgResponse
	rec.DecodeJSON(t, &cleared)
	if cleared.CustomDomain != "" || cleared.Domain != nil {
		t.Errorf("custom domain not cleared: %+v", cleared)
	}
}

func TestHandleBranding(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	oak := fx.CreateOrganization(ctx, "Oak Hollow", "oak")
	admin := ptr(testutil.AdminUser(oak.ID))

	bad := []string{
		`{"name":"<script>alert(1)</script>"}`,
		`{"name":"   "}`,
		`{"primary_color":"red"}`,
		`{"secondary_color":"#12345"}`,
		`{"logo_url":"http://cdn.example.com/logo.png"}`,
		`{"name":"` + strings.Repeat("x", 201) + `"}`,
	}
	for _, body := range bad {
		rec := call(h.HandleBranding, http.MethodPut, oak.ID, body, admin)
		rec.AssertStatus(t, http.StatusBadRequest)
	}

	body := `{"name":"<b>Oak</b> Hollow & Glen","primary_color":"#1A2B3C","logo_url":"https://cdn.example.com/oak.png"}`
	rec := call(h.HandleBranding, http.MethodPut, oak.ID, body, admin)
	rec.AssertStatus(t, http.StatusOK)

	var got orgResponse
	rec.DecodeJSON(t, &got)
	if got.Name != "Oak Hollow & Glen" {
		t.Errorf("Name = %q", got.Name)
	}
	if got.Branding.PrimaryColor != "#1a2b3c" || got.Branding.LogoURL != "https://cdn.example.com/oak.png" {
		t.Errorf("Branding = %+v", got.Branding)
	}

	// Omitted fields are untouched; empty strings clear.
	rec = call(h.HandleBranding, http.MethodPut, oak.ID, `{"logo_url":""}`, admin)
	rec.AssertStatus(t, http.StatusOK)
	var partial orgResponse
	rec.DecodeJSON(t, &partial)
	if partial.Branding.LogoURL != "" || partial.Branding.PrimaryColor != "#1a2b3c" || partial.Name != "Oak Hollow & Glen" {
		t.Errorf("partial update: %+v", partial)
	}
}

func TestStateActions(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	oak := fx.CreateOrganization(ctx, "Oak Hollow", "oak")
	root := ptr(testutil.SuperAdminUser())

	steps := []struct {
		fn    http.HandlerFunc
		state string
	}{
		{h.HandleSuspend, "suspended"},
		{h.HandleReinstate, "active"},
		{h.HandleDeactivate, "inactive"},
		{h.HandleActivate, "active"},
	}
	for _, s := range steps {
		rec := call(s.fn, http.MethodPost, oak.ID, "", root)
		rec.AssertStatus(t, http.StatusOK)
		var got orgResponse
		rec.DecodeJSON(t, &got)
		if got.State != s.state {
			t.Errorf("state = %q, want %q", got.State, s.state)
		}
	}
}

func TestRoutes_RoleGates(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	oak := fx.CreateOrganization(ctx, "Oak Hollow", "oak")

	sm, err := auth.NewSessionManager("test-session-key-0123456789abcdef0123", "loomos-test", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	router := organizations.Routes(h, sm)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		user   *testutil.TestUser
		want   int
	}{
		{"view anonymous", http.MethodGet, "/" + oak.ID, "", nil, http.StatusUnauthorized},
		{"view member", http.MethodGet, "/" + oak.ID, "", ptr(testutil.MemberUser(oak.ID)), http.StatusOK},
		{"board cannot edit subdomain", http.MethodPut, "/" + oak.ID + "/subdomain", `{"subdomain":"oakland"}`, ptr(testutil.BoardUser(oak.ID)), http.StatusForbidden},
		{"admin edits subdomain", http.MethodPut, "/" + oak.ID + "/subdomain", `{"subdomain":"oakland"}`, ptr(testutil.AdminUser(oak.ID)), http.StatusOK},
		{"admin cannot suspend", http.MethodPost, "/" + oak.ID + "/suspend", "", ptr(testutil.AdminUser(oak.ID)), http.StatusForbidden},
		{"superadmin suspends", http.MethodPost, "/" + oak.ID + "/suspend", "", ptr(testutil.SuperAdminUser()), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewRequest(tt.method, tt.path, tt.body)
			if tt.user != nil {
				req = testutil.WithUser(req, *tt.user)
			}
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, req)
			rec.AssertStatus(t, tt.want)
		})
	}

	got, err := fx.Store().GetByID(context.Background(), oak.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.IsSuspended || got.SubdomainValue() != "oakland" {
		t.Errorf("writes through the router not applied: %+v", got)
	}
}
