package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/loomos/internal/app/system/auth"
	"github.com/dalemusser/loomos/internal/domain/models"
	"github.com/google/uuid"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID             string
	Name           string
	Email          string
	Role           models.Role
	OrganizationID string
}

// SuperAdminUser returns a platform operator with no home organization.
func SuperAdminUser() TestUser {
	return TestUser{
		ID:    uuid.NewString(),
		Name:  "Test Operator",
		Email: "ops@test.com",
		Role:  models.RoleSuperAdmin,
	}
}

// AdminUser returns an organization admin of orgID.
func AdminUser(orgID string) TestUser {
	return TestUser{
		ID:             uuid.NewString(),
		Name:           "Test Admin",
		Email:          "admin@test.com",
		Role:           models.RoleAdmin,
		OrganizationID: orgID,
	}
}

// BoardUser returns a board member of orgID.
func BoardUser(orgID string) TestUser {
	return TestUser{
		ID:             uuid.NewString(),
		Name:           "Test Board",
		Email:          "board@test.com",
		Role:           models.RoleBoard,
		OrganizationID: orgID,
	}
}

// MemberUser returns a resident of orgID.
func MemberUser(orgID string) TestUser {
	return TestUser{
		ID:             uuid.NewString(),
		Name:           "Test Member",
		Email:          "member@test.com",
		Role:           models.RoleMember,
		OrganizationID: orgID,
	}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:             user.ID,
		Name:           user.Name,
		LoginID:        user.Email,
		Role:           string(user.Role),
		OrganizationID: user.OrganizationID,
	})
}

// NewRequest creates an HTTP request for testing. A non-empty body is sent
// as JSON.
func NewRequest(method, target, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target, body string, user TestUser) *http.Request {
	return WithUser(NewRequest(method, target, body), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t testing.TB, expected int) {
	t.Helper()
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t testing.TB, expectedLocation string) {
	t.Helper()
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	if loc := r.Header().Get("Location"); loc != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", loc, expectedLocation)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t testing.TB, expected string) {
	t.Helper()
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q: %s", expected, r.Body.String())
	}
}

// DecodeJSON unmarshals the response body into v.
func (r *ResponseRecorder) DecodeJSON(t testing.TB, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response body: %v (body: %s)", err, r.Body.String())
	}
}
