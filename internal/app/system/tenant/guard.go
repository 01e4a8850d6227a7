package tenant

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	orgstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/domain/models"
)

// ErrUnauthorized is returned when a session may not operate within an
// organization. It is a hard failure: callers propagate it, and the HTTP
// boundary maps it to 401 (no session) or 403 (wrong tenant).
var ErrUnauthorized = errors.New("tenant: unauthorized")

// EnsureOrganizationAccess returns nil when sess may operate within
// organizationID: the session is a superadmin, or its home organization is
// organizationID.
func EnsureOrganizationAccess(sess *Session, organizationID string) error {
	if sess == nil {
		return fmt.Errorf("%w: not signed in", ErrUnauthorized)
	}
	if sess.IsSuperAdmin() {
		return nil
	}
	if organizationID == "" || sess.OrganizationID != organizationID {
		return fmt.Errorf("%w: organization %q is outside the session's organization", ErrUnauthorized, organizationID)
	}
	return nil
}

// Guard performs organization reads that enforce tenant isolation.
type Guard struct {
	store Store
}

// NewGuard returns a Guard reading from store.
func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// GetOrganization returns the organization after checking that sess may
// access it. The access check happens before the read, so a denied caller
// learns nothing about whether the organization exists.
func (g *Guard) GetOrganization(ctx context.Context, sess *Session, organizationID string) (models.Organization, error) {
	if err := EnsureOrganizationAccess(sess, organizationID); err != nil {
		return models.Organization{}, err
	}
	return g.store.GetByID(ctx, organizationID)
}

// StatusFor maps an error from the guard or the store to an HTTP status.
func StatusFor(sess *Session, err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized) && sess == nil:
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, orgstore.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
