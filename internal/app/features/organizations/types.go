// internal/app/features/organizations/types.go
package organizations

import (
	"time"

	"github.com/dalemusser/loomos/internal/domain/models"
)

// organizationView is the JSON shape of an organization on the settings API.
type organizationView struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Subdomain    string          `json:"subdomain,omitempty"`
	SubdomainURL string          `json:"subdomain_url,omitempty"`
	CustomDomain string          `json:"custom_domain,omitempty"`
	Domain       *domainStatus   `json:"domain_verification,omitempty"`
	Branding     models.Branding `json:"branding"`
	Features     map[string]bool `json:"features,omitempty"`
	Plan         string          `json:"plan"`
	State        string          `json:"state"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// domainStatus tells a tenant admin what to publish for a custom domain and
// whether it has been verified.
type domainStatus struct {
	RecordType  string     `json:"record_type"`
	RecordName  string     `json:"record_name"`
	RecordValue string     `json:"record_value"`
	RequestedAt time.Time  `json:"requested_at"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	Verified    bool       `json:"verified"`
}

// subdomainInput is the body of PUT /{id}/subdomain.
type subdomainInput struct {
	Subdomain string `json:"subdomain"`
}

// customDomainInput is the body of PUT /{id}/custom-domain.
type customDomainInput struct {
	Domain string `json:"domain"`
}

// brandingInput is the body of PUT /{id}/branding. Nil fields are left
// unchanged; empty strings clear.
type brandingInput struct {
	Name           *string `json:"name"`
	LogoURL        *string `json:"logo_url"`
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
}

// fieldError reports a rejected field to the client.
type fieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}
