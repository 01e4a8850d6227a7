// internal/domain/models/organization.go
package models

import (
	"time"
)

// Plan tiers an organization can be billed on.
const (
	PlanFree       = "free"
	PlanCommunity  = "community"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Organization is the tenant unit: one HOA or community, isolated from all
// others. An organization may be addressed by a platform subdomain
// (e.g. montrecott.loomos.com), by a custom domain it has proven ownership
// of, by both, or by neither.
//
// Organizations are never deleted by the tenant layer. They are taken out of
// service by clearing IsActive or setting IsSuspended.
type Organization struct {
	ID     string `bson:"_id" json:"id"`
	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"-"` // folded name; stored, not serialized
	Slug   string `bson:"slug" json:"slug"`

	// Addressing. Both are unique across organizations when set; nil means
	// the organization does not use that form of addressing.
	Subdomain    *string `bson:"subdomain,omitempty" json:"subdomain,omitempty"`
	CustomDomain *string `bson:"custom_domain,omitempty" json:"custom_domain,omitempty"`

	// Verification state for CustomDomain.
	DomainVerification *DomainVerification `bson:"domain_verification,omitempty" json:"domain_verification,omitempty"`

	Branding Branding        `bson:"branding" json:"branding"`
	Features map[string]bool `bson:"features,omitempty" json:"features,omitempty"`
	Plan     string          `bson:"plan" json:"plan"`

	IsActive    bool `bson:"is_active" json:"is_active"`
	IsSuspended bool `bson:"is_suspended" json:"is_suspended"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Branding holds the visual identity shown on tenant pages.
type Branding struct {
	LogoURL        string `bson:"logo_url,omitempty" json:"logo_url,omitempty"`
	PrimaryColor   string `bson:"primary_color,omitempty" json:"primary_color,omitempty"`
	SecondaryColor string `bson:"secondary_color,omitempty" json:"secondary_color,omitempty"`
}

// DomainVerification records the DNS TXT proof a tenant must publish before
// its custom domain is trusted.
type DomainVerification struct {
	Token       string     `bson:"token" json:"token"`
	RequestedAt time.Time  `bson:"requested_at" json:"requested_at"`
	VerifiedAt  *time.Time `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
}

// Servable reports whether the organization may be served to anonymous
// hostname-based requests.
func (o Organization) Servable() bool {
	return o.IsActive && !o.IsSuspended
}

// HasSubdomain reports whether a platform subdomain is assigned.
func (o Organization) HasSubdomain() bool {
	return o.Subdomain != nil && *o.Subdomain != ""
}

// HasCustomDomain reports whether a custom domain is configured.
func (o Organization) HasCustomDomain() bool {
	return o.CustomDomain != nil && *o.CustomDomain != ""
}

// SubdomainValue returns the subdomain or "" when unset.
func (o Organization) SubdomainValue() string {
	if o.Subdomain == nil {
		return ""
	}
	return *o.Subdomain
}

// CustomDomainValue returns the custom domain or "" when unset.
func (o Organization) CustomDomainValue() string {
	if o.CustomDomain == nil {
		return ""
	}
	return *o.CustomDomain
}

// DomainVerified reports whether the custom domain has passed DNS verification.
func (o Organization) DomainVerified() bool {
	return o.HasCustomDomain() && o.DomainVerification != nil && o.DomainVerification.VerifiedAt != nil
}

// HasFeature reports whether the named feature flag is enabled.
func (o Organization) HasFeature(name string) bool {
	return o.Features[name]
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
