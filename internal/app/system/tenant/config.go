// Package tenant resolves the organization (tenant) a request belongs to and
// guards access across tenant boundaries.
//
// Resolution order for a request:
//   - an explicit organization id parameter, honored only for superadmins
//   - the Host header: a subdomain of the base domain, then a custom domain
//   - the signed-in user's home organization
//
// Hostname-based resolution is fail-closed: inactive or suspended
// organizations are never returned for it. The other two paths return the
// organization regardless of its flags so members and operators can reach a
// suspension notice or administer the tenant.
package tenant

import (
	"errors"
	"net/url"
	"strings"
)

// Defaults applied by Config.Normalize.
const (
	DefaultPlatformName = "loomos"
	DefaultOrgParam     = "orgId"
)

// DefaultDevHosts are hostnames with no subdomain concept (local development).
var DefaultDevHosts = []string{"localhost", "127.0.0.1"}

// Config is the tenant layer's configuration. It is injected into every
// component at construction; nothing here reads the environment.
type Config struct {
	// BaseDomain is the platform's application domain, e.g. "loomos.com".
	BaseDomain string
	// PlatformName prefixes verification tokens ("loomos-verify-…").
	PlatformName string
	// DevHosts are bare hostnames treated as local development.
	DevHosts []string
	// OrgParam is the query parameter carrying a superadmin override.
	OrgParam string
	// Scheme used when building tenant URLs ("https" unless set).
	Scheme string
}

// Normalize lowercases and trims the configuration and fills defaults.
func (c Config) Normalize() Config {
	c.BaseDomain = strings.Trim(strings.ToLower(strings.TrimSpace(c.BaseDomain)), ".")
	c.PlatformName = strings.ToLower(strings.TrimSpace(c.PlatformName))
	if c.PlatformName == "" {
		c.PlatformName = DefaultPlatformName
	}
	if len(c.DevHosts) == 0 {
		c.DevHosts = DefaultDevHosts
	} else {
		hosts := make([]string, 0, len(c.DevHosts))
		for _, h := range c.DevHosts {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				hosts = append(hosts, h)
			}
		}
		c.DevHosts = hosts
	}
	if c.OrgParam == "" {
		c.OrgParam = DefaultOrgParam
	}
	if c.Scheme == "" {
		c.Scheme = "https"
	}
	return c
}

// Validate reports configuration problems that would make resolution
// meaningless.
func (c Config) Validate() error {
	c = c.Normalize()
	if c.BaseDomain == "" {
		return errors.New("tenant: base domain is required")
	}
	if !fqdnRe.MatchString(c.BaseDomain) {
		return errors.New("tenant: base domain " + c.BaseDomain + " is not a valid domain name")
	}
	return nil
}

// TenantURL builds an absolute URL on a tenant's subdomain.
func (c Config) TenantURL(subdomain, path string) string {
	c = c.Normalize()
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	u := url.URL{Scheme: c.Scheme, Host: subdomain + "." + c.BaseDomain, Path: path}
	return u.String()
}
