// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/loomos/internal/app/system/tenant"
)

// Store drivers accepted by the store_driver key.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
	DriverMemory   = "memory"
)

// AppConfig holds service-specific configuration for loomos.
//
// These values come from environment variables (LOOMOS_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, logging and CORS; everything tenant-specific lives here.
type AppConfig struct {
	// Organization store
	StoreDriver   string // mongo, postgres, bolt or memory
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB
	PostgresDSN   string // lib/pq connection string
	BoltPath      string // bbolt file for single-node deployments

	// Lookup cache (disabled when RedisAddr is empty)
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	TenantCacheTTL time.Duration

	// Tenant resolution
	BaseDomain   string   // platform application domain, e.g. loomos.com
	PlatformName string   // verification token prefix
	DevHosts     []string // hosts with no subdomain concept
	OrgParam     string   // superadmin override query parameter
	TenantScheme string   // scheme for tenant URLs

	// Requests per client IP per minute on /api/validate (0 disables)
	ValidateRateLimit int
	// Proxies (IPs or CIDRs) whose forwarding headers identify the client
	TrustedProxies []string

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: loomos-session)
	SessionDomain string        // Cookie domain (blank derives .{base_domain})
	SessionMaxAge time.Duration // Cookie lifetime

	// Request timeouts
	TimeoutShort time.Duration
	TimeoutLong  time.Duration
}

// TenantConfig projects the tenant settings onto tenant.Config.
func (c AppConfig) TenantConfig() tenant.Config {
	return tenant.Config{
		BaseDomain:   c.BaseDomain,
		PlatformName: c.PlatformName,
		DevHosts:     c.DevHosts,
		OrgParam:     c.OrgParam,
		Scheme:       c.TenantScheme,
	}.Normalize()
}
