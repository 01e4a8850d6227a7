// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/app/system/ratelimit"
	"github.com/dalemusser/loomos/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for loomos.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: base_domain, store_driver, etc.
//   - Environment variables: LOOMOS_BASE_DOMAIN, LOOMOS_STORE_DRIVER, etc.
//   - Command-line flags: --base_domain, --store_driver, etc.
var appConfigKeys = []config.AppKey{
	// Organization store
	{Name: "store_driver", Default: DriverMongo, Desc: "Organization store: 'mongo', 'postgres', 'bolt' or 'memory'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "loomos", Desc: "MongoDB database name"},
	{Name: "postgres_dsn", Default: "", Desc: "Postgres DSN (store_driver=postgres)"},
	{Name: "bolt_path", Default: "./data/loomos.db", Desc: "bbolt file path (store_driver=bolt)"},

	// Lookup cache
	{Name: "redis_addr", Default: "", Desc: "Redis address for the organization lookup cache (blank disables)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "tenant_cache_ttl", Default: "5m", Desc: "Organization cache entry lifetime (e.g., 5m, 30s)"},

	// Tenant resolution
	{Name: "base_domain", Default: "loomos.com", Desc: "Platform application domain; tenants live at {subdomain}.{base_domain}"},
	{Name: "platform_name", Default: "loomos", Desc: "Prefix for domain verification tokens"},
	{Name: "dev_hosts", Default: "localhost,127.0.0.1", Desc: "Comma-separated hosts treated as local development"},
	{Name: "org_param", Default: "orgId", Desc: "Query parameter for the superadmin organization override"},
	{Name: "tenant_scheme", Default: "https", Desc: "Scheme used when building tenant URLs"},
	{Name: "validate_rate_limit", Default: 60, Desc: "Availability checks per client IP per minute (0 disables)"},
	{Name: "trusted_proxies", Default: "", Desc: "Comma-separated proxy IPs/CIDRs whose X-Forwarded-For is honored"},

	// Sessions
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "loomos-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank derives .{base_domain})"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for tenant resolution and single reads"},
	{Name: "timeout_long", Default: "15s", Desc: "Timeout for organization writes"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges with precedence:
// flags > env (LOOMOS_*) > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "LOOMOS", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreDriver:   strings.ToLower(strings.TrimSpace(appValues.String("store_driver"))),
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		PostgresDSN:   appValues.String("postgres_dsn"),
		BoltPath:      appValues.String("bolt_path"),

		RedisAddr:      appValues.String("redis_addr"),
		RedisPassword:  appValues.String("redis_password"),
		RedisDB:        appValues.Int("redis_db"),
		TenantCacheTTL: appValues.Duration("tenant_cache_ttl", organizationstore.DefaultCacheTTL),

		BaseDomain:   appValues.String("base_domain"),
		PlatformName: appValues.String("platform_name"),
		DevHosts:     SplitList(appValues.String("dev_hosts")),
		OrgParam:     appValues.String("org_param"),
		TenantScheme: appValues.String("tenant_scheme"),

		ValidateRateLimit: appValues.Int("validate_rate_limit"),
		TrustedProxies:    SplitList(appValues.String("trusted_proxies")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		TimeoutShort: appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutLong:  appValues.Duration("timeout_long", timeouts.DefaultLong),
	}

	// Cookies must span every tenant subdomain for the session fallback to
	// work, so the domain defaults to ".{base_domain}".
	if appCfg.SessionDomain == "" && appCfg.BaseDomain != "" {
		appCfg.SessionDomain = "." + strings.Trim(strings.ToLower(appCfg.BaseDomain), ".")
		logger.Info("auto-derived session domain",
			zap.String("session_domain", appCfg.SessionDomain))
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation. It catches
// configuration errors before any backend is contacted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := appCfg.TenantConfig().Validate(); err != nil {
		logger.Error("invalid tenant configuration", zap.Error(err))
		return err
	}

	switch appCfg.StoreDriver {
	case DriverMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if appCfg.MongoDatabase == "" {
			return fmt.Errorf("store_driver=mongo requires mongo_database")
		}
	case DriverPostgres:
		if appCfg.PostgresDSN == "" {
			return fmt.Errorf("store_driver=postgres requires postgres_dsn")
		}
	case DriverBolt:
		if appCfg.BoltPath == "" {
			return fmt.Errorf("store_driver=bolt requires bolt_path")
		}
	case DriverMemory:
		logger.Warn("using the in-memory organization store; data is lost on restart")
	default:
		return fmt.Errorf("unknown store_driver %q (want mongo, postgres, bolt or memory)", appCfg.StoreDriver)
	}

	if _, err := ratelimit.ParseTrustedProxies(appCfg.TrustedProxies); err != nil {
		return err
	}

	if appCfg.SessionKey == "" {
		return fmt.Errorf("session_key is required")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		return fmt.Errorf("session_key must be changed from the development default in prod")
	}
	return nil
}

// SplitList splits a comma-separated config value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
