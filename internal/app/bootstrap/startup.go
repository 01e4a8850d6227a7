// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/loomos/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after the store is connected and
// its schema ensured, before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short: appCfg.TimeoutShort,
		Long:  appCfg.TimeoutLong,
	})
	cur := timeouts.Current()
	logger.Info("timeouts configured",
		zap.Duration("ping", cur.Ping),
		zap.Duration("short", cur.Short),
		zap.Duration("long", cur.Long))

	tc := appCfg.TenantConfig()
	logger.Info("tenant resolution configured",
		zap.String("base_domain", tc.BaseDomain),
		zap.Strings("dev_hosts", tc.DevHosts),
		zap.String("org_param", tc.OrgParam))
	return nil
}
