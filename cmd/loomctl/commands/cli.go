package commands

import (
	"context"
	"io"
	"net"
	"os"

	"github.com/alecthomas/kong"
	"github.com/dalemusser/loomos/internal/app/bootstrap"
	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/app/system/tenant"
	"go.uber.org/zap"
)

// cliCtx is bound to every command's Run method.
type cliCtx struct {
	context.Context
	Logger *zap.Logger
	Out    io.Writer
	Tenant tenant.Config

	// OpenStore connects to the configured organization store. The
	// returned func releases it.
	OpenStore func(ctx context.Context) (organizationstore.Store, func(), error)

	// LookupTXT resolves DNS TXT records.
	LookupTXT func(ctx context.Context, name string) ([]string, error)
}

type cli struct {
	Debug        bool   `help:"Log to stderr at debug level."`
	BaseDomain   string `help:"Platform base domain." default:"loomos.com" env:"LOOMOS_BASE_DOMAIN"`
	PlatformName string `help:"Verification token prefix." default:"loomos" env:"LOOMOS_PLATFORM_NAME"`
	DevHosts     string `help:"Comma-separated development hosts." default:"localhost,127.0.0.1" env:"LOOMOS_DEV_HOSTS"`

	Store StoreFlags `embed:"" prefix:""`

	Validate ValidateCmd      `cmd:"" help:"Validate a subdomain or custom domain."`
	Token    TokenCmd         `cmd:"" help:"Generate a domain verification token."`
	Resolve  ResolveCmd       `cmd:"" help:"Resolve a host to an organization."`
	Verify   VerifyCmd        `cmd:"" help:"Verify an organization's custom domain over DNS."`
	Version  kong.VersionFlag `help:"Show version"`
}

// StoreFlags select and address the organization store. They mirror the
// server's LOOMOS_* configuration so both read the same environment.
type StoreFlags struct {
	Driver        string `help:"Organization store driver." enum:"mongo,postgres,bolt,memory" default:"mongo" env:"LOOMOS_STORE_DRIVER"`
	MongoURI      string `help:"MongoDB connection URI." default:"mongodb://localhost:27017" env:"LOOMOS_MONGO_URI"`
	MongoDatabase string `help:"MongoDB database name." default:"loomos" env:"LOOMOS_MONGO_DATABASE"`
	PostgresDSN   string `help:"Postgres DSN." env:"LOOMOS_POSTGRES_DSN"`
	BoltPath      string `help:"bbolt file path." default:"./data/loomos.db" env:"LOOMOS_BOLT_PATH"`
	RedisAddr     string `help:"Redis address of the lookup cache; writes invalidate it." env:"LOOMOS_REDIS_ADDR"`
	RedisPassword string `help:"Redis password." env:"LOOMOS_REDIS_PASSWORD"`
	RedisDB       int    `help:"Redis database number." default:"0" env:"LOOMOS_REDIS_DB"`
}

// appConfig maps the flags onto the server's configuration.
func (c *cli) appConfig() bootstrap.AppConfig {
	return bootstrap.AppConfig{
		StoreDriver:   c.Store.Driver,
		MongoURI:      c.Store.MongoURI,
		MongoDatabase: c.Store.MongoDatabase,
		PostgresDSN:   c.Store.PostgresDSN,
		BoltPath:      c.Store.BoltPath,
		RedisAddr:     c.Store.RedisAddr,
		RedisPassword: c.Store.RedisPassword,
		RedisDB:       c.Store.RedisDB,
		BaseDomain:    c.BaseDomain,
		PlatformName:  c.PlatformName,
		DevHosts:      bootstrap.SplitList(c.DevHosts),
	}
}

func Execute(version string) {
	var cli cli
	ctx := kong.Parse(&cli,
		kong.UsageOnError(),
		kong.Name("loomctl"),
		kong.Description("loomctl manages loomos tenant addressing"),
		kong.Vars{"version": version},
	)

	logger := zap.NewNop()
	if cli.Debug {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
		}
	}
	defer func() { _ = logger.Sync() }()

	appCfg := cli.appConfig()
	cctx := &cliCtx{
		Context: context.Background(),
		Logger:  logger,
		Out:     os.Stdout,
		Tenant:  appCfg.TenantConfig(),
		OpenStore: func(ctx context.Context) (organizationstore.Store, func(), error) {
			deps, err := bootstrap.ConnectDB(ctx, nil, appCfg, logger)
			if err != nil {
				return nil, nil, err
			}
			return deps.Orgs, func() { _ = bootstrap.Shutdown(context.Background(), nil, appCfg, deps, logger) }, nil
		},
		LookupTXT: net.DefaultResolver.LookupTXT,
	}

	err := ctx.Run(cctx)
	ctx.FatalIfErrorf(err)
}
