// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"database/sql"

	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/go-redis/redis/v8"
	"go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backends opened for the configured store driver. Only
// the fields for that driver are set; Orgs is always set.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Postgres      *sql.DB
	Bolt          *bbolt.DB
	Redis         *redis.Client

	// Orgs is the organization store every component reads through. When
	// Redis is configured it is a CachedStore over the driver's store.
	Orgs organizationstore.Store
}
