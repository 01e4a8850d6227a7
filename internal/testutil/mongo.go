package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoURIEnv names the environment variable pointing at a disposable
// MongoDB for integration tests.
const MongoURIEnv = "LOOMOS_TEST_MONGO_URI"

// SetupTestDB connects to the MongoDB at $LOOMOS_TEST_MONGO_URI and returns
// a fresh database that is dropped when the test ends. The test is skipped
// when the variable is unset.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv(MongoURIEnv)
	if uri == "" {
		t.Skipf("%s not set; skipping mongo integration test", MongoURIEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("ping mongo: %v", err)
	}

	db := client.Database(fmt.Sprintf("loomos_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}
