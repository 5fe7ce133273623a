// Package testutil dials a real local test document database for the
// store's own test suite, skipping cleanly when one isn't reachable,
// instead of mocking the Mongo driver.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TestingTB covers both *testing.T and *testing.B, matching the subset of
// the standard interface these helpers actually call.
type TestingTB interface {
	Helper()
	Skip(args ...interface{})
	Skipf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	Logf(format string, args ...interface{})
}

// DefaultTestMongoURI returns the connection string for the local test
// document database. Defaults to the standard local port; CI/CD
// environments should set TEST_MONGO_URI explicitly.
func DefaultTestMongoURI() string {
	return getEnvOrDefault("TEST_MONGO_URI", "mongodb://localhost:27017")
}

// SkipIfNoTestDB skips the test if the test document database is not
// reachable. Set TEST_REQUIRE_DB (or TEST_REQUIRE_INFRA) to turn an
// unreachable database into a hard failure instead, for CI jobs that must
// not silently skip coverage.
func SkipIfNoTestDB(t TestingTB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(DefaultTestMongoURI()))
	if err != nil {
		failOrSkip(t, "test document database not available:", err)
		return
	}
	defer func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer dcancel()
		if derr := client.Disconnect(dctx); derr != nil {
			t.Logf("warning: failed to disconnect test Mongo client: %v", derr)
		}
	}()

	if err := client.Ping(ctx, nil); err != nil {
		failOrSkip(t, "test document database not available:", err)
	}
}

func failOrSkip(t TestingTB, msg string, err error) {
	if requireDB() {
		t.Fatal(msg, err)
	}
	t.Skip(msg, err)
}

// SetupTestMongo dials the local test document database and returns a
// connected client, skipping the test first if one isn't reachable.
func SetupTestMongo(t TestingTB) *mongo.Client {
	t.Helper()
	SkipIfNoTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(DefaultTestMongoURI()))
	if err != nil {
		t.Fatal("failed to connect to test document database:", err)
	}
	return client
}

// WithAutoDB dials the local test document database, hands fn a client and
// a throwaway database name unique to this test, and drops that database
// (and disconnects the client) on cleanup. A fresh database per test is
// cheap enough here that, unlike the relational teacher's ephemeral-schema
// fallback, there's no shared-database mode to choose between.
func WithAutoDB(t TestingTB, fn func(client *mongo.Client, dbName string)) {
	t.Helper()
	client := SetupTestMongo(t)
	dbName := uniqueDBName(t)

	tc, ok := any(t).(interface{ Cleanup(func()) })
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Database(dbName).Drop(ctx); err != nil {
			t.Logf("warning: failed to drop test database %s: %v", dbName, err)
		}
		if err := client.Disconnect(ctx); err != nil {
			t.Logf("warning: failed to disconnect test Mongo client: %v", err)
		}
	}
	if ok {
		tc.Cleanup(cleanup)
	} else {
		defer cleanup()
	}

	fn(client, dbName)
}

func uniqueDBName(t TestingTB) string {
	t.Helper()
	return fmt.Sprintf("jobstore_test_%d", time.Now().UnixNano())
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

func requireDB() bool { return envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") }
