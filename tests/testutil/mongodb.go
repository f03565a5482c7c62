// Package testutil provides shared container helpers for integration
// tests. Containers are started once per test binary and reused.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	mongoCtxTimeout              = 5 * time.Second
	mongoPingTimeout             = 2 * time.Second
	mongoContainerStartupTimeout = 60 * time.Second
	mongoPingRetries             = 5
	mongoPingRetryDelay          = 500 * time.Millisecond
)

var (
	sharedMongo     *sharedMongoContainer
	sharedMongoOnce sync.Once
	sharedMongoErr  error
)

type sharedMongoContainer struct {
	container testcontainers.Container
	uri       string
}

func getSharedMongoContainer(ctx context.Context) (*sharedMongoContainer, error) {
	sharedMongoOnce.Do(func() {
		req := testcontainers.ContainerRequest{
			Image:        "mongo:8",
			Name:         "atiendo-test-mongodb", // Required for Reuse mode
			ExposedPorts: []string{"27017/tcp"},
			Env: map[string]string{
				"MONGO_INITDB_ROOT_USERNAME": "admin",
				"MONGO_INITDB_ROOT_PASSWORD": "admin123",
			},
			WaitingFor: wait.ForLog("Waiting for connections").
				WithStartupTimeout(mongoContainerStartupTimeout),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
			Reuse:            true,
		})
		if err != nil {
			sharedMongoErr = fmt.Errorf("failed to start MongoDB container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			sharedMongoErr = fmt.Errorf("failed to get container host: %w", err)
			return
		}
		port, err := container.MappedPort(ctx, "27017")
		if err != nil {
			sharedMongoErr = fmt.Errorf("failed to get container port: %w", err)
			return
		}

		sharedMongo = &sharedMongoContainer{
			container: container,
			uri:       fmt.Sprintf("mongodb://admin:admin123@%s", net.JoinHostPort(host, port.Port())),
		}
	})

	return sharedMongo, sharedMongoErr
}

// SetupTestMongoDB returns an isolated database in the shared MongoDB
// container. The database is dropped when the test finishes.
func SetupTestMongoDB(t *testing.T) *mongo.Database {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), mongoContainerStartupTimeout)
	defer cancel()

	container, err := getSharedMongoContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to get shared MongoDB container: %v", err)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(container.uri))
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	for i := range mongoPingRetries {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), mongoPingTimeout)
		err = client.Ping(pingCtx, nil)
		pingCancel()
		if err == nil {
			break
		}
		if i < mongoPingRetries-1 {
			time.Sleep(mongoPingRetryDelay)
		}
	}
	if err != nil {
		t.Fatalf("Failed to ping MongoDB after %d retries: %v", mongoPingRetries, err)
	}

	db := client.Database(generateTestDBName(t.Name()))

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), mongoCtxTimeout)
		defer cleanupCancel()
		_ = db.Drop(cleanupCtx)
		_ = client.Disconnect(cleanupCtx)
	})

	return db
}

// generateTestDBName builds a valid, unique database name from a test
// name. Mongo database names are limited to 63 bytes and a restricted
// character set, so long or nested test names are hashed.
func generateTestDBName(testName string) string {
	sanitized := strings.NewReplacer("/", "_", " ", "_", ".", "_").Replace(testName)
	name := "atiendo_test_" + sanitized
	if len(name) <= 63 {
		return name
	}
	sum := sha256.Sum256([]byte(testName))
	return "atiendo_test_" + hex.EncodeToString(sum[:8])
}
