package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"market-api/internal/infrastructure/mongodb"
)

// NewMongo chạy MongoDB container và trả về database rỗng
// Bỏ qua test nếu TEST_INTEGRATION chưa được set
func NewMongo(t *testing.T) *mongo.Database {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "docker.io/mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongo container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	client, err := mongodb.Connect(ctx, uri, "market_test", 30*time.Second)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close(context.Background()) })

	return client.Database
}
