package mongodb

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client giữ mongo.Client và database đã chọn
type Client struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Connect mở kết nối tới MongoDB và ping để xác nhận
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Client, error) {
	log.Println("[MONGO] Connecting to MongoDB...")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Printf("[MONGO] Connected (database=%s)", database)
	return &Client{Client: client, Database: client.Database(database)}, nil
}

// HealthCheck ping primary, dùng bởi /health
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return nil
	}
	log.Println("[MONGO] Disconnecting...")
	return c.Client.Disconnect(ctx)
}
