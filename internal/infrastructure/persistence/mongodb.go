package persistence

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoConnectTimeout = 10 * time.Second

// MongoOptions describes how to reach the cache database
type MongoOptions struct {
	URI      string
	Database string
	Username string
	Password string
}

// NewMongoDatabase connects, pings the primary and returns the named database.
// The returned close func disconnects the underlying client.
func NewMongoDatabase(ctx context.Context, opts MongoOptions) (*mongo.Database, func(context.Context) error, error) {
	clientOptions := options.Client().
		ApplyURI(opts.URI).
		SetAppName("portcall-service").
		SetServerSelectionTimeout(mongoConnectTimeout)

	if opts.Username != "" && opts.Password != "" {
		clientOptions.SetAuth(options.Credential{
			Username: opts.Username,
			Password: opts.Password,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client.Database(opts.Database), client.Disconnect, nil
}
