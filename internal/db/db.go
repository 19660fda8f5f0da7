package db

import (
	"context"
	"discovery-tracker-api/internal/config"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Connect opens the Mongo client and returns the application database handle.
// The handle is passed into each repository constructor; connection lifecycle
// is owned by the caller (cmd/server).
func Connect(ctx context.Context) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(config.AppConfig.DBURL))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Printf("Connected to database at %s", config.AppConfig.DBURL)
	return client, client.Database(config.AppConfig.DBName), nil
}

// Disconnect closes the Mongo client
func Disconnect(ctx context.Context, client *mongo.Client) {
	if err := client.Disconnect(ctx); err != nil {
		log.Printf("failed to close db %v", err)
	}
}
