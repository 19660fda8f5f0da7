package db

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureIndexes creates the indexes every collection relies on. Each document
// carries an application-level `id` key distinct from Mongo's native _id;
// cross-collection references are always by that key.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	collections := map[string][]mongo.IndexModel{
		"clients": {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{
				Keys:    bson.D{{Key: "billing_number", Value: 1}, {Key: "created_by", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_billing_per_creator"),
			},
			{Keys: bson.D{{Key: "authorized_users", Value: 1}}},
		},
		"trackers": {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "client_id", Value: 1}}},
			{Keys: bson.D{{Key: "documents", Value: 1}}},
		},
		"documents": {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "path", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"extendedprops": {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"discovery_files": {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "client_id", Value: 1}}},
		},
		"discovery_requests": {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "file_id", Value: 1}}},
		},
		"users": {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"classification_tasks": {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "queued_date", Value: 1}}},
		},
	}

	for name, indexes := range collections {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return err
		}
	}

	log.Println("Database indexes ensured")
	return nil
}
