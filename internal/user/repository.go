package user

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const collection = "users"

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
	Deactivate(ctx context.Context, username string) error
}

type RepositoryImpl struct {
	coll *mongo.Collection
}

// NewRepository creates a new user repository
func NewRepository(database *mongo.Database) UserRepository {
	return &RepositoryImpl{coll: database.Collection(collection)}
}

func (r *RepositoryImpl) Create(ctx context.Context, u *User) error {
	_, err := r.coll.InsertOne(ctx, u)
	return err
}

func (r *RepositoryImpl) FindByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *RepositoryImpl) Deactivate(ctx context.Context, username string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"username": username}, bson.M{"$set": bson.M{"is_active": false}})
	return err
}
