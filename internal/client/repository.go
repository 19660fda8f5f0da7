package client

import (
	"context"
	"discovery-tracker-api/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const collection = "clients"

// Repository defines the interface for client data access
type Repository interface {
	Insert(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id string) (*Client, error)
	GetByBillingNumber(ctx context.Context, billingNumber, createdBy string) (*Client, error)
	ListCreatedBy(ctx context.Context, username string) ([]Client, error)
	ListForUser(ctx context.Context, username string) ([]Client, error)
	UpdateFields(ctx context.Context, id, expectedVersion string, update Update) (string, error)
	AddAuthorizedUser(ctx context.Context, id, username string) (bool, error)
	RemoveAuthorizedUser(ctx context.Context, id, username string) (bool, error)
	BumpVersion(ctx context.Context, id string) (string, error)
	SoftDelete(ctx context.Context, id string) error
}

type RepositoryImpl struct {
	store *store.Versioned[Client]
}

// NewRepository creates a new client repository
func NewRepository(database *mongo.Database) Repository {
	return &RepositoryImpl{store: store.NewVersioned[Client](database, collection)}
}

func (r *RepositoryImpl) Insert(ctx context.Context, c *Client) error {
	return r.store.Insert(ctx, *c)
}

func (r *RepositoryImpl) GetByID(ctx context.Context, id string) (*Client, error) {
	return r.store.FindOne(ctx, bson.M{"id": id})
}

func (r *RepositoryImpl) GetByBillingNumber(ctx context.Context, billingNumber, createdBy string) (*Client, error) {
	return r.store.FindOne(ctx, bson.M{"billing_number": billingNumber, "created_by": createdBy})
}

func (r *RepositoryImpl) ListCreatedBy(ctx context.Context, username string) ([]Client, error) {
	return r.store.Find(ctx, bson.M{"created_by": username, "enabled": true})
}

// ListForUser returns every enabled client whose authorized_users set contains
// the username, which covers owned clients because the creator is always a
// persisted member.
func (r *RepositoryImpl) ListForUser(ctx context.Context, username string) ([]Client, error) {
	return r.store.Find(ctx, bson.M{"authorized_users": username, "enabled": true})
}

func (r *RepositoryImpl) UpdateFields(ctx context.Context, id, expectedVersion string, update Update) (string, error) {
	return r.store.UpdateIfVersionMatches(ctx, id, expectedVersion, updateSet(update))
}

// updateSet builds the $set document for an update. The enabled flag is only
// written when the caller supplied it; otherwise the stored value survives.
func updateSet(update Update) bson.M {
	set := bson.M{
		"name":           update.Name,
		"billing_number": update.BillingNumber,
		"court":          update.Court,
		"cause_number":   update.CauseNumber,
		"county":         update.County,
		"us_state":       update.USState,
	}
	if update.Enabled != nil {
		set["enabled"] = *update.Enabled
	}
	return set
}

// AddAuthorizedUser adds username to the membership set without touching the
// version. Reports whether the set actually changed.
func (r *RepositoryImpl) AddAuthorizedUser(ctx context.Context, id, username string) (bool, error) {
	result, err := r.store.Collection().UpdateOne(
		ctx,
		bson.M{"id": id},
		bson.M{"$addToSet": bson.M{"authorized_users": username}},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// RemoveAuthorizedUser removes username from the membership set without
// touching the version. Reports whether the set actually changed.
func (r *RepositoryImpl) RemoveAuthorizedUser(ctx context.Context, id, username string) (bool, error) {
	result, err := r.store.Collection().UpdateOne(
		ctx,
		bson.M{"id": id},
		bson.M{"$pull": bson.M{"authorized_users": username}},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// BumpVersion regenerates the version token with no other field changes.
// Second phase of the authorized-user update.
func (r *RepositoryImpl) BumpVersion(ctx context.Context, id string) (string, error) {
	return r.store.Update(ctx, id, bson.M{})
}

func (r *RepositoryImpl) SoftDelete(ctx context.Context, id string) error {
	return r.store.SoftDelete(ctx, id, "enabled")
}
