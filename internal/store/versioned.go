package store

import (
	"context"
	"discovery-tracker-api/internal/errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Entity is anything persisted with an application-level id and an opaque
// version token regenerated on every successful mutation.
type Entity interface {
	EntityID() string
}

// NewVersion mints a fresh opaque version token. Tokens are never reused.
func NewVersion() string {
	return uuid.NewString()
}

// Versioned wraps a Mongo collection with compare-and-swap update semantics:
// an update matches on id plus the caller's expected version and writes a new
// version in the same atomic operation, so two concurrent writers holding the
// same stale version cannot both succeed.
type Versioned[T Entity] struct {
	coll *mongo.Collection
}

func NewVersioned[T Entity](database *mongo.Database, collection string) *Versioned[T] {
	return &Versioned[T]{coll: database.Collection(collection)}
}

// Collection exposes the underlying handle for aggregation pipelines.
func (s *Versioned[T]) Collection() *mongo.Collection {
	return s.coll
}

// Get fetches an entity by its application id
func (s *Versioned[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	err := s.coll.FindOne(ctx, bson.M{"id": id}).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return nil, errors.NotFound(fmt.Sprintf("%s not found: %s", s.coll.Name(), id), err)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindOne fetches the first entity matching the filter
func (s *Versioned[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	var out T
	err := s.coll.FindOne(ctx, filter).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Find fetches all entities matching the filter
func (s *Versioned[T]) Find(ctx context.Context, filter bson.M) ([]T, error) {
	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert creates a new entity. Collisions on the unique indexes surface as
// DuplicateKey.
func (s *Versioned[T]) Insert(ctx context.Context, entity T) error {
	_, err := s.coll.InsertOne(ctx, entity)
	if mongo.IsDuplicateKeyError(err) {
		return errors.DuplicateKey(fmt.Sprintf("%s already exists: %s", s.coll.Name(), entity.EntityID()), err)
	}
	return err
}

// UpdateIfVersionMatches applies set to the entity identified by id, but only
// if the stored version still equals expectedVersion. The match-and-write is a
// single FindOneAndUpdate whose filter includes both id and version; exactly
// one of two concurrent stale writers can succeed. Returns the new version.
func (s *Versioned[T]) UpdateIfVersionMatches(ctx context.Context, id, expectedVersion string, set bson.M) (string, error) {
	newVersion := NewVersion()
	set["version"] = newVersion

	err := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"id": id, "version": expectedVersion},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Err()

	if err == mongo.ErrNoDocuments {
		// No match: disambiguate a stale version from a missing entity.
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return "", getErr
		}
		return "", errors.VersionConflict(fmt.Sprintf("%s version conflict: %s", s.coll.Name(), id), nil)
	}
	if err != nil {
		return "", err
	}
	return newVersion, nil
}

// Update applies set unconditionally (no version match) and still bumps the
// version so readers observe the mutation. Used by link/unlink style paths
// that re-read and authorize above the store.
func (s *Versioned[T]) Update(ctx context.Context, id string, set bson.M) (string, error) {
	newVersion := NewVersion()
	set["version"] = newVersion

	result, err := s.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return "", err
	}
	if result.MatchedCount == 0 {
		return "", errors.NotFound(fmt.Sprintf("%s not found: %s", s.coll.Name(), id), nil)
	}
	return newVersion, nil
}

// SoftDelete flips the named boolean field to false instead of removing the
// document. The version is bumped so the mutation is observable.
func (s *Versioned[T]) SoftDelete(ctx context.Context, id, field string) error {
	_, err := s.Update(ctx, id, bson.M{field: false})
	return err
}

// Delete physically removes the entity
func (s *Versioned[T]) Delete(ctx context.Context, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return errors.NotFound(fmt.Sprintf("%s not found: %s", s.coll.Name(), id), nil)
	}
	return nil
}

// DeleteMany removes every entity matching the filter and reports the count
func (s *Versioned[T]) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	result, err := s.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// Aggregate runs a pipeline and decodes every stage output row into out
func (s *Versioned[T]) Aggregate(ctx context.Context, pipeline any, out any) error {
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}
