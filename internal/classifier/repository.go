package classifier

import (
	"context"
	"discovery-tracker-api/internal/store"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const collection = "classification_tasks"

// Repository defines the interface for classification task records
type Repository interface {
	Add(ctx context.Context, documentID string) (*Task, error)
	Get(ctx context.Context, taskID string) (*Task, error)
	SetStatus(ctx context.Context, taskID string, status Status, message string) error
	SetResult(ctx context.Context, taskID string, result Result) error
}

type RepositoryImpl struct {
	coll *mongo.Collection
}

// NewRepository creates a new classification task repository
func NewRepository(database *mongo.Database) Repository {
	return &RepositoryImpl{coll: database.Collection(collection)}
}

func (r *RepositoryImpl) Add(ctx context.Context, documentID string) (*Task, error) {
	task := &Task{
		ID:         store.NewVersion(),
		DocumentID: documentID,
		Status:     StatusQueued,
		QueuedDate: time.Now().UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	err := r.coll.FindOne(ctx, bson.M{"id": taskID}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *RepositoryImpl) SetStatus(ctx context.Context, taskID string, status Status, message string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": taskID}, bson.M{"$set": bson.M{
		"status":  status,
		"message": message,
	}})
	return err
}

func (r *RepositoryImpl) SetResult(ctx context.Context, taskID string, result Result) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": taskID}, bson.M{"$set": bson.M{
		"status":         StatusCompleted,
		"classification": result.Classification,
		"sub_fields":     result.SubFields,
		"label":          result.Label,
		"message":        "",
	}})
	return err
}
