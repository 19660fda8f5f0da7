package document

import (
	"context"
	"discovery-tracker-api/internal/store"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	collection       = "documents"
	xpropsCollection = "extendedprops"
)

// Repository defines the interface for document and extended-properties data
// access.
type Repository interface {
	Insert(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id string) (*Document, error)
	GetByPath(ctx context.Context, path string) (*Document, error)
	ListByIDs(ctx context.Context, ids []string) ([]Document, error)
	UpdateFields(ctx context.Context, id, expectedVersion string, update Update, username string) (string, error)
	SetClassification(ctx context.Context, id, classification string, subClassification map[string]string, label string) error
	Delete(ctx context.Context, id string) error

	GetProperties(ctx context.Context, documentID string) (*ExtendedProperties, error)
	MergeProperties(ctx context.Context, documentID string, update PropsUpdate) error
	DeleteProperties(ctx context.Context, documentID string) error
}

type RepositoryImpl struct {
	store  *store.Versioned[Document]
	xprops *mongo.Collection
}

// NewRepository creates a new document repository
func NewRepository(database *mongo.Database) Repository {
	return &RepositoryImpl{
		store:  store.NewVersioned[Document](database, collection),
		xprops: database.Collection(xpropsCollection),
	}
}

func (r *RepositoryImpl) Insert(ctx context.Context, d *Document) error {
	return r.store.Insert(ctx, *d)
}

func (r *RepositoryImpl) GetByID(ctx context.Context, id string) (*Document, error) {
	return r.store.FindOne(ctx, bson.M{"id": id})
}

func (r *RepositoryImpl) GetByPath(ctx context.Context, path string) (*Document, error) {
	return r.store.FindOne(ctx, bson.M{"path": path})
}

func (r *RepositoryImpl) ListByIDs(ctx context.Context, ids []string) ([]Document, error) {
	if len(ids) == 0 {
		return []Document{}, nil
	}
	return r.store.Find(ctx, bson.M{"id": bson.M{"$in": ids}})
}

func (r *RepositoryImpl) UpdateFields(ctx context.Context, id, expectedVersion string, update Update, username string) (string, error) {
	return r.store.UpdateIfVersionMatches(ctx, id, expectedVersion, bson.M{
		"beginning_bates":  update.BeginningBates,
		"ending_bates":     update.EndingBates,
		"document_date":    update.DocumentDate,
		"produced_date":    update.ProducedDate,
		"page_count":       update.PageCount,
		"title":            update.Title,
		"type":             update.Type,
		"classification":   update.Classification,
		"updated_username": username,
		"updated_date":     time.Now().UTC(),
	})
}

// SetClassification writes the classifier's verdict. Unversioned on purpose:
// the classification worker must not lose to a concurrent metadata edit.
func (r *RepositoryImpl) SetClassification(ctx context.Context, id, classification string, subClassification map[string]string, label string) error {
	_, err := r.store.Update(ctx, id, bson.M{
		"classification":           classification,
		"sub_classification":       subClassification,
		"sub_classification_label": label,
	})
	return err
}

func (r *RepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}

func (r *RepositoryImpl) GetProperties(ctx context.Context, documentID string) (*ExtendedProperties, error) {
	var props ExtendedProperties
	err := r.xprops.FindOne(ctx, bson.M{"id": documentID}).Decode(&props)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &props, nil
}

// MergeProperties upserts the extended properties record, setting only the
// fields present in the update so partial payloads merge instead of replace.
func (r *RepositoryImpl) MergeProperties(ctx context.Context, documentID string, update PropsUpdate) error {
	set := bson.M{"id": documentID}
	if update.Images != nil {
		set["images"] = update.Images
	}
	if update.Text != nil {
		set["text"] = *update.Text
	}
	if update.CleanText != nil {
		set["clean_text"] = *update.CleanText
	}
	for key, value := range update.Props {
		set["props."+key] = value
	}
	for key, value := range update.Tables {
		set["tables."+key] = value
	}
	if update.JobID != nil {
		set["job_id"] = *update.JobID
	}
	if update.ExtractionType != nil {
		set["extraction_type"] = *update.ExtractionType
	}

	_, err := r.xprops.UpdateOne(
		ctx,
		bson.M{"id": documentID},
		bson.M{"$set": set},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (r *RepositoryImpl) DeleteProperties(ctx context.Context, documentID string) error {
	_, err := r.xprops.DeleteOne(ctx, bson.M{"id": documentID})
	return err
}
