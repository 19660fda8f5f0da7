package tracker

import (
	"context"
	"discovery-tracker-api/internal/store"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const collection = "trackers"

// ComplianceDoc is the projection the compliance matrix is built from
type ComplianceDoc struct {
	ID                string            `bson:"id"`
	SubClassification map[string]string `bson:"sub_classification"`
	DocumentDate      string            `bson:"document_date"`
	ProducedDate      string            `bson:"produced_date"`
	BeginningBates    string            `bson:"beginning_bates"`
	Path              string            `bson:"path"`
}

// Repository defines the interface for tracker data access, including the
// read-only projections over the documents/extendedprops collections.
type Repository interface {
	Insert(ctx context.Context, t *Tracker) error
	GetByID(ctx context.Context, id string) (*Tracker, error)
	ListByClientID(ctx context.Context, clientID string) ([]Tracker, error)
	ListByClientIDs(ctx context.Context, clientIDs []string) ([]Tracker, error)
	ListLinkedToDocument(ctx context.Context, documentID string) ([]Tracker, error)
	UpdateFields(ctx context.Context, id, expectedVersion string, update Update, username string) (string, error)
	SetDocuments(ctx context.Context, id, expectedVersion string, documents []string, username string) (string, error)
	Delete(ctx context.Context, id string) error

	DocumentsByIDs(ctx context.Context, documentIDs []string) ([]Row, error)
	Categories(ctx context.Context, documentIDs []string) ([]string, error)
	CategoryPairs(ctx context.Context, documentIDs []string) ([]CategoryPair, error)
	ComplianceDocs(ctx context.Context, documentIDs []string, classification string) ([]ComplianceDoc, error)
	FilteredTransactions(ctx context.Context, documentIDs []string, dataset DatasetName) ([]Row, error)
}

type RepositoryImpl struct {
	store     *store.Versioned[Tracker]
	documents *mongo.Collection
	xprops    *mongo.Collection
}

// NewRepository creates a new tracker repository
func NewRepository(database *mongo.Database) Repository {
	return &RepositoryImpl{
		store:     store.NewVersioned[Tracker](database, collection),
		documents: database.Collection("documents"),
		xprops:    database.Collection("extendedprops"),
	}
}

func (r *RepositoryImpl) Insert(ctx context.Context, t *Tracker) error {
	return r.store.Insert(ctx, *t)
}

func (r *RepositoryImpl) GetByID(ctx context.Context, id string) (*Tracker, error) {
	return r.store.FindOne(ctx, bson.M{"id": id})
}

func (r *RepositoryImpl) ListByClientID(ctx context.Context, clientID string) ([]Tracker, error) {
	return r.store.Find(ctx, bson.M{"client_id": clientID})
}

func (r *RepositoryImpl) ListByClientIDs(ctx context.Context, clientIDs []string) ([]Tracker, error) {
	if len(clientIDs) == 0 {
		return []Tracker{}, nil
	}
	return r.store.Find(ctx, bson.M{"client_id": bson.M{"$in": clientIDs}})
}

func (r *RepositoryImpl) ListLinkedToDocument(ctx context.Context, documentID string) ([]Tracker, error) {
	return r.store.Find(ctx, bson.M{"documents": documentID})
}

func (r *RepositoryImpl) UpdateFields(ctx context.Context, id, expectedVersion string, update Update, username string) (string, error) {
	return r.store.UpdateIfVersionMatches(ctx, id, expectedVersion, bson.M{
		"name":             update.Name,
		"bates_pattern":    update.BatesPattern,
		"updated_username": username,
		"updated_date":     time.Now().UTC(),
	})
}

// SetDocuments persists a new link list. Version-matched so two concurrent
// link/unlink calls on the same tracker cannot both win.
func (r *RepositoryImpl) SetDocuments(ctx context.Context, id, expectedVersion string, documents []string, username string) (string, error) {
	return r.store.UpdateIfVersionMatches(ctx, id, expectedVersion, bson.M{
		"documents":        documents,
		"updated_username": username,
		"updated_date":     time.Now().UTC(),
	})
}

func (r *RepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}

// DocumentsByIDs returns the document records for a tracker's link list
func (r *RepositoryImpl) DocumentsByIDs(ctx context.Context, documentIDs []string) ([]Row, error) {
	cursor, err := r.documents.Find(
		ctx,
		bson.M{"id": bson.M{"$in": documentIDs}},
		options.Find().SetProjection(bson.M{"_id": 0}),
	)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Categories returns the distinct non-empty classifications across the
// tracker's documents.
func (r *RepositoryImpl) Categories(ctx context.Context, documentIDs []string) ([]string, error) {
	result := r.documents.Distinct(ctx, "classification", bson.M{"id": bson.M{"$in": documentIDs}})
	var raw []string
	if err := result.Decode(&raw); err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(raw))
	for _, category := range raw {
		if category != "" {
			categories = append(categories, category)
		}
	}
	return categories, nil
}

// CategoryPairs groups the tracker's documents by classification and
// sub-classification label with counts.
func (r *RepositoryImpl) CategoryPairs(ctx context.Context, documentIDs []string) ([]CategoryPair, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"id": bson.M{"$in": documentIDs}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"category":    "$classification",
				"subcategory": "$sub_classification_label",
			},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":         0,
			"category":    "$_id.category",
			"subcategory": "$_id.subcategory",
			"count":       1,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "category", Value: 1}, {Key: "subcategory", Value: 1}}}},
	}

	cursor, err := r.documents.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var pairs []CategoryPair
	if err := cursor.All(ctx, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// ComplianceDocs fetches the projection the compliance matrix is built from:
// documents of the classification that carry a non-empty sub_classification,
// in document-date order.
func (r *RepositoryImpl) ComplianceDocs(ctx context.Context, documentIDs []string, classification string) ([]ComplianceDoc, error) {
	filter := bson.M{
		"id":             bson.M{"$in": documentIDs},
		"classification": classification,
		"sub_classification": bson.M{
			"$exists": true,
			"$nin":    bson.A{nil, "", bson.M{}},
		},
	}
	projection := bson.M{
		"id":                 1,
		"sub_classification": 1,
		"document_date":      1,
		"produced_date":      1,
		"beginning_bates":    1,
		"path":               1,
	}

	cursor, err := r.documents.Find(
		ctx,
		filter,
		options.Find().SetProjection(projection).SetSort(bson.D{{Key: "document_date", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	var docs []ComplianceDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// transaction element predicates per dataset, applied both before and after
// the $unwind stage
func datasetMatches(dataset DatasetName) (bson.M, bson.M) {
	switch dataset {
	case DatasetDeposits:
		return bson.M{
				"$and": bson.A{
					bson.M{"Category": bson.M{"$eq": "Deposit"}},
					bson.M{"Category": bson.M{"$exists": true}},
				},
			}, bson.M{
				"$and": bson.A{
					bson.M{"tables.transactions.Category": bson.M{"$eq": "Deposit"}},
					bson.M{"tables.transactions.Category": bson.M{"$exists": true}},
				},
			}
	case DatasetCashBackPurchases:
		return bson.M{
				"$and": bson.A{
					bson.M{"Cash Back": bson.M{"$ne": ""}},
					bson.M{"Cash Back": bson.M{"$exists": true}},
				},
			}, bson.M{
				"$and": bson.A{
					bson.M{"tables.transactions.Cash Back": bson.M{"$ne": ""}},
					bson.M{"tables.transactions.Cash Back": bson.M{"$exists": true}},
				},
			}
	case DatasetTransfers:
		return bson.M{
				"$or": bson.A{
					bson.M{"Transfer from": bson.M{"$ne": ""}},
					bson.M{"Transfer to": bson.M{"$ne": ""}},
				},
				"$and": bson.A{
					bson.M{"Transfer from": bson.M{"$exists": true}},
					bson.M{"Transfer to": bson.M{"$exists": true}},
				},
			}, bson.M{
				"$or": bson.A{
					bson.M{"tables.transactions.Transfer from": bson.M{"$ne": ""}},
					bson.M{"tables.transactions.Transfer to": bson.M{"$ne": ""}},
				},
				"$and": bson.A{
					bson.M{"tables.transactions.Transfer from": bson.M{"$exists": true}},
					bson.M{"tables.transactions.Transfer to": bson.M{"$exists": true}},
				},
			}
	}
	return nil, nil
}

// FilteredTransactions runs the extendedprops aggregation pipeline: match the
// tracker's documents, unwind the extracted transaction tables, re-filter the
// unwound elements, then join document details back in.
func (r *RepositoryImpl) FilteredTransactions(ctx context.Context, documentIDs []string, dataset DatasetName) ([]Row, error) {
	elementMatch, unwoundMatch := datasetMatches(dataset)
	if elementMatch == nil {
		return []Row{}, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"id":                  bson.M{"$in": documentIDs},
			"tables.transactions": bson.M{"$elemMatch": elementMatch},
		}}},
		{{Key: "$unwind", Value: "$tables.transactions"}},
		{{Key: "$match", Value: unwoundMatch}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "documents",
			"localField":   "id",
			"foreignField": "id",
			"as":           "document_details",
		}}},
		{{Key: "$unwind", Value: "$document_details"}},
		{{Key: "$project", Value: bson.M{
			"_id":             0,
			"id":              1,
			"transaction":     "$tables.transactions",
			"beginning_bates": "$document_details.beginning_bates",
			"ending_bates":    "$document_details.ending_bates",
			"classification":  "$document_details.classification",
			"title":           "$document_details.title",
			"path":            "$document_details.path",
			"document_date":   "$document_details.document_date",
		}}},
	}

	cursor, err := r.xprops.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
