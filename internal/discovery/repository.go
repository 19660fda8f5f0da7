package discovery

import (
	"context"
	"discovery-tracker-api/internal/store"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const (
	filesCollection    = "discovery_files"
	requestsCollection = "discovery_requests"
)

// Repository defines the interface for discovery file and request data access
type Repository interface {
	InsertFile(ctx context.Context, f *DiscoveryFile) error
	GetFile(ctx context.Context, id string) (*DiscoveryFile, error)
	ListFileSummaries(ctx context.Context, clientID string) ([]FileSummary, error)
	UpdateFile(ctx context.Context, id, expectedVersion string, update FileUpdate) (string, error)
	DeleteFile(ctx context.Context, id string) error
	DeleteRequestsByFile(ctx context.Context, fileID string) (int64, error)

	InsertRequest(ctx context.Context, r *DiscoveryRequest) error
	GetRequest(ctx context.Context, id string) (*DiscoveryRequest, error)
	ListRequestsByFile(ctx context.Context, fileID string) ([]DiscoveryRequest, error)
	UpdateRequest(ctx context.Context, id, expectedVersion string, update RequestUpdate, username string) (string, error)
	DeleteRequest(ctx context.Context, id string) error

	ServiceList(ctx context.Context, clientID string) ([]ServiceListEntry, error)
}

type RepositoryImpl struct {
	files    *store.Versioned[DiscoveryFile]
	requests *store.Versioned[DiscoveryRequest]
}

// NewRepository creates a new discovery repository
func NewRepository(database *mongo.Database) Repository {
	return &RepositoryImpl{
		files:    store.NewVersioned[DiscoveryFile](database, filesCollection),
		requests: store.NewVersioned[DiscoveryRequest](database, requestsCollection),
	}
}

func (r *RepositoryImpl) InsertFile(ctx context.Context, f *DiscoveryFile) error {
	return r.files.Insert(ctx, *f)
}

func (r *RepositoryImpl) GetFile(ctx context.Context, id string) (*DiscoveryFile, error) {
	return r.files.FindOne(ctx, bson.M{"id": id})
}

// ListFileSummaries joins each of the client's files against its requests and
// projects the counts in.
func (r *RepositoryImpl) ListFileSummaries(ctx context.Context, clientID string) ([]FileSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"client_id": clientID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         requestsCollection,
			"localField":   "id",
			"foreignField": "file_id",
			"as":           "requests",
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":            0,
			"id":             1,
			"client_id":      1,
			"discovery_type": 1,
			"service_date":   1,
			"due_date":       1,
			"party_name":     1,
			"created_by":     1,
			"create_date":    1,
			"version":        1,
			"request_count":  bson.M{"$size": "$requests"},
			"response_count": bson.M{"$size": bson.M{
				"$filter": bson.M{
					"input": "$requests",
					"as":    "request",
					"cond":  bson.M{"$gt": bson.A{"$$request.response", ""}},
				},
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "service_date", Value: 1}}}},
	}

	var summaries []FileSummary
	if err := r.files.Aggregate(ctx, pipeline, &summaries); err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []FileSummary{}
	}
	return summaries, nil
}

func (r *RepositoryImpl) UpdateFile(ctx context.Context, id, expectedVersion string, update FileUpdate) (string, error) {
	return r.files.UpdateIfVersionMatches(ctx, id, expectedVersion, bson.M{
		"discovery_type": update.DiscoveryType,
		"service_date":   update.ServiceDate,
		"due_date":       update.DueDate,
		"party_name":     update.PartyName,
	})
}

func (r *RepositoryImpl) DeleteFile(ctx context.Context, id string) error {
	return r.files.Delete(ctx, id)
}

func (r *RepositoryImpl) DeleteRequestsByFile(ctx context.Context, fileID string) (int64, error) {
	return r.requests.DeleteMany(ctx, bson.M{"file_id": fileID})
}

func (r *RepositoryImpl) InsertRequest(ctx context.Context, req *DiscoveryRequest) error {
	return r.requests.Insert(ctx, *req)
}

func (r *RepositoryImpl) GetRequest(ctx context.Context, id string) (*DiscoveryRequest, error) {
	return r.requests.FindOne(ctx, bson.M{"id": id})
}

func (r *RepositoryImpl) ListRequestsByFile(ctx context.Context, fileID string) ([]DiscoveryRequest, error) {
	return r.requests.Find(ctx, bson.M{"file_id": fileID})
}

func (r *RepositoryImpl) UpdateRequest(ctx context.Context, id, expectedVersion string, update RequestUpdate, username string) (string, error) {
	return r.requests.UpdateIfVersionMatches(ctx, id, expectedVersion, bson.M{
		"request_number":             update.RequestNumber,
		"request_text":               update.RequestText,
		"lookback_date":              update.LookbackDate,
		"interpretations":            update.Interpretations,
		"privileges":                 update.Privileges,
		"objections":                 update.Objections,
		"response":                   update.Response,
		"responsive_classifications": update.ResponsiveClassifications,
		"last_updated_by":            username,
		"last_updated_date":          time.Now().UTC().Format("2006-01-02 15:04:05"),
	})
}

func (r *RepositoryImpl) DeleteRequest(ctx context.Context, id string) error {
	return r.requests.Delete(ctx, id)
}

// ServiceList groups the client's requests by discovery type, serving party
// and service date, counting served and responded requests per group.
func (r *RepositoryImpl) ServiceList(ctx context.Context, clientID string) ([]ServiceListEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"client_id": clientID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         requestsCollection,
			"localField":   "id",
			"foreignField": "file_id",
			"as":           "requests",
		}}},
		{{Key: "$unwind", Value: "$requests"}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"client_id":      "$client_id",
				"discovery_type": "$discovery_type",
				"party_name":     "$party_name",
				"service_date":   "$service_date",
			},
			"served_count": bson.M{"$sum": 1},
			"responded_count": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$gt": bson.A{"$requests.response", ""}}, 1, 0},
			}},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":             0,
			"client_id":       "$_id.client_id",
			"discovery_type":  "$_id.discovery_type",
			"party_name":      "$_id.party_name",
			"service_date":    "$_id.service_date",
			"served_count":    1,
			"responded_count": 1,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "service_date", Value: 1}, {Key: "party_name", Value: 1}}}},
	}

	var entries []ServiceListEntry
	if err := r.files.Aggregate(ctx, pipeline, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []ServiceListEntry{}
	}
	return entries, nil
}
